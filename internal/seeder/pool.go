package seeder

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/Rana718/botseed/internal/schema"
)

type SelectionPolicy int

const (
	// RoundRobin walks matching instances in creation order.
	RoundRobin SelectionPolicy = iota
	// Uniform samples a matching instance at random.
	Uniform
)

func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "round_robin", "round-robin":
		return RoundRobin, nil
	case "uniform", "random":
		return Uniform, nil
	}
	return RoundRobin, fmt.Errorf("unknown selection policy %q", s)
}

func (p SelectionPolicy) String() string {
	if p == Uniform {
		return "uniform"
	}
	return "round_robin"
}

// Pool collects the instances created during one population pass and hands
// them out to relations that may reuse an existing parent.
type Pool struct {
	policy   SelectionPolicy
	rand     *rand.Rand
	byEntity map[string][]*Instance
	cursor   map[string]int
	closed   map[string]bool
}

func NewPool(policy SelectionPolicy, r *rand.Rand) *Pool {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Pool{
		policy:   policy,
		rand:     r,
		byEntity: make(map[string][]*Instance),
		cursor:   make(map[string]int),
		closed:   make(map[string]bool),
	}
}

func (p *Pool) Add(inst *Instance) {
	p.byEntity[inst.Entity] = append(p.byEntity[inst.Entity], inst)
}

// Get returns the pooled instance of entity with the given id. A nil pool
// holds nothing.
func (p *Pool) Get(entity string, id int64) (*Instance, bool) {
	if p == nil {
		return nil, false
	}
	for _, inst := range p.byEntity[entity] {
		if inst.ID == id {
			return inst, true
		}
	}
	return nil, false
}

// Close forbids on-demand creation of entity for the rest of the pass.
func (p *Pool) Close(entity string) {
	p.closed[entity] = true
}

func (p *Pool) IsClosed(entity string) bool {
	return p.closed[entity]
}

func (p *Pool) Instances(entity string) []*Instance {
	return slices.Clone(p.byEntity[entity])
}

// IDs returns identifiers per entity in creation order.
func (p *Pool) IDs() map[string][]int64 {
	out := make(map[string][]int64, len(p.byEntity))
	for entity, instances := range p.byEntity {
		ids := make([]int64, len(instances))
		for i, inst := range instances {
			ids[i] = inst.ID
		}
		out[entity] = ids
	}
	return out
}

// Pick selects an instance of entity whose values match every pin.
func (p *Pool) Pick(entity string, pins schema.Values) (*Instance, bool) {
	var candidates []*Instance
	for _, inst := range p.byEntity[entity] {
		if matches(inst, pins) {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	if p.policy == Uniform {
		return candidates[p.rand.IntN(len(candidates))], true
	}

	key := entity + pinKey(pins)
	idx := p.cursor[key] % len(candidates)
	p.cursor[key]++
	return candidates[idx], true
}

func matches(inst *Instance, pins schema.Values) bool {
	for k, v := range pins {
		if !pinEqual(inst.Values[k], v) {
			return false
		}
	}
	return true
}

func pinKey(pins schema.Values) string {
	if len(pins) == 0 {
		return ""
	}
	keys := make([]string, 0, len(pins))
	for k := range pins {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, pins[k])
	}
	return b.String()
}
