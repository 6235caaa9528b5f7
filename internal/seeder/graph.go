package seeder

import (
	"slices"

	"github.com/Rana718/botseed/internal/schema"
)

// DependencyGraph orders entity types so that every referenced type is
// created before the types that reference it.
type DependencyGraph struct {
	entities map[string]*schema.Entity
	names    []string
	order    []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		entities: make(map[string]*schema.Entity),
	}
}

func GraphFromSchema(s *schema.Schema) *DependencyGraph {
	g := NewDependencyGraph()
	for _, e := range s.Entities() {
		g.AddEntity(e)
	}
	return g
}

func (g *DependencyGraph) AddEntity(e *schema.Entity) {
	if _, exists := g.entities[e.Name]; !exists {
		g.names = append(g.names, e.Name)
	}
	g.entities[e.Name] = e
}

// BuildInsertionOrder sorts entity types topologically. Required relations
// always constrain the order; optional ones do when they do not close a
// cycle. Roots and dependencies are visited in declaration order so the
// result is stable across runs.
func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	edges := g.requiredEdges()
	if cycle := g.findCycle(edges); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	for _, name := range g.names {
		for _, rel := range g.entities[name].Relations {
			if !rel.Optional || !g.follows(name, rel.Target) {
				continue
			}
			if slices.Contains(edges[name], rel.Target) || g.reaches(edges, rel.Target, name) {
				continue
			}
			edges[name] = append(edges[name], rel.Target)
		}
	}

	visited := make(map[string]bool)
	var order []string

	var visit func(string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range edges[name] {
			visit(dep)
		}
		order = append(order, name)
	}

	for _, name := range g.names {
		visit(name)
	}

	g.order = order
	return order, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}

// follows reports whether an edge from name to target takes part in ordering.
// Self references and targets outside the graph are skipped.
func (g *DependencyGraph) follows(name, target string) bool {
	if name == target {
		return false
	}
	_, known := g.entities[target]
	return known
}

func (g *DependencyGraph) requiredEdges() map[string][]string {
	edges := make(map[string][]string, len(g.names))
	for _, name := range g.names {
		for _, rel := range g.entities[name].Relations {
			if rel.Optional {
				continue
			}
			if g.follows(name, rel.Target) && !slices.Contains(edges[name], rel.Target) {
				edges[name] = append(edges[name], rel.Target)
			}
		}
	}
	return edges
}

func (g *DependencyGraph) reaches(edges map[string][]string, from, to string) bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, edges[n]...)
	}
	return false
}

// findCycle returns the first cycle found as a path that starts and ends on
// the same entity, or nil.
func (g *DependencyGraph) findCycle(edges map[string][]string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var stack, cycle []string

	var visit func(string) bool
	visit = func(name string) bool {
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range edges[name] {
			switch state[dep] {
			case visiting:
				idx := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[idx:]), dep)
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}

	for _, name := range g.names {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}
