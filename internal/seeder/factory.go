package seeder

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Rana718/botseed/internal/logger"
	"github.com/Rana718/botseed/internal/schema"
)

const DefaultWindow = 365 * 24 * time.Hour

// Factory synthesizes single instances of schema entities.
//
// Relation columns missing from the overrides are resolved against the pool
// passed to Create. With a nil pool every relation gets a freshly created
// target, pinned to the relation's variant. With a pool, a pooled instance
// matching the pins is reused and a fresh one is created only when none
// exists and the target is not closed.
type Factory struct {
	schema *schema.Schema
	store  Registrar
	values ValueProvider
	window time.Duration
	now    func() time.Time
	cycles map[string]int
}

type FactoryOption func(*Factory)

// WithWindow sets how far back sampled timestamps may reach.
func WithWindow(d time.Duration) FactoryOption {
	return func(f *Factory) {
		if d > 0 {
			f.window = d
		}
	}
}

func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

func NewFactory(s *schema.Schema, store Registrar, values ValueProvider, opts ...FactoryOption) *Factory {
	f := &Factory{
		schema: s,
		store:  store,
		values: values,
		window: DefaultWindow,
		now:    time.Now,
		cycles: make(map[string]int),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create builds one instance of entity, registers it with storage and, when
// pool is not nil, adds it to the pool.
func (f *Factory) Create(ctx context.Context, entity string, overrides schema.Values, pool *Pool) (*Instance, error) {
	return f.create(ctx, entity, overrides, pool, nil)
}

func (f *Factory) create(ctx context.Context, entity string, overrides schema.Values, pool *Pool, path []string) (*Instance, error) {
	e, ok := f.schema.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
	path = append(path, e.Name)

	values, err := normalizeOverrides(e, overrides)
	if err != nil {
		return nil, err
	}

	for _, rel := range e.Relations {
		if v, set := values[rel.Column]; set {
			if v == nil {
				if !rel.Optional {
					return nil, &UnsatisfiableRelationError{Entity: e.Name, Column: rel.Column, Target: rel.Target, Reason: "required relation overridden with null"}
				}
				continue
			}
			if err := f.checkPins(ctx, e, rel, v.(int64), pool); err != nil {
				return nil, err
			}
			continue
		}
		id, err := f.resolveRelation(ctx, e, rel, pool, path)
		if err != nil {
			return nil, err
		}
		values[rel.Column] = id
	}

	for _, field := range e.Fields {
		if _, set := values[field.Name]; set {
			continue
		}
		if _, derived := e.Derivation(field.Name); derived {
			continue
		}
		v, err := f.scalar(e, field)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.Name, field.Name, err)
		}
		values[field.Name] = v
	}

	s := sampler{f}
	for _, d := range e.Derivations {
		v, err := d.Fn(values, s)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.Name, d.Field, err)
		}
		values[d.Field] = v
	}

	id, err := f.store.Register(ctx, e, values)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", e.Name, err)
	}

	inst := &Instance{Entity: e.Name, ID: id, Values: values}
	if pool != nil {
		pool.Add(inst)
	}
	logger.FromContext(ctx).Debug("instance created", "entity", e.Name, "id", id)
	return inst, nil
}

func (f *Factory) resolveRelation(ctx context.Context, e *schema.Entity, rel schema.Relation, pool *Pool, path []string) (any, error) {
	unsatisfiable := func(reason string) error {
		return &UnsatisfiableRelationError{Entity: e.Name, Column: rel.Column, Target: rel.Target, Reason: reason}
	}

	if _, ok := f.schema.Entity(rel.Target); !ok {
		return nil, unsatisfiable("target entity is not declared in the schema")
	}

	if pool != nil {
		if inst, ok := pool.Pick(rel.Target, rel.Pins); ok {
			return inst.ID, nil
		}
		if pool.IsClosed(rel.Target) {
			if rel.Optional {
				return nil, nil
			}
			return nil, unsatisfiable(fmt.Sprintf("no matching %s exists in this run and its planned count is 0", rel.Target))
		}
	}

	if slices.Contains(path, rel.Target) {
		if rel.Optional {
			return nil, nil
		}
		return nil, unsatisfiable("relation leads back to an entity that is still being created")
	}

	inst, err := f.create(ctx, rel.Target, maps.Clone(rel.Pins), pool, path)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.Name, rel.Column, err)
	}
	return inst.ID, nil
}

// checkPins makes sure an overridden relation id points at an instance of
// the relation's variant. Pooled instances are checked in memory; anything
// else is read back from storage.
func (f *Factory) checkPins(ctx context.Context, e *schema.Entity, rel schema.Relation, id int64, pool *Pool) error {
	if len(rel.Pins) == 0 {
		return nil
	}
	unsatisfiable := func(reason string) error {
		return &UnsatisfiableRelationError{Entity: e.Name, Column: rel.Column, Target: rel.Target, Reason: reason}
	}

	var stored schema.Values
	if inst, ok := pool.Get(rel.Target, id); ok {
		stored = inst.Values
	} else {
		lookup, ok := f.store.(Lookup)
		if !ok {
			return unsatisfiable(fmt.Sprintf("cannot check %s %d against %s", rel.Target, id, pinKey(rel.Pins)))
		}
		target, _ := f.schema.Entity(rel.Target)
		columns := slices.Sorted(maps.Keys(rel.Pins))
		values, found, err := lookup.Lookup(ctx, target, id, columns)
		if err != nil {
			return fmt.Errorf("%s.%s: failed to look up %s %d: %w", e.Name, rel.Column, rel.Target, id, err)
		}
		if !found {
			return unsatisfiable(fmt.Sprintf("no %s with id %d", rel.Target, id))
		}
		stored = values
	}

	for k, pin := range rel.Pins {
		if !pinEqual(stored[k], pin) {
			return unsatisfiable(fmt.Sprintf("%s %d has %s=%v, relation requires %v", rel.Target, id, k, stored[k], pin))
		}
	}
	return nil
}

func (f *Factory) scalar(e *schema.Entity, field schema.Field) (any, error) {
	if field.Default != nil {
		return field.Default, nil
	}

	switch field.Kind {
	case schema.KindEnum:
		if field.Cycle && len(field.Values) > 0 {
			key := e.Name + "." + field.Name
			idx := f.cycles[key] % len(field.Values)
			f.cycles[key]++
			return field.Values[idx], nil
		}
		return f.values.RandomEnum(field.Values)
	case schema.KindString:
		return f.values.RandomString(field.Hint)
	case schema.KindText:
		return f.values.RandomText(field.Hint)
	case schema.KindBool:
		v, err := f.values.RandomEnum([]string{"true", "false"})
		return v == "true", err
	case schema.KindTimestamp:
		now := f.now()
		return f.values.RandomTimestamp(schema.Window{From: now.Add(-f.window), To: now})
	default:
		return nil, fmt.Errorf("unsupported field kind %s", field.Kind)
	}
}

// sampler exposes the factory clock and value provider to derivations.
type sampler struct {
	f *Factory
}

func (s sampler) RandomTimestamp(w schema.Window) (time.Time, error) {
	return s.f.values.RandomTimestamp(w)
}

func (s sampler) Now() time.Time {
	return s.f.now()
}
