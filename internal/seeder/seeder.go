package seeder

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Rana718/botseed/internal/logger"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Seeder drives population passes over a schema. It holds no state between
// passes: every Populate call is additive and creates a new, disjoint batch
// of rows.
type Seeder struct {
	schema  *schema.Schema
	store   Storage
	factory *Factory
	policy  SelectionPolicy
	rand    *rand.Rand
	quiet   bool
}

type Option func(*seederOptions)

type seederOptions struct {
	policy  SelectionPolicy
	seed    uint64
	quiet   bool
	factory []FactoryOption
}

// WithSelection sets how relations pick among pooled parents.
func WithSelection(p SelectionPolicy) Option {
	return func(o *seederOptions) { o.policy = p }
}

// WithSeed makes uniform parent selection reproducible. Zero keeps it random.
func WithSeed(seed uint64) Option {
	return func(o *seederOptions) { o.seed = seed }
}

// WithQuiet suppresses console progress output.
func WithQuiet() Option {
	return func(o *seederOptions) { o.quiet = true }
}

func WithFactoryOptions(opts ...FactoryOption) Option {
	return func(o *seederOptions) { o.factory = append(o.factory, opts...) }
}

func New(s *schema.Schema, store Storage, values ValueProvider, opts ...Option) *Seeder {
	var o seederOptions
	for _, opt := range opts {
		opt(&o)
	}

	var r *rand.Rand
	if o.seed != 0 {
		r = rand.New(rand.NewPCG(o.seed, o.seed))
	}

	return &Seeder{
		schema:  s,
		store:   store,
		factory: NewFactory(s, store, values, o.factory...),
		policy:  o.policy,
		rand:    r,
		quiet:   o.quiet,
	}
}

// Prepare validates the schema and makes sure storage has its tables.
// Creating tables that already exist is a no-op.
func (s *Seeder) Prepare(ctx context.Context) error {
	if err := s.schema.Validate(); err != nil {
		return err
	}
	order, err := GraphFromSchema(s.schema).BuildInsertionOrder()
	if err != nil {
		return fmt.Errorf("failed to build insertion order: %w", err)
	}
	if err := s.store.EnsureSchema(ctx, s.schema, order); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Populate runs one generation pass. Entity types are visited in dependency
// order; each plan step asks the factory for Count instances that share the
// pass's pool of parents. Nested children are created at their own type's
// turn, bound to the parents their step produced. The first error aborts the
// pass; rows registered before it stay in storage.
func (s *Seeder) Populate(ctx context.Context, plan Plan) (*Summary, error) {
	start := time.Now()
	runID := uuid.New()
	log := logger.FromContext(ctx).With("run_id", runID.String())
	ctx = logger.WithContext(ctx, log)

	if err := s.schema.Validate(); err != nil {
		return nil, err
	}

	order, err := GraphFromSchema(s.schema).BuildInsertionOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to build insertion order: %w", err)
	}
	if err := plan.validate(s.schema, order); err != nil {
		return nil, err
	}

	s.printf(color.Cyan, "🌱 Populating (run %s)...", runID)
	s.printf(color.Cyan, "📋 Insertion order: %s", strings.Join(order, " → "))
	log.Info("populate started", "order", order, "selection", s.policy.String())

	pool := NewPool(s.policy, s.rand)
	for _, entity := range plan.closed() {
		pool.Close(entity)
	}

	summary := &Summary{RunID: runID, Order: order}
	parents := make(map[int][]*Instance)

	for _, entity := range order {
		for i, step := range plan.Steps {
			if step.Entity != entity || step.Count == 0 {
				continue
			}
			s.printf(color.Cyan, "  📝 Creating %s (%d records)...", entity, step.Count)
			for n := 0; n < step.Count; n++ {
				inst, err := s.factory.Create(ctx, entity, maps.Clone(step.Overrides), pool)
				if err != nil {
					summary.Created = pool.IDs()
					return summary, fmt.Errorf("failed to populate %s: %w", entity, err)
				}
				parents[i] = append(parents[i], inst)
			}
		}

		for i, step := range plan.Steps {
			for _, child := range step.Children {
				if child.Entity != entity || child.PerParent == 0 {
					continue
				}
				if err := s.createChildren(ctx, pool, step.Entity, child, parents[i]); err != nil {
					summary.Created = pool.IDs()
					return summary, err
				}
			}
		}
	}

	summary.Created = pool.IDs()
	summary.Duration = time.Since(start)

	log.Info("populate finished", "total", summary.Total(), "duration", summary.Duration)
	s.printf(color.Green, "✅ Created %d records in %s", summary.Total(), summary.Duration.Round(time.Millisecond))
	return summary, nil
}

func (s *Seeder) createChildren(ctx context.Context, pool *Pool, parent string, child Nested, parents []*Instance) error {
	col, err := childColumn(s.schema, parent, child)
	if err != nil {
		return err
	}

	s.printf(color.Cyan, "  📝 Creating %s (%d per %s, %d parents)...", child.Entity, child.PerParent, parent, len(parents))
	for _, p := range parents {
		overrides := maps.Clone(child.Overrides)
		if overrides == nil {
			overrides = make(schema.Values, 1)
		}
		overrides[col] = p.ID

		for n := 0; n < child.PerParent; n++ {
			if _, err := s.factory.Create(ctx, child.Entity, overrides, pool); err != nil {
				return fmt.Errorf("failed to populate %s for %s %d: %w", child.Entity, parent, p.ID, err)
			}
		}
	}
	return nil
}

func (s *Seeder) printf(c func(format string, a ...interface{}), format string, args ...interface{}) {
	if s.quiet {
		return
	}
	c(format, args...)
}
