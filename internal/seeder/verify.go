package seeder

import (
	"context"
	"fmt"

	"github.com/Rana718/botseed/internal/schema"
)

// OrphanCounter counts rows whose relation column points at a missing row.
type OrphanCounter interface {
	CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error)
}

type Finding struct {
	Entity  string
	Column  string
	Target  string
	Orphans int64
}

type Report struct {
	Findings []Finding
}

// OK reports whether every relation resolved.
func (r *Report) OK() bool {
	for _, f := range r.Findings {
		if f.Orphans > 0 {
			return false
		}
	}
	return true
}

// Verify checks referential consistency of every relation declared in s.
func Verify(ctx context.Context, s *schema.Schema, store OrphanCounter) (*Report, error) {
	report := &Report{}
	for _, e := range s.Entities() {
		for _, rel := range e.Relations {
			target, ok := s.Entity(rel.Target)
			if !ok {
				return nil, &UnsatisfiableRelationError{Entity: e.Name, Column: rel.Column, Target: rel.Target, Reason: "target entity is not declared in the schema"}
			}
			n, err := store.CountOrphans(ctx, e, rel.Column, target)
			if err != nil {
				return nil, fmt.Errorf("failed to check %s.%s: %w", e.Name, rel.Column, err)
			}
			report.Findings = append(report.Findings, Finding{
				Entity:  e.Name,
				Column:  rel.Column,
				Target:  rel.Target,
				Orphans: n,
			})
		}
	}
	return report, nil
}
