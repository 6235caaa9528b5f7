package seeder

import (
	"context"
	"time"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/google/uuid"
)

// Instance is one created record. Relation columns hold identifiers only.
type Instance struct {
	Entity string
	ID     int64
	Values schema.Values
}

// Registrar persists one record and returns its identifier.
type Registrar interface {
	Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error)
}

// Storage is the collaborator population writes into. EnsureSchema receives
// the insertion order so referenced tables are created first.
type Storage interface {
	Registrar
	EnsureSchema(ctx context.Context, s *schema.Schema, order []string) error
}

// Lookup reads selected columns of one stored record. Storage that
// implements it lets overridden relation ids be checked against pins.
type Lookup interface {
	Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error)
}

type Summary struct {
	RunID    uuid.UUID
	Order    []string
	Created  map[string][]int64 // entity -> ids in creation order
	Duration time.Duration
}

func (s *Summary) Count(entity string) int {
	return len(s.Created[entity])
}

func (s *Summary) Total() int {
	total := 0
	for _, ids := range s.Created {
		total += len(ids)
	}
	return total
}
