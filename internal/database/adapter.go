package database

import (
	"context"

	"github.com/Rana718/botseed/internal/schema"
)

// Adapter is the storage collaborator the seeder writes into. Reverse
// lookups are derived queries; nothing keeps back-pointers in memory.
type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Schema operations; order lists referenced entities first.
	SchemaSQL(s *schema.Schema, order []string) (string, error)
	EnsureSchema(ctx context.Context, s *schema.Schema, order []string) error

	// Writes
	Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error)

	// Reads; Lookup reports false when no row has the id.
	Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error)

	// Derived queries
	Count(ctx context.Context, e *schema.Entity) (int64, error)
	Referencing(ctx context.Context, e *schema.Entity, column string, id int64) ([]int64, error)
	CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error)
}
