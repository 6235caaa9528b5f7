package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/Rana718/botseed/internal/database/common"
	"github.com/Rana718/botseed/internal/schema"
)

// Row is one stored record.
type Row struct {
	ID     int64
	Values schema.Values
}

// Insert is one entry of the store's write log.
type Insert struct {
	Entity string
	ID     int64
}

// Store keeps rows in process. It enforces foreign keys the way the SQL
// adapters do, so a row may only reference rows that already exist.
type Store struct {
	mu     sync.RWMutex
	schema *schema.Schema
	tables map[string][]Row
	log    []Insert
}

func New() *Store {
	return &Store{tables: make(map[string][]Row)}
}

func (s *Store) Connect(ctx context.Context, url string) error {
	if url != "" && !strings.HasPrefix(url, "memory://") {
		return fmt.Errorf("memory store expects a memory:// URL, got %s", url)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return nil }

// SchemaSQL renders the schema with SQLite types for display.
func (s *Store) SchemaSQL(sch *schema.Schema, order []string) (string, error) {
	return common.SchemaScript(displayDialect, sch, order)
}

func (s *Store) EnsureSchema(ctx context.Context, sch *schema.Schema, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range order {
		e, ok := sch.Entity(name)
		if !ok {
			return fmt.Errorf("unknown entity in order: %s", name)
		}
		if _, exists := s.tables[e.Table]; !exists {
			s.tables[e.Table] = nil
		}
	}
	s.schema = sch
	return nil
}

func (s *Store) Register(ctx context.Context, e *schema.Entity, v schema.Values) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.tables[e.Table]
	if !ok {
		return 0, fmt.Errorf("no such table: %s", e.Table)
	}

	for _, rel := range e.Relations {
		ref, set := v[rel.Column]
		if !set || ref == nil {
			if !rel.Optional {
				return 0, fmt.Errorf("NOT NULL constraint failed: %s.%s", e.Table, rel.Column)
			}
			continue
		}
		id, ok := ref.(int64)
		if !ok {
			return 0, fmt.Errorf("%s.%s: expected int64 id, got %T", e.Table, rel.Column, ref)
		}
		if !s.exists(rel.Target, id) {
			return 0, fmt.Errorf("FOREIGN KEY constraint failed: %s.%s = %d", e.Table, rel.Column, id)
		}
	}

	for _, f := range e.Fields {
		if val, set := v[f.Name]; (!set || val == nil) && !f.Nullable {
			return 0, fmt.Errorf("NOT NULL constraint failed: %s.%s", e.Table, f.Name)
		}
	}

	id := int64(len(rows)) + 1
	s.tables[e.Table] = append(rows, Row{ID: id, Values: maps.Clone(v)})
	s.log = append(s.log, Insert{Entity: e.Name, ID: id})
	return id, nil
}

func (s *Store) exists(entity string, id int64) bool {
	if s.schema == nil {
		return false
	}
	target, ok := s.schema.Entity(entity)
	if !ok {
		return false
	}
	rows := s.tables[target.Table]
	return id >= 1 && id <= int64(len(rows))
}

func (s *Store) Count(ctx context.Context, e *schema.Entity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.tables[e.Table]
	if !ok {
		return 0, fmt.Errorf("no such table: %s", e.Table)
	}
	return int64(len(rows)), nil
}

// Referencing returns ids of e rows whose column equals id, ascending.
func (s *Store) Referencing(ctx context.Context, e *schema.Entity, column string, id int64) ([]int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, row := range s.tables[e.Table] {
		if ref, ok := row.Values[column].(int64); ok && ref == id {
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}

func (s *Store) CountOrphans(ctx context.Context, e *schema.Entity, column string, target *schema.Entity) (int64, error) {
	if err := common.ValidateColumn(e, column); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	parents := int64(len(s.tables[target.Table]))
	var n int64
	for _, row := range s.tables[e.Table] {
		ref, ok := row.Values[column].(int64)
		if !ok {
			continue
		}
		if ref < 1 || ref > parents {
			n++
		}
	}
	return n, nil
}

// Rows returns a copy of every row stored for e.
func (s *Store) Rows(e *schema.Entity) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, len(s.tables[e.Table]))
	copy(rows, s.tables[e.Table])
	return rows
}

// Get returns the row of e with the given id.
func (s *Store) Get(e *schema.Entity, id int64) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[e.Table]
	if id < 1 || id > int64(len(rows)) {
		return Row{}, false
	}
	return rows[id-1], true
}

// Lookup returns the requested columns of the row of e with the given id.
func (s *Store) Lookup(ctx context.Context, e *schema.Entity, id int64, columns []string) (schema.Values, bool, error) {
	for _, col := range columns {
		if err := common.ValidateColumn(e, col); err != nil {
			return nil, false, err
		}
	}
	row, ok := s.Get(e, id)
	if !ok {
		return nil, false, nil
	}
	out := make(schema.Values, len(columns))
	for _, col := range columns {
		out[col] = row.Values[col]
	}
	return out, true, nil
}

// Log returns inserts in the order they happened.
func (s *Store) Log() []Insert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Insert(nil), s.log...)
}

var displayDialect = common.Dialect{
	Name:       "memory",
	Quote:      common.DoubleQuote,
	PrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	ForeignKey: "INTEGER",
	Types: map[schema.Kind]string{
		schema.KindString:    "TEXT",
		schema.KindText:      "TEXT",
		schema.KindEnum:      "TEXT",
		schema.KindBool:      "BOOLEAN",
		schema.KindTimestamp: "DATETIME",
	},
}
