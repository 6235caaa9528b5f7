package schema

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// validIdentifier validates SQL identifiers (table/column names) before they reach DDL or inserts
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ErrInvalid is matched by every schema validation failure.
var ErrInvalid = errors.New("invalid schema")

type Kind int

const (
	KindString Kind = iota
	KindText
	KindBool
	KindTimestamp
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Values holds column values of one record, keyed by column name.
type Values map[string]any

type Field struct {
	Name     string
	Kind     Kind
	Hint     string   // domain hint passed to the value provider
	Values   []string // allowed set for KindEnum
	Cycle    bool     // iterate Values in declaration order instead of sampling
	Default  any      // constant value, the value provider is not consulted
	Nullable bool
}

// Relation is a foreign key column pointing at the id of another entity.
// Pins constrain which instances of the target may be referenced and are
// applied as overrides when a fresh target has to be created.
type Relation struct {
	Column   string
	Target   string
	Optional bool
	Pins     Values
}

// Window is a closed time range used for timestamp sampling.
type Window struct {
	From time.Time
	To   time.Time
}

// Sampler is the part of the value provider a derivation may use.
type Sampler interface {
	RandomTimestamp(w Window) (time.Time, error)
	Now() time.Time
}

// DeriveFunc computes a field from sibling values that are already assigned.
type DeriveFunc func(v Values, s Sampler) (any, error)

type Derivation struct {
	Field string
	From  string
	Fn    DeriveFunc
}

type Entity struct {
	Name        string
	Table       string
	Fields      []Field
	Relations   []Relation
	Derivations []Derivation
}

func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (e *Entity) Relation(column string) (Relation, bool) {
	for _, r := range e.Relations {
		if r.Column == column {
			return r, true
		}
	}
	return Relation{}, false
}

// RelationsTo returns the relations of e that reference target.
func (e *Entity) RelationsTo(target string) []Relation {
	var out []Relation
	for _, r := range e.Relations {
		if r.Target == target {
			out = append(out, r)
		}
	}
	return out
}

func (e *Entity) Derivation(field string) (Derivation, bool) {
	for _, d := range e.Derivations {
		if d.Field == field {
			return d, true
		}
	}
	return Derivation{}, false
}

// Columns lists relation columns followed by scalar columns. The id column is not included.
func (e *Entity) Columns() []string {
	cols := make([]string, 0, len(e.Relations)+len(e.Fields))
	for _, r := range e.Relations {
		cols = append(cols, r.Column)
	}
	for _, f := range e.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Schema is an ordered set of entity declarations.
type Schema struct {
	entities map[string]*Entity
	order    []string
}

func New(entities ...*Entity) *Schema {
	s := &Schema{entities: make(map[string]*Entity)}
	for _, e := range entities {
		s.Add(e)
	}
	return s
}

// Add registers e, replacing an earlier declaration with the same name.
func (s *Schema) Add(e *Entity) {
	if _, exists := s.entities[e.Name]; !exists {
		s.order = append(s.order, e.Name)
	}
	s.entities[e.Name] = e
}

func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Entities returns the declarations in the order they were added.
func (s *Schema) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entities[name])
	}
	return out
}

func (s *Schema) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsValidIdentifier checks if a string is a valid SQL identifier
func IsValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}
