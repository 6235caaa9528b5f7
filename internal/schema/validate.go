package schema

import (
	"fmt"
	"slices"
)

// ValidationError reports a declaration problem found before any write happens.
type ValidationError struct {
	Entity string
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema validation: %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("schema validation: %s.%s: %s", e.Entity, e.Column, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate checks identifiers, column uniqueness, relation targets, pins and derivations.
func (s *Schema) Validate() error {
	if len(s.order) == 0 {
		return &ValidationError{Entity: "<schema>", Reason: "no entities declared"}
	}

	for _, e := range s.Entities() {
		if !IsValidIdentifier(e.Table) {
			return &ValidationError{Entity: e.Name, Reason: fmt.Sprintf("invalid table name %q", e.Table)}
		}

		seen := map[string]bool{"id": true}
		for _, col := range e.Columns() {
			if !IsValidIdentifier(col) {
				return &ValidationError{Entity: e.Name, Column: col, Reason: "invalid column name"}
			}
			if seen[col] {
				return &ValidationError{Entity: e.Name, Column: col, Reason: "duplicate column"}
			}
			seen[col] = true
		}

		for _, f := range e.Fields {
			if f.Kind == KindEnum && len(f.Values) == 0 && f.Default == nil {
				return &ValidationError{Entity: e.Name, Column: f.Name, Reason: "enum field without allowed values"}
			}
		}

		for _, r := range e.Relations {
			if err := s.validateRelation(e, r); err != nil {
				return err
			}
		}

		for _, d := range e.Derivations {
			if _, ok := e.Field(d.Field); !ok {
				return &ValidationError{Entity: e.Name, Column: d.Field, Reason: "derivation targets an undeclared field"}
			}
			if d.From != "" {
				if _, ok := e.Field(d.From); !ok {
					return &ValidationError{Entity: e.Name, Column: d.Field, Reason: fmt.Sprintf("derivation reads undeclared field %q", d.From)}
				}
			}
			if d.Fn == nil {
				return &ValidationError{Entity: e.Name, Column: d.Field, Reason: "derivation without a function"}
			}
		}
	}
	return nil
}

func (s *Schema) validateRelation(e *Entity, r Relation) error {
	target, ok := s.entities[r.Target]
	if !ok {
		return &ValidationError{Entity: e.Name, Column: r.Column, Reason: fmt.Sprintf("references undeclared entity %q", r.Target)}
	}
	for name, value := range r.Pins {
		f, ok := target.Field(name)
		if !ok {
			return &ValidationError{Entity: e.Name, Column: r.Column, Reason: fmt.Sprintf("pin %q is not a field of %s", name, target.Name)}
		}
		if f.Kind == KindEnum {
			str, isString := value.(string)
			if !isString || !slices.Contains(f.Values, str) {
				return &ValidationError{Entity: e.Name, Column: r.Column, Reason: fmt.Sprintf("pin %s=%v is outside %v", name, value, f.Values)}
			}
		}
	}
	return nil
}
