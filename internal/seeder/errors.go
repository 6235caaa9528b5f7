package seeder

import (
	"fmt"
	"strings"

	"github.com/Rana718/botseed/internal/schema"
)

// ErrSchemaValidation is matched by every error raised before the first write:
// invalid declarations, required-relation cycles and malformed plans.
var ErrSchemaValidation = schema.ErrInvalid

type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " → "))
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// PlanError reports a population plan that cannot be executed against the schema.
type PlanError struct {
	Entity string
	Reason string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("invalid plan for %s: %s", e.Entity, e.Reason)
}

func (e *PlanError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// UnsatisfiableRelationError is returned when a required relation has no
// instance to reference and none may be created.
type UnsatisfiableRelationError struct {
	Entity string
	Column string
	Target string
	Reason string
}

func (e *UnsatisfiableRelationError) Error() string {
	return fmt.Sprintf("cannot resolve %s.%s → %s: %s", e.Entity, e.Column, e.Target, e.Reason)
}

// ValueProviderError wraps a failure to produce a scalar value.
type ValueProviderError struct {
	Hint string
	Err  error
}

func (e *ValueProviderError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("value provider: %v", e.Err)
	}
	return fmt.Sprintf("value provider (%s): %v", e.Hint, e.Err)
}

func (e *ValueProviderError) Unwrap() error {
	return e.Err
}

// OverrideError rejects an override the schema cannot store as given.
type OverrideError struct {
	Entity string
	Column string
	Reason string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("invalid override %s.%s: %s", e.Entity, e.Column, e.Reason)
}
