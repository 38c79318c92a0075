package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrSpaceNotFound     = fmt.Errorf("%w: search space", ErrNotFound)
	ErrParameterNotFound = fmt.Errorf("%w: parameter", ErrNotFound)

	// Definition errors (rejected at the point of mutation; never partially applied)
	ErrDefinition         = errors.New("invalid search space definition")
	ErrDuplicateParameter = fmt.Errorf("%w: duplicate parameter name", ErrDefinition)
	ErrUnknownParameter   = fmt.Errorf("%w: constraint references unknown parameter", ErrDefinition)
	ErrParameterDiverged  = fmt.Errorf("%w: constraint parameter definition diverges from search space", ErrDefinition)

	// Membership errors
	ErrDomainViolation     = errors.New("value outside parameter domain")
	ErrConstraintViolation = errors.New("parameter constraint violated")
	ErrMissingParameters   = errors.New("parameterization does not cover search space")

	// Structural errors (hierarchical spaces; unrecoverable at construction)
	ErrStructural          = errors.New("invalid hierarchical structure")
	ErrNoRoot              = fmt.Errorf("%w: no single root parameter", ErrStructural)
	ErrOverlappingSubtrees = fmt.Errorf("%w: overlapping subtrees", ErrStructural)
	ErrUnreachable         = fmt.Errorf("%w: unreachable parameters", ErrStructural)

	// Configuration-level errors
	ErrUnsupported  = errors.New("unsupported operation")
	ErrTypeMismatch = errors.New("parameter value type mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewDefinitionError(subject string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDefinition, subject, reason)
}

func NewDomainViolationError(name string, value interface{}) error {
	return fmt.Errorf("%w: %v is not a valid value for parameter %s", ErrDomainViolation, value, name)
}

func NewConstraintViolationError(constraint string) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, constraint)
}

func NewUnsupportedError(operation string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnsupported, operation, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDefinitionError(err error) bool {
	return errors.Is(err, ErrDefinition)
}

func IsMembershipError(err error) bool {
	return errors.Is(err, ErrDomainViolation) ||
		errors.Is(err, ErrConstraintViolation) ||
		errors.Is(err, ErrMissingParameters)
}

func IsStructuralError(err error) bool {
	return errors.Is(err, ErrStructural)
}

func IsUnsupportedError(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
