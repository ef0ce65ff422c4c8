package spec

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ErrInvalidSpec is matched by every *InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid input filter spec")

// InvalidSpecError reports one or more structural problems of a spec.
type InvalidSpecError struct {
	Errs field.ErrorList
}

// Error implements error.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSpec, e.Errs.ToAggregate())
}

// Is makes errors.Is(err, ErrInvalidSpec) succeed.
func (e *InvalidSpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// NewInvalidSpecError wraps errs, or returns nil when errs is empty.
func NewInvalidSpecError(errs field.ErrorList) error {
	if len(errs) == 0 {
		return nil
	}

	return &InvalidSpecError{Errs: errs}
}
