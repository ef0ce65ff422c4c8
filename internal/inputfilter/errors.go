package inputfilter

import (
	"errors"
	"fmt"
)

// ErrServiceNotCreatable is matched by every *ServiceNotCreatableError.
var ErrServiceNotCreatable = errors.New("service not creatable")

// ServiceNotCreatableError is returned when the abstract factory is asked to
// create a name it cannot create.
type ServiceNotCreatableError struct {
	Name   string
	Reason string
}

// Error implements error.
func (e *ServiceNotCreatableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("input filter %q cannot be created", e.Name)
	}

	return fmt.Sprintf("input filter %q cannot be created: %s", e.Name, e.Reason)
}

// Is makes errors.Is(err, ErrServiceNotCreatable) succeed.
func (e *ServiceNotCreatableError) Is(target error) bool {
	return target == ErrServiceNotCreatable
}
