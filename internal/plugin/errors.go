package plugin

import (
	"errors"
	"fmt"
)

// ErrPluginNotFound is the sentinel matched by every [PluginNotFoundError].
var ErrPluginNotFound = errors.New("plugin not found")

// PluginNotFoundError reports a name that could not be resolved through the
// full fallback chain of a registry.
type PluginNotFoundError struct {
	// Name is the name as requested by the caller.
	Name string
	// Registry is the name of the registry that was asked.
	Registry string
}

func (e *PluginNotFoundError) Error() string {
	if e.Registry == "" {
		return fmt.Sprintf("plugin %q not found", e.Name)
	}

	return fmt.Sprintf("plugin %q not found in %s", e.Name, e.Registry)
}

// Is reports whether target is ErrPluginNotFound.
func (e *PluginNotFoundError) Is(target error) bool {
	return target == ErrPluginNotFound
}

// IsNotFound reports whether err is or wraps a PluginNotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPluginNotFound)
}
