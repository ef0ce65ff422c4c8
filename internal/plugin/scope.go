package plugin

import (
	"fmt"
	"strings"
)

// Scope controls the lifetime of instances produced by a registry's
// factories.
type Scope int

const (
	// ScopeShared caches the first instance built for a name and returns it
	// on every later Resolve call without options.
	ScopeShared Scope = iota

	// ScopePerCall invokes the factory on every Resolve call.
	ScopePerCall
)

// Scope names accepted by ParseScope.
const (
	ScopeNameShared  = "shared"
	ScopeNamePerCall = "per-call"
)

func (s Scope) String() string {
	switch s {
	case ScopeShared:
		return ScopeNameShared
	case ScopePerCall:
		return ScopeNamePerCall
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope converts a configuration value into a Scope. The empty string
// selects ScopeShared.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ScopeNameShared:
		return ScopeShared, nil
	case ScopeNamePerCall, "per_call", "percall":
		return ScopePerCall, nil
	default:
		return ScopeShared, fmt.Errorf("invalid plugin scope %q: must be one of %s, %s", s, ScopeNameShared, ScopeNamePerCall)
	}
}
