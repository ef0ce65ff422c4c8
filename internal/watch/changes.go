package watch

import (
	"fmt"
	"sort"
	"strings"
)

// Change kinds.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeChanged = "changed"
)

// Change describes one input filter that differs between two consecutive
// builds.
type Change struct {
	// Kind is one of ChangeAdded, ChangeRemoved, or ChangeChanged.
	Kind string
	// Service is the input filter name.
	Service string
}

// Diff compares two sets of renderings keyed by service name. Changes are
// sorted by service name.
func Diff(prev, curr map[string]string) []Change {
	var changes []Change

	for name := range prev {
		if _, ok := curr[name]; !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, Service: name})
		}
	}

	for name, c := range curr {
		p, existed := prev[name]

		switch {
		case !existed:
			changes = append(changes, Change{Kind: ChangeAdded, Service: name})
		case p != c:
			changes = append(changes, Change{Kind: ChangeChanged, Service: name})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Service < changes[j].Service
	})

	return changes
}

// Summary returns a human-readable one-line summary.
func Summary(changes []Change) string {
	var added, removed, changed int

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeChanged:
			changed++
		}
	}

	if added == 0 && removed == 0 && changed == 0 {
		return "no changes"
	}

	parts := make([]string, 0, 3)

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d input filter(s) added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d input filter(s) removed", removed))
	}

	if changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d input filter(s) changed", changed))
	}

	return strings.Join(parts, ", ")
}
