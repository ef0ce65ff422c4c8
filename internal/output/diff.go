package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffResult holds the result of a unified diff computation.
type DiffResult struct {
	Unified        string
	HasDifferences bool
	Hunks          []string
	OldLabel       string
	NewLabel       string
}

// DiffOptions configures diff computation.
type DiffOptions struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultDiffOptions returns the labels used between two reloads.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		OldLabel: "previous",
		NewLabel: "current",
		Context:  3,
	}
}

// ComputeDiff computes a unified diff between two renderings.
func ComputeDiff(oldDoc, newDoc string, opts DiffOptions) (*DiffResult, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	result := &DiffResult{
		Unified:        unified,
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}

	if result.HasDifferences {
		result.Hunks = extractHunks(unified)
	}

	return result, nil
}

// extractHunks splits unified diff output into hunks. The file header is
// part of the first hunk.
func extractHunks(unified string) []string {
	var (
		hunks   []string
		current strings.Builder
	)

	for _, line := range strings.Split(strings.TrimSuffix(unified, "\n"), "\n") {
		if strings.HasPrefix(line, "@@") && strings.Contains(current.String(), "@@") {
			hunks = append(hunks, current.String())
			current.Reset()
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		hunks = append(hunks, current.String())
	}

	return hunks
}

// WriteDiff writes a formatted diff with optional ANSI colors.
func WriteDiff(w io.Writer, result *DiffResult, color bool) {
	if !result.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(result.Unified, "\n"), "\n") {
		if color {
			writeColorLine(w, line)
		} else {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}

func writeColorLine(w io.Writer, line string) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		_, _ = fmt.Fprintf(w, "%s%s%s\n", bold, line, reset)
	case strings.HasPrefix(line, "@@"):
		_, _ = fmt.Fprintf(w, "%s%s%s\n", cyan, line, reset)
	case strings.HasPrefix(line, "-"):
		_, _ = fmt.Fprintf(w, "%s%s%s\n", red, line, reset)
	case strings.HasPrefix(line, "+"):
		_, _ = fmt.Fprintf(w, "%s%s%s\n", green, line, reset)
	default:
		_, _ = fmt.Fprintln(w, line)
	}
}

// Kinds of EntryDiff.
const (
	EntryAdded   = "added"
	EntryRemoved = "removed"
	EntryChanged = "changed"
)

// EntryDiff is the difference of one input between two descriptions.
type EntryDiff struct {
	// Path is the dotted entry path, e.g. "address.city".
	Path string

	// Kind is EntryAdded, EntryRemoved or EntryChanged.
	Kind string

	// Result is the unified diff of the entry's YAML rendering.
	Result *DiffResult
}

// DiffDescriptions compares two Describe trees input by input. Nested input
// filters are flattened into dotted paths. Changed and added entries follow
// the order of curr; removed entries come last in the order of prev.
func DiffDescriptions(prev, curr map[string]any, opts DiffOptions) ([]EntryDiff, error) {
	before, err := renderEntries(prev)
	if err != nil {
		return nil, err
	}

	after, err := renderEntries(curr)
	if err != nil {
		return nil, err
	}

	old := make(map[string]string, len(before))
	for _, e := range before {
		old[e.path] = e.rendering
	}

	var (
		diffs []EntryDiff
		seen  = make(map[string]bool, len(after))
	)

	for _, e := range after {
		seen[e.path] = true

		prevRendering, existed := old[e.path]
		if existed && prevRendering == e.rendering {
			continue
		}

		kind := EntryChanged
		if !existed {
			kind = EntryAdded
		}

		d, err := entryDiff(e.path, kind, prevRendering, e.rendering, opts)
		if err != nil {
			return nil, err
		}

		diffs = append(diffs, d)
	}

	for _, e := range before {
		if seen[e.path] {
			continue
		}

		d, err := entryDiff(e.path, EntryRemoved, e.rendering, "", opts)
		if err != nil {
			return nil, err
		}

		diffs = append(diffs, d)
	}

	return diffs, nil
}

// WriteEntryDiffs writes one marker line per entry followed by its diff.
func WriteEntryDiffs(w io.Writer, diffs []EntryDiff, color bool) {
	if len(diffs) == 0 {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	markers := map[string]string{EntryAdded: "+", EntryRemoved: "-", EntryChanged: "~"}

	for _, d := range diffs {
		_, _ = fmt.Fprintf(w, "%s %s (%s)\n", markers[d.Kind], d.Path, d.Kind)
		WriteDiff(w, d.Result, color)
	}
}

func entryDiff(path, kind, before, after string, opts DiffOptions) (EntryDiff, error) {
	entryOpts := opts
	entryOpts.OldLabel = opts.OldLabel + "/" + path
	entryOpts.NewLabel = opts.NewLabel + "/" + path

	result, err := ComputeDiff(before, after, entryOpts)
	if err != nil {
		return EntryDiff{}, fmt.Errorf("input %s: %w", path, err)
	}

	return EntryDiff{Path: path, Kind: kind, Result: result}, nil
}

type renderedEntry struct {
	path      string
	rendering string
}

// renderEntries serializes every leaf input of a description.
func renderEntries(d map[string]any) ([]renderedEntry, error) {
	var out []renderedEntry

	var walk func(prefix string, d map[string]any) error

	walk = func(prefix string, d map[string]any) error {
		inputs, _ := d["inputs"].([]any)

		for _, raw := range inputs {
			e, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			name, _ := e["name"].(string)

			path := name
			if prefix != "" {
				path = prefix + "." + name
			}

			if e["type"] == "input_filter" {
				if err := walk(path, e); err != nil {
					return err
				}

				continue
			}

			data, err := SerializeYAML(e)
			if err != nil {
				return fmt.Errorf("rendering input %s: %w", path, err)
			}

			out = append(out, renderedEntry{path: path, rendering: string(data)})
		}

		return nil
	}

	if err := walk("", d); err != nil {
		return nil, err
	}

	return out, nil
}

// splitLines keeps line terminators, which difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
