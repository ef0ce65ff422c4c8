package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/maputil"
)

// ValidationSeverity indicates the severity of a validation finding.
type ValidationSeverity int

const (
	// SeverityError marks an input that failed validation.
	SeverityError ValidationSeverity = iota
	// SeverityWarning marks submitted data the input filter ignores.
	SeverityWarning
)

// String returns the severity name.
func (s ValidationSeverity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// ValidationFinding is a single validation issue.
type ValidationFinding struct {
	Severity ValidationSeverity
	Field    string
	Message  string
}

// Error implements the error interface.
func (f *ValidationFinding) Error() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Field, f.Message)
}

// ValidationResult holds all findings from a validation run.
type ValidationResult struct {
	Findings []ValidationFinding
}

// Errors returns only error-severity findings.
func (r *ValidationResult) Errors() []ValidationFinding {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity findings.
func (r *ValidationResult) Warnings() []ValidationFinding {
	return r.filter(SeverityWarning)
}

// HasErrors returns true if any error-severity findings exist.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors()) > 0
}

// HasWarnings returns true if any warning-severity findings exist.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings()) > 0
}

func (r *ValidationResult) filter(s ValidationSeverity) []ValidationFinding {
	var result []ValidationFinding

	for _, f := range r.Findings {
		if f.Severity == s {
			result = append(result, f)
		}
	}

	return result
}

// Report collects the findings of the last IsValid call on f. Messages of
// invalid inputs become errors in declaration order; keys of data that no
// entry declares become warnings.
func Report(f *inputfilter.InputFilter, data map[string]any) *ValidationResult {
	r := &reporter{}
	r.walk("", f, data)

	return &r.result
}

type reporter struct {
	result ValidationResult
}

func (r *reporter) add(severity ValidationSeverity, field, msg string) {
	r.result.Findings = append(r.result.Findings, ValidationFinding{
		Severity: severity,
		Field:    field,
		Message:  msg,
	})
}

func (r *reporter) walk(prefix string, f *inputfilter.InputFilter, data map[string]any) {
	invalid := make(map[string]bool)
	for _, name := range f.InvalidInputs() {
		invalid[name] = true
	}

	for _, name := range f.Names() {
		fieldPath := joinPath(prefix, name)
		e, _ := f.Get(name)

		switch entry := e.(type) {
		case *inputfilter.Input:
			if !invalid[name] {
				continue
			}

			for _, msg := range entry.Messages() {
				r.add(SeverityError, fieldPath, msg)
			}
		case *inputfilter.InputFilter:
			nested, _ := maputil.ToPlain(data[name]).(map[string]any)
			r.walk(fieldPath, entry, nested)
		}
	}

	unknown := make([]string, 0)

	for key := range data {
		if !f.Has(key) {
			unknown = append(unknown, key)
		}
	}

	sort.Strings(unknown)

	for _, key := range unknown {
		r.add(SeverityWarning, joinPath(prefix, key), "not declared by the input filter; ignored")
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

// FormatValidationResult returns a human-readable string of all findings.
func FormatValidationResult(result *ValidationResult) string {
	if len(result.Findings) == 0 {
		return "Validation passed: no issues found."
	}

	var sb strings.Builder

	errors := result.Errors()
	warnings := result.Warnings()

	if len(errors) > 0 {
		_, _ = fmt.Fprintf(&sb, "Errors (%d):\n", len(errors))

		for _, f := range errors {
			_, _ = fmt.Fprintf(&sb, "  - %s: %s\n", f.Field, f.Message)
		}
	}

	if len(warnings) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}

		_, _ = fmt.Fprintf(&sb, "Warnings (%d):\n", len(warnings))

		for _, f := range warnings {
			_, _ = fmt.Fprintf(&sb, "  - %s: %s\n", f.Field, f.Message)
		}
	}

	return sb.String()
}
