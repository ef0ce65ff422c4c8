// Package output renders built input filters and validation results for the
// command line.
//
//   - Formats (registry.go, serializer.go): yaml, json and toml encoders
//     behind a name-keyed [Registry] with deterministic key ordering.
//
//   - Describe (describe.go): a serializable tree of a built input filter.
//
//   - Reports (report.go): validation findings collected from a validated
//     input filter and the submitted data.
//
//   - Diffs (diff.go): unified diffs between two renderings, used by watch.
//
//   - Writers (writer.go): stdout and file destinations.
package output
