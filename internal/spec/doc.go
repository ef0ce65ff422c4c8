// Package spec parses declarative input filter specs into typed values.
//
// Specs arrive as generic configuration values: *maputil.OrderedMap when
// they come from the YAML loader, plain map[string]any, or []any lists of
// field mappings. [Parse] validates the whole tree at once and reports every
// problem as a k8s field error whose path points at the offending key, for
// example:
//
//	input_filter_specs.signup.email.filters[0].name: Required value
package spec
