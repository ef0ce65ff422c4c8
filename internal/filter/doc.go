// Package filter implements value filters for input filter pipelines. It
// supports trimming, case folding, numeric and boolean casts, null
// conversion, and pattern replacement.
//
// The package is built around the [Filter] interface and the [Chain] type,
// which applies resolved filters in priority order. [NewManager] returns a
// plugin registry pre-populated with the builtin filters.
package filter
