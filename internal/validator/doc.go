// Package validator implements value validators for input filter pipelines.
//
// A [Validator] reports whether a value is valid and, after a failed check,
// the messages describing why. A [Chain] runs resolved validators in
// priority order and collects their messages; entries flagged with
// BreakChainOnFailure stop the chain after they fail. [NewManager] returns a
// plugin registry pre-populated with the builtin validators.
package validator
