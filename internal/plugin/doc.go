// Package plugin implements named plugin resolution for filters, validators,
// and input filters.
//
// The package is organized around two concerns:
//
//   - Resolution (registry.go): [Registry] maps names to factories or fixed
//     instances, caches instances according to its [Scope], falls back to an
//     optional parent [Resolver], and finally consults an ordered list of
//     [AbstractFactory] strategies before failing with [PluginNotFoundError].
//
//   - Chains (chain.go): [BuildChain] turns a sequence of [Spec] values into a
//     priority-ordered [Chain] that remembers the resolver that produced it.
package plugin
