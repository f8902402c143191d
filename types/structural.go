package types

import "fmt"

// tupleLiteral marks a []any pattern as positional regardless of its length, so a
// single-element Tuple() is never confused with a single-element List(): a bare []any
// pattern is ambiguous (matchPattern treats length 1 as List), but Tuple always wraps its
// arguments in tupleLiteral before returning, sidestepping the ambiguity entirely.
type tupleLiteral []any

// enumLiteral matches when value matches ANY of its member patterns, per spec.md §3's Enum
// combinator ("one of a fixed set of alternatives").
type enumLiteral []any

// rangeLiteral bounds a numeric value between Min and Max, per spec.md §3's Range
// combinator. MinBound/MaxBound toggle whether each side is enforced, so Range can express
// open-ended bounds (">= Min" or "<= Max" alone).
type rangeLiteral struct {
	Min, Max         float64
	MinBound, MaxBound bool
}

// selfRefLiteral defers pattern resolution to match time via resolve, so a schema can
// reference itself (directly or through a cycle of Dict/List patterns) without resolve
// being called during construction, per the Design Notes' lazy-thunk requirement for
// cyclic schema references.
type selfRefLiteral struct {
	resolve func() Pattern
}

// Dict builds a Strict *Type over a field-name -> pattern map, per spec.md §3. Use
// (*Type).Loose() on the result to accept unknown keys.
func Dict(fields map[string]any) *Type {
	return New("Dict", fields)
}

// List builds a *Type requiring value to be a sequence whose every element matches elem,
// per spec.md §3.
func List(elem Pattern) *Type {
	return New("List", []any{elem})
}

// Tuple builds a *Type requiring value to be a sequence matched positionally against
// patterns. In Strict mode the sequence length must equal len(patterns); in Loose mode
// extra positions are ignored. Unlike a raw []any pattern, Tuple never collapses to List
// semantics regardless of how many patterns are given.
func Tuple(patterns ...Pattern) *Type {
	return New(fmt.Sprintf("Tuple(%d)", len(patterns)), tupleLiteral(patterns))
}

// Enum builds a *Type matching value against each of options in turn, succeeding if any
// one of them matches.
func Enum(options ...Pattern) *Type {
	return New("Enum", enumLiteral(options))
}

// RangeOpts configures Range's bounds. A zero-value bound (MinBound/MaxBound false) is not
// enforced, allowing one-sided ranges.
type RangeOpts struct {
	Min, Max           float64
	MinBound, MaxBound bool
}

// Range builds a *Type requiring value to be numeric and within [Min, Max] (inclusive),
// subject to which bounds opts enables. Non-numeric values fail with tyerror.Mistaken;
// out-of-bounds numeric values fail with tyerror.Unexcepted, per spec.md §7.
func Range(opts RangeOpts) *Type {
	return New("Range", rangeLiteral{
		Min: opts.Min, Max: opts.Max,
		MinBound: opts.MinBound, MaxBound: opts.MaxBound,
	})
}

// SelfRef builds a *Type whose pattern is resolved lazily, each time a match is attempted,
// by calling resolve. This lets a schema definition close over itself (for recursive
// structures such as trees) without resolve running before the enclosing pattern exists.
func SelfRef(resolve func() Pattern) *Type {
	return New("SelfRef", selfRefLiteral{resolve: resolve})
}
