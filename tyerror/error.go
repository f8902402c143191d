// Package tyerror defines TyError, the structured error produced by the type system in
// package types. A TyError carries enough context (kind, offending value, pattern name,
// and path) to be rendered into the stable human-readable form required by spec.md §6, while
// still composing with the standard library's error wrapping via errors.Is/errors.As.
package tyerror

import "fmt"

// Kind tags the category of failure, per spec.md §7. These are tags, not type names.
type Kind string

const (
	Mistaken   Kind = "mistaken"   // value shape does not match pattern
	Dirty      Kind = "dirty"      // strict-mode length/key mismatch
	Missing    Kind = "missing"    // required-present predicate fails
	Overflow   Kind = "overflow"   // value present where it should not be
	Exception  Kind = "exception" // user predicate or validator rejected
	Unexcepted Kind = "unexcepted" // bounds/range violation
	Locked     Kind = "locked"     // write refused: model is locked
	Disabled   Kind = "disabled"   // write refused: field is disabled
	Readonly   Kind = "readonly"   // write refused: field is readonly
	Compute    Kind = "compute"    // write refused: field is computed
)

// TyError is the structured error type produced by Type.Assert and consumed by
// Type.Catch. Its Path records the key/index chain from the root value down to the
// sub-location where the mismatch occurred; Cause nests a child TyError when the failure
// originated deeper in a composite pattern.
type TyError struct {
	Kind    Kind
	Value   any
	Pattern string // human name of the pattern that rejected Value
	Name    string // optional field/binding name, when known
	Path    []any  // keys/indices from root to the offending sub-location
	Cause   error
}

// New constructs a TyError with no path; callers typically extend Path via WithPath as the
// error propagates back up through nested asserts.
func New(kind Kind, value any, pattern string) *TyError {
	return &TyError{Kind: kind, Value: value, Pattern: pattern}
}

// Wrap constructs a TyError whose Cause is the given child error, used when a composite
// pattern (Dict, List, Tuple, ...) fails because one of its members failed.
func Wrap(kind Kind, value any, pattern string, cause error) *TyError {
	return &TyError{Kind: kind, Value: value, Pattern: pattern, Cause: cause}
}

// WithPath returns a copy of e with seg prepended to its Path, used as a TyError bubbles
// up through nested structural asserts so the root error's Path reads root-to-leaf.
func (e *TyError) WithPath(seg any) *TyError {
	cp := *e
	cp.Path = append([]any{seg}, e.Path...)
	return &cp
}

// Error implements the standard error interface, rendering the stable human-readable form
// documented in spec.md §6: "<kind>: value <repr> does not match <pattern name> at <path>".
func (e *TyError) Error() string {
	path := "<root>"
	if len(e.Path) > 0 {
		path = fmt.Sprint(e.Path[0])
		for _, seg := range e.Path[1:] {
			path += fmt.Sprintf(".%v", seg)
		}
	}
	msg := fmt.Sprintf("%s: value %#v does not match %s at %s", e.Kind, e.Value, e.Pattern, path)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %s", e.Cause.Error())
	}
	return msg
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *TyError) Unwrap() error {
	return e.Cause
}
