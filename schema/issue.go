package schema

import "github.com/kowalski-labs/tyshemo/tyerror"

// Issue is one failed validation against a single field, per spec.md §4.3's array-returning
// validate("validate(key, value, ctx): returns an array") and §8 scenario 2's
// [{key:'name', at:0, message:'too long'}] shape. At is the index of the failing entry in
// fd.Validators, or -1 when the failure came from Required or Type rather than a validator.
type Issue struct {
	Key     string
	At      int
	Message string
	Err     *tyerror.TyError
}

// Error renders Issue's message, satisfying the error interface so an Issue (or the first
// of a slice) can be returned directly from a single-value API like Schema.Set.
func (i Issue) Error() string {
	return i.Message
}
