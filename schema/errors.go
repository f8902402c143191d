package schema

import "github.com/kowalski-labs/tyshemo/tyerror"

// ErrorHandler receives every error produced while evaluating a schema's meta (Get/Set/
// Validate/Parse/Export), the centralized routing point spec.md §7 calls for instead of
// every caller threading its own error handling. Model does not install one on its schema; it
// reports through its own onError hook instead.
type ErrorHandler func(err *tyerror.TyError)

// tryEval runs fn and, on a *tyerror.TyError result, routes it through handler before
// returning it to the caller. handler may be nil, in which case this is a passthrough.
func tryEval(handler ErrorHandler, fn func() error) error {
	return route(handler, fn())
}

// route sends err through handler, if both are non-nil, before returning it unchanged.
// Used at call sites that already have a computed error in hand (Schema.Get/Set/Validate),
// where wrapping the call in a func() error closure just to use tryEval would be noise.
func route(handler ErrorHandler, err error) error {
	if err == nil {
		return nil
	}
	if tyErr, ok := err.(*tyerror.TyError); ok && handler != nil {
		handler(tyErr)
	}
	return err
}

// reportFieldError routes err (if non-nil) through fd's own Catch hook, if any, and then
// through the schema-wide OnError sink, per spec.md §3's FieldDef.Catch entry: a field's own
// handler sees its errors first, then the error still bubbles to the schema-wide sink.
func (s *Schema) reportFieldError(fd *FieldDef, err *tyerror.TyError) *tyerror.TyError {
	if err == nil {
		return nil
	}
	if fd != nil {
		fd.runCatch(err)
	}
	route(s.OnError, err)
	return err
}

// safeInvoke runs fn and recovers any panic into a tyerror.Exception instead of letting it
// crash the caller, per spec.md §4.3/§7's error-routing contract: "any meta invocation"
// (a user-supplied Get/Set/Compute hook, in this helper's case) is caught at the schema
// boundary rather than propagating as a runtime panic.
func safeInvoke(pattern, key string, fn func() any) (result any, err *tyerror.TyError) {
	defer func() {
		if r := recover(); r != nil {
			err = tyerror.New(tyerror.Exception, r, pattern).WithPath(key)
		}
	}()
	return fn(), nil
}

// safeCatch is safeInvoke's counterpart for callers that already produce a *tyerror.TyError
// on failure (Type/Validator checks via types.CatchIn), recovering a panic from anywhere in
// the pattern-matching tree — including a user-supplied Rule.Validate/Lambda hook — into the
// same Exception shape instead of crashing the caller.
func safeCatch(pattern, key string, fn func() *tyerror.TyError) (err *tyerror.TyError) {
	defer func() {
		if r := recover(); r != nil {
			err = tyerror.New(tyerror.Exception, r, pattern).WithPath(key)
		}
	}()
	return fn()
}
