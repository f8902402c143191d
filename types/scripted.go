package types

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/kowalski-labs/tyshemo/tyerror"
)

// Lambda builds a Rule whose predicate is a JavaScript expression evaluated with goja, per
// spec.md §3's "a rule backed by an arbitrary scripted predicate" combinator. The script
// sees `value`, `data`, and `key` as globals and must evaluate to a truthy/falsy result; a
// thrown script exception is reported as a tyerror.Exception rather than propagated as a Go
// panic, since a malformed rule script is a data problem, not a programming error.
//
// Each call to the returned Rule's check spins up a fresh *goja.Runtime. This trades some
// throughput for safety: goja.Runtime is not safe for concurrent use, and rules may be
// invoked concurrently from multiple models sharing the same schema.
func Lambda(expr string) *Rule {
	return newRule("lambda", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		vm := goja.New()
		if err := vm.Set("value", value); err != nil {
			return tyerror.Wrap(tyerror.Exception, value, "lambda", err)
		}
		if err := vm.Set("data", ctx.Data); err != nil {
			return tyerror.Wrap(tyerror.Exception, value, "lambda", err)
		}
		if err := vm.Set("key", ctx.Key); err != nil {
			return tyerror.Wrap(tyerror.Exception, value, "lambda", err)
		}

		result, err := vm.RunString(expr)
		if err != nil {
			return tyerror.Wrap(tyerror.Exception, value, "lambda", fmt.Errorf("lambda script: %w", err))
		}
		if result.ToBoolean() {
			return nil
		}
		return tyerror.New(tyerror.Exception, value, "lambda")
	})
}
