package types

import (
	"fmt"
	"reflect"

	"github.com/kowalski-labs/tyshemo/tyerror"
)

// Rule is a first-class conditional/combinator pattern, per spec.md §3/§4.2. It runs in a
// (data, key) idiom because its hooks frequently depend on sibling fields: ShouldCheck
// gates whether the rule applies at all, Use resolves a pattern dynamically, Validate is a
// custom predicate independent of structural matching, and Override/Decorate let the rule
// mutate the owning record on mismatch/match respectively.
type Rule struct {
	RuleName string

	ShouldCheck func(data any, key string) bool
	Use         func(data any, key string) Pattern
	Validate    func(data any, key string, pattern Pattern) any // bool | error | nil
	Override    func(data any, key string)
	Decorate    func(data any, key string)
	Message     any // string or func(value any, key string, result any) string

	pattern Pattern                                                           // static pattern used when Use is nil
	matcher func(value any, ctx Context, mode Mode) *tyerror.TyError // built-in fast path
}

// Name returns the rule's display name, defaulting to "Rule" when unset.
func (r *Rule) Name() string {
	if r.RuleName != "" {
		return r.RuleName
	}
	return "Rule"
}

// check runs r against value in ctx/mode and returns the TyError on mismatch, or nil on
// match/skip. It is the Rule half of matchPattern's dispatch.
func (r *Rule) check(value any, ctx Context, mode Mode) *tyerror.TyError {
	if r.ShouldCheck != nil && !r.ShouldCheck(ctx.Data, ctx.Key) {
		return nil
	}

	if r.matcher != nil {
		if err := r.matcher(value, ctx, mode); err != nil {
			if r.Override != nil {
				r.Override(ctx.Data, ctx.Key)
			}
			return r.withMessage(err, value, ctx.Key, nil)
		}
		if r.Decorate != nil {
			r.Decorate(ctx.Data, ctx.Key)
		}
		return nil
	}

	pattern := r.pattern
	if r.Use != nil {
		pattern = r.Use(ctx.Data, ctx.Key)
	}

	if r.Validate != nil {
		result := r.Validate(ctx.Data, ctx.Key, pattern)
		if ok, passed := interpretResult(result); ok {
			if passed {
				if r.Decorate != nil {
					r.Decorate(ctx.Data, ctx.Key)
				}
				return nil
			}
			if r.Override != nil {
				r.Override(ctx.Data, ctx.Key)
			}
			return r.withMessage(tyerror.New(tyerror.Exception, value, r.Name()), value, ctx.Key, result)
		}
	}

	if pattern != nil {
		if err := matchPattern(pattern, value, ctx, mode, describePattern(pattern)); err != nil {
			if r.Override != nil {
				r.Override(ctx.Data, ctx.Key)
			}
			return r.withMessage(err, value, ctx.Key, nil)
		}
	}

	if r.Decorate != nil {
		r.Decorate(ctx.Data, ctx.Key)
	}
	return nil
}

// interpretResult maps a Rule.Validate return value (bool | error | nil) onto (handled,
// passed). handled is false when result isn't one of the recognized shapes, in which case
// the caller falls through to structural pattern matching instead.
func interpretResult(result any) (handled bool, passed bool) {
	switch v := result.(type) {
	case nil:
		return true, true
	case bool:
		return true, v
	case error:
		return true, false
	default:
		return false, false
	}
}

func (r *Rule) withMessage(err *tyerror.TyError, value any, key string, result any) *tyerror.TyError {
	if r.Message == nil {
		return err
	}
	switch m := r.Message.(type) {
	case string:
		err.Cause = fmt.Errorf("%s", m)
	case func(value any, key string, result any) string:
		err.Cause = fmt.Errorf("%s", m(value, key, result))
	}
	return err
}

func newRule(name string, pattern Pattern, matcher func(value any, ctx Context, mode Mode) *tyerror.TyError) *Rule {
	return &Rule{RuleName: name, pattern: pattern, matcher: matcher}
}

// IfExist passes when the field is absent from ctx.Data; when present, the value must
// match pattern.
func IfExist(pattern Pattern) *Rule {
	r := &Rule{RuleName: "ifexist", pattern: pattern}
	r.ShouldCheck = func(data any, key string) bool {
		return hasKey(data, key)
	}
	return r
}

// ShouldExist requires the field to be present in ctx.Data (independent of its value).
func ShouldExist() *Rule {
	return newRule("shouldexist", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if !hasKey(ctx.Data, ctx.Key) {
			return tyerror.New(tyerror.Missing, value, "shouldexist")
		}
		return nil
	})
}

// ShouldNotExist requires the field to be absent from ctx.Data.
func ShouldNotExist() *Rule {
	return newRule("shouldnotexist", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if hasKey(ctx.Data, ctx.Key) {
			return tyerror.New(tyerror.Overflow, value, "shouldnotexist")
		}
		return nil
	})
}

// IfMatch only enforces `then` when value already matches `cond`.
func IfMatch(cond Pattern, then Pattern) *Rule {
	return newRule("ifmatch", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if matchPattern(cond, value, ctx, mode, describePattern(cond)) != nil {
			return nil
		}
		return matchPattern(then, value, ctx, mode, describePattern(then))
	})
}

// IfNotMatch only enforces `then` when value does not match `cond`.
func IfNotMatch(cond Pattern, then Pattern) *Rule {
	return newRule("ifnotmatch", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if matchPattern(cond, value, ctx, mode, describePattern(cond)) == nil {
			return nil
		}
		return matchPattern(then, value, ctx, mode, describePattern(then))
	})
}

// Nullable matches either nil or pattern.
func Nullable(pattern Pattern) *Rule {
	return newRule("nullable", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if value == nil {
			return nil
		}
		return matchPattern(pattern, value, ctx, mode, describePattern(pattern))
	})
}

// Match is an explicit alias for a bare structural pattern used as a Rule, useful when a
// caller wants to attach Message/Override/Decorate hooks to an otherwise-plain pattern.
func Match(pattern Pattern) *Rule {
	return &Rule{RuleName: "match", pattern: pattern}
}

// ShouldMatch succeeds when fn reports true for the sibling data/key; it does not
// constrain value's shape.
func ShouldMatch(fn func(data any, key string) bool) *Rule {
	return newRule("shouldmatch", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if fn(ctx.Data, ctx.Key) {
			return nil
		}
		return tyerror.New(tyerror.Exception, value, "shouldmatch")
	})
}

// ShouldNotMatch succeeds when fn reports false for the sibling data/key.
func ShouldNotMatch(fn func(data any, key string) bool) *Rule {
	return newRule("shouldnotmatch", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if !fn(ctx.Data, ctx.Key) {
			return nil
		}
		return tyerror.New(tyerror.Exception, value, "shouldnotmatch")
	})
}

// Determine wraps an arbitrary (data,key)->bool predicate as a Rule that fails when it
// reports false,
// matching the FieldDef `determine` idiom used across required/readonly/disabled/
// validators (schema.Determine mirrors this at the field-meta level).
func Determine(fn func(data any, key string) bool) *Rule {
	return newRule("determine", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if fn(ctx.Data, ctx.Key) {
			return nil
		}
		return tyerror.New(tyerror.Exception, value, "determine")
	})
}

// Instance matches when value's concrete type is the same as a sample instance's type
// (the constructor analogue of JS's `instanceof`).
func Instance(sample any) *Rule {
	want := reflect.TypeOf(sample)
	return newRule("instance", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if value != nil && reflect.TypeOf(value) == want {
			return nil
		}
		return tyerror.New(tyerror.Mistaken, value, "instance")
	})
}

// Equal matches only the exact literal value.
func Equal(literal any) *Rule {
	return newRule("equal", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if reflect.DeepEqual(value, literal) {
			return nil
		}
		return tyerror.New(tyerror.Mistaken, value, "equal")
	})
}

// Asynch resolves its real pattern in the background via resolve, matching Any until the
// goroutine completes, per spec.md §5 ("validation before resolution uses the Any
// pattern"). Once the resolved pattern has been received, subsequent checks use it.
func Asynch(resolve func() Pattern) *Rule {
	resolved := make(chan Pattern, 1)
	go func() {
		resolved <- resolve()
	}()

	var cached Pattern
	var done bool

	return newRule("asynch", nil, func(value any, ctx Context, mode Mode) *tyerror.TyError {
		if !done {
			select {
			case p := <-resolved:
				cached, done = p, true
			default:
				return matchPattern(Any, value, ctx, mode, "Any")
			}
		}
		return matchPattern(cached, value, ctx, mode, describePattern(cached))
	})
}

func hasKey(data any, key string) bool {
	m, ok := data.(map[string]any)
	if !ok {
		return false
	}
	_, exists := m[key]
	return exists
}
