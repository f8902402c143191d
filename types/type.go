// Package types implements the composable type-expression language described in spec.md
// §3-§4: Type, Rule, and the structural constructors built on them (Dict, List, Tuple,
// Enum, Range, SelfRef), plus the Ty facade. A Pattern is any value recognized by Assert:
// a *Type, a *Rule, a proto.Token, a map[string]any (Dict literal), or a []any (List
// literal when length 1, Tuple literal otherwise).
package types

import (
	"fmt"
	"reflect"

	"github.com/dlclark/regexp2"
	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/tyerror"
)

// Mode controls how structural patterns (Dict, Tuple) treat keys/positions that are not
// named in the pattern.
type Mode int

const (
	// Strict rejects unknown dict keys and mismatched tuple lengths.
	Strict Mode = iota
	// Loose ignores unknown dict keys and extra tuple positions.
	Loose
)

// Pattern is the abstract union described in spec.md §3. It is deliberately `any`: Go has
// no sum types, and the alternative (an interface every pattern kind must implement) would
// force every proto.Token and structural literal to be wrapped, defeating the point of
// letting callers write plain maps/slices/constructors as patterns.
type Pattern = any

// Context carries the sibling data and key a Rule is evaluated against. Most structural
// asserts don't need it, but Type threads it through so nested Rule patterns can see it.
type Context struct {
	Data any
	Key  string
}

// Type wraps a pattern with a name and a strict/loose mode and is the base validator of
// the type system: every structural constructor in this package returns a *Type.
type Type struct {
	TypeName string
	Pattern  Pattern
	Mode     Mode
}

// New wraps an arbitrary pattern in a Type, defaulting to Strict mode.
func New(name string, pattern Pattern) *Type {
	return &Type{TypeName: name, Pattern: pattern, Mode: Strict}
}

// Named returns a copy of t under a different display name, labelling the copy without
// mutating a shared instance.
func (t *Type) Named(name string) *Type {
	cp := *t
	cp.TypeName = name
	return &cp
}

// Loose returns a copy of t in Loose mode.
func (t *Type) Loose() *Type {
	cp := *t
	cp.Mode = Loose
	return &cp
}

// Strict returns a copy of t in Strict mode.
func (t *Type) Strict() *Type {
	cp := *t
	cp.Mode = Strict
	return &cp
}

// Name returns the human-readable pattern name used when rendering TyErrors.
func (t *Type) Name() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	return fmt.Sprintf("%T", t.Pattern)
}

// Assert validates value against t.Pattern in the root context, panicking with a
// *tyerror.TyError on mismatch, per spec.md §4.2 and the "throws" contract in §7 for the Ty
// facade's Expect(...).To.Match(...) entry point. Library-internal callers should use Catch
// instead; Assert exists for the facade and for embedders who want panic-based assertions.
func (t *Type) Assert(value any) {
	if err := t.Catch(value); err != nil {
		panic(err)
	}
}

// Catch validates value against t.Pattern and returns the resulting *tyerror.TyError, or
// nil if value matches. It never panics: this is the non-throwing half of the
// Assert/Catch pair described in spec.md §4.2 and §7.
func (t *Type) Catch(value any) *tyerror.TyError {
	return t.catchIn(value, Context{})
}

// CatchIn is Catch but runs pattern evaluation with an explicit (data, key) context, so a
// Rule pattern nested inside t can see its siblings. Schema.checkValue uses this to thread
// the owning record through field-level type checks.
func (t *Type) CatchIn(value any, ctx Context) *tyerror.TyError {
	return t.catchIn(value, ctx)
}

func (t *Type) catchIn(value any, ctx Context) *tyerror.TyError {
	return matchPattern(t.Pattern, value, ctx, t.Mode, t.Name())
}

// Clone deep-copies t's pattern tree so schemas can hold independent copies, per spec.md
// §4.2. Map/slice literals are deep-copied and nested *Type patterns are cloned recursively;
// Rules, proto.Tokens and the Tuple/Enum/Range/SelfRef literals are shared rather than
// duplicated.
func (t *Type) Clone() *Type {
	cp := *t
	cp.Pattern = clonePattern(t.Pattern)
	return &cp
}

func clonePattern(p Pattern) Pattern {
	switch v := p.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = clonePattern(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = clonePattern(val)
		}
		return out
	case *Type:
		return v.Clone()
	default:
		return p
	}
}

// Any matches every value; it is the placeholder pattern used while an Asynch rule's real
// pattern has not yet resolved (spec.md §5).
var Any = New("Any", anyPattern{})

type anyPattern struct{}

// matchPattern is the single recursive entry point shared by Type.Catch and the
// structural constructors' internal checks. It dispatches on the concrete shape of
// pattern exactly the way the teacher's validateFieldValue/validateFieldType switch does
// (core/schema/validator.go), generalized from a fixed FieldType enum to arbitrary
// composable patterns.
func matchPattern(pattern Pattern, value any, ctx Context, mode Mode, name string) *tyerror.TyError {
	switch p := pattern.(type) {
	case anyPattern:
		return nil

	case *Type:
		err := p.catchIn(value, ctx)
		if err == nil {
			return nil
		}
		return err

	case *Rule:
		return p.check(value, ctx, mode)

	case tupleLiteral:
		return matchTuple([]any(p), value, ctx, mode, name)

	case enumLiteral:
		return matchEnum([]any(p), value, ctx, mode, name)

	case selfRefLiteral:
		return matchPattern(p.resolve(), value, ctx, mode, name)

	case rangeLiteral:
		return matchRange(p, value, name)

	case map[string]any:
		return matchDict(p, value, ctx, mode, name)

	case []any:
		switch len(p) {
		case 1:
			return matchList(p[0], value, ctx, mode, name)
		default:
			return matchTuple(p, value, ctx, mode, name)
		}

	default:
		// A proto.Token is just `any` underneath, so it cannot be a distinct type-switch
		// case above (every concrete type would match it). Instead, treat pattern as a
		// token if the registry recognizes it or it is a regex; otherwise fall back to
		// literal equality.
		if proto.Find(pattern) != nil || isRegexToken(pattern) {
			if proto.Is(pattern).Typeof(value) {
				return nil
			}
			return tyerror.New(tyerror.Mistaken, value, name)
		}
		if reflect.DeepEqual(pattern, value) {
			return nil
		}
		return tyerror.New(tyerror.Mistaken, value, name)
	}
}

func matchDict(pattern map[string]any, value any, ctx Context, mode Mode, name string) *tyerror.TyError {
	obj, ok := value.(map[string]any)
	if !ok {
		return tyerror.New(tyerror.Mistaken, value, name)
	}

	for key, sub := range pattern {
		fieldVal, exists := obj[key]
		if rule, isRule := sub.(*Rule); isRule && rule.ShouldCheck != nil {
			if !rule.ShouldCheck(obj, key) {
				continue
			}
		}
		if !exists {
			return tyerror.New(tyerror.Missing, nil, name).WithPath(key)
		}
		if err := matchPattern(sub, fieldVal, Context{Data: obj, Key: key}, mode, describePattern(sub)); err != nil {
			return err.WithPath(key)
		}
	}

	if mode == Strict {
		for key := range obj {
			if _, known := pattern[key]; !known {
				return tyerror.New(tyerror.Dirty, obj[key], name).WithPath(key)
			}
		}
	}

	_ = ctx
	return nil
}

func matchList(elem Pattern, value any, ctx Context, mode Mode, name string) *tyerror.TyError {
	items, ok := toSlice(value)
	if !ok {
		return tyerror.New(tyerror.Mistaken, value, name)
	}
	for i, item := range items {
		if err := matchPattern(elem, item, ctx, mode, describePattern(elem)); err != nil {
			return err.WithPath(i)
		}
	}
	return nil
}

func matchTuple(patterns []any, value any, ctx Context, mode Mode, name string) *tyerror.TyError {
	items, ok := toSlice(value)
	if !ok {
		return tyerror.New(tyerror.Mistaken, value, name)
	}
	if mode == Strict && len(items) != len(patterns) {
		return tyerror.New(tyerror.Dirty, value, name)
	}
	n := len(patterns)
	if len(items) < n {
		n = len(items)
	}
	for i := 0; i < n; i++ {
		if err := matchPattern(patterns[i], items[i], ctx, mode, describePattern(patterns[i])); err != nil {
			return err.WithPath(i)
		}
	}
	return nil
}

func toSlice(value any) ([]any, bool) {
	if s, ok := value.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isRegexToken(pattern Pattern) bool {
	_, ok := pattern.(*regexp2.Regexp)
	return ok
}

func matchEnum(options []any, value any, ctx Context, mode Mode, name string) *tyerror.TyError {
	for _, opt := range options {
		if matchPattern(opt, value, ctx, mode, describePattern(opt)) == nil {
			return nil
		}
	}
	return tyerror.New(tyerror.Mistaken, value, name)
}

func matchRange(r rangeLiteral, value any, name string) *tyerror.TyError {
	f, ok := toFloat(value)
	if !ok {
		return tyerror.New(tyerror.Mistaken, value, name)
	}
	if r.MinBound && f < r.Min {
		return tyerror.New(tyerror.Unexcepted, value, name)
	}
	if r.MaxBound && f > r.Max {
		return tyerror.New(tyerror.Unexcepted, value, name)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func describePattern(p Pattern) string {
	switch v := p.(type) {
	case *Type:
		return v.Name()
	case *Rule:
		return v.Name()
	default:
		return fmt.Sprintf("%T", p)
	}
}
