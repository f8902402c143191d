// Package proto provides the prototype registry: a process-wide table that associates
// "prototype tokens" (primitive constructors, regular expressions, and numeric sentinels
// such as NaN and Infinity) with the predicates used to recognize them. It is the leaf
// dependency of the type system in package types.
package proto

import (
	"math"
	"reflect"
	"sync"

	"github.com/dlclark/regexp2"
)

// Predicate decides whether a value satisfies a registered prototype token.
type Predicate func(value any) bool

// Token identifies a prototype. The built-in tokens below are the primitive constructors;
// a *regexp2.Regexp is also a valid token (matched structurally, see Helper.Typeof), and
// embedders may register arbitrary comparable values as custom tokens.
type Token any

// Built-in primitive constructor tokens, preregistered by init().
var (
	String   Token = "proto:String"
	Number   Token = "proto:Number"
	Integer  Token = "proto:Integer"
	Boolean  Token = "proto:Boolean"
	Object   Token = "proto:Object"
	Array    Token = "proto:Array"
	Function Token = "proto:Function"
	Symbol   Token = "proto:Symbol"
	NaN      Token = "proto:NaN"
	Infinity Token = "proto:Infinity"
)

// registry is the process-wide {token -> predicate} table. Access is serialized by mu
// because, per spec.md §5, callers must not mutate it during concurrent type assertions,
// but registration can legitimately happen from init() functions in multiple packages.
var (
	mu      sync.Mutex
	entries = map[Token]Predicate{}
)

func init() {
	Register(String, func(v any) bool { _, ok := v.(string); return ok })
	Register(Integer, func(v any) bool {
		// encoding/json decodes every number as float64; an integral float64 counts as an Integer.
		if f, ok := v.(float64); ok {
			return !math.IsInf(f, 0) && f == math.Trunc(f)
		}
		return isKind(v, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64)
	})
	Register(Number, func(v any) bool {
		return isKind(v, reflect.Float32, reflect.Float64, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64)
	})
	Register(Boolean, func(v any) bool { _, ok := v.(bool); return ok })
	Register(Object, func(v any) bool { return isKind(v, reflect.Map) })
	Register(Array, func(v any) bool { return isKind(v, reflect.Slice, reflect.Array) })
	Register(Function, func(v any) bool { return isKind(v, reflect.Func) })
	// Go has no runtime symbol primitive; Symbol is registered so Existing() reports
	// true, but nothing matches it unless an embedder overrides the predicate.
	Register(Symbol, func(v any) bool { return false })
	Register(NaN, func(v any) bool { f, ok := v.(float64); return ok && math.IsNaN(f) })
	Register(Infinity, func(v any) bool { f, ok := toFloat(v); return ok && math.IsInf(f, 0) })
}

// Register associates a token with a predicate. Re-registering a token replaces its
// predicate, which lets embedders override the built-ins (e.g. to loosen numeric matching).
func Register(token Token, predicate Predicate) {
	mu.Lock()
	defer mu.Unlock()
	entries[token] = predicate
}

// Unregister removes a token from the registry. It is a no-op if the token was never
// registered.
func Unregister(token Token) {
	mu.Lock()
	defer mu.Unlock()
	delete(entries, token)
}

// Find returns the predicate registered for token, or nil if none is registered.
func Find(token Token) Predicate {
	mu.Lock()
	defer mu.Unlock()
	return entries[token]
}

// Is returns a triadic helper over a token: Existing reports whether the token is
// registered at all, Typeof runs the registered predicate (regex tokens are always matched
// structurally against strings, registered or not), and Equal compares a concrete value against the token as a
// literal.
func Is(token Token) Helper {
	return Helper{token: token}
}

// Helper is the receiver returned by Is(token); see Is for its three operations.
type Helper struct{ token Token }

// Existing reports whether h's token has a registered predicate.
func (h Helper) Existing() bool {
	return Find(h.token) != nil
}

// Typeof reports whether value matches h's token. Regex tokens match only strings (via
// regexp2.MatchString, regardless of registration); everything else goes through the
// registered predicate.
func (h Helper) Typeof(value any) bool {
	if re, ok := h.token.(*regexp2.Regexp); ok {
		s, ok := value.(string)
		if !ok {
			return false
		}
		matched, err := re.MatchString(s)
		return err == nil && matched
	}

	if p := Find(h.token); p != nil {
		return p(value)
	}

	return false
}

// Equal reports whether value is deeply equal to h's token, treating the token as a
// literal rather than a type descriptor.
func (h Helper) Equal(value any) bool {
	return reflect.DeepEqual(h.token, value)
}

func isKind(v any, kinds ...reflect.Kind) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
