// Package schema turns a map of FieldDefs into the meta-driven get/set/validate/parse/
// export behavior described in spec.md §4.3, generalizing the teacher's FieldDefinition/
// Validator pair (core/schema/definition.go, core/schema/validator.go) from a fixed
// FieldType enum to the types package's composable patterns.
package schema

import (
	"github.com/kowalski-labs/tyshemo/tyerror"
	"github.com/kowalski-labs/tyshemo/types"
)

// Determine resolves a tri-form meta value, per spec.md §4.3: a field's required/readonly/
// disabled/hidden meta can be a plain bool, a string (treated as truthy-with-message: the
// meta is "on" and the string is the message used when it fires), a
// func(data any, key string) bool for data-dependent behavior, or a DeterminePair pairing
// any of the above with an explicit message. A nil meta resolves to false. This mirrors the
// teacher's FieldDefinition.Required *bool / PartialFieldDefinition pattern, generalized to
// an evaluated predicate instead of a static pointer.
type Determine any // bool | string | func(data any, key string) bool | DeterminePair | nil

// DeterminePair pairs a tri-form Determine value with an explicit message to use when it
// fires, the "{determine, message}" object form of spec.md §4.3's meta grammar.
type DeterminePair struct {
	Determine Determine
	Message   string
}

// determineFn is a Determine value decoded once into a plain predicate plus an optional
// message resolver, per SPEC_FULL.md §9's "dynamic meta bags decoded once into a tagged
// record" design note: compileDetermine is the single place that re-inspects a Determine's
// dynamic type, run once at Schema construction rather than on every get/set/validate call.
type determineFn struct {
	check   func(data any, key string) bool
	message func(data any, key string) string // nil if this meta carries no message
}

func constBool(v bool) func(data any, key string) bool {
	return func(any, string) bool { return v }
}

func constMessage(msg string) func(data any, key string) string {
	return func(any, string) string { return msg }
}

// compileDetermine decodes a tri-form Determine value into a plain predicate/message pair
// once, at Schema construction time, instead of re-inspecting its dynamic type on every
// isRequired/isReadonly/isDisabled/isHidden/isDropped call. A user-supplied predicate
// function is wrapped so a panic inside it resolves to false rather than crashing the
// caller, per spec.md §4.3/§7's error-routing contract ("any meta invocation" is caught at
// the schema boundary, not just Get/Set/Compute).
func compileDetermine(d Determine) determineFn {
	switch v := d.(type) {
	case nil:
		return determineFn{check: constBool(false)}
	case bool:
		return determineFn{check: constBool(v)}
	case string:
		return determineFn{check: constBool(true), message: constMessage(v)}
	case func(data any, key string) bool:
		return determineFn{check: safeDeterminePredicate(v)}
	case DeterminePair:
		inner := compileDetermine(v.Determine)
		msg := v.Message
		return determineFn{
			check: inner.check,
			message: func(data any, key string) string {
				if msg != "" {
					return msg
				}
				if inner.message != nil {
					return inner.message(data, key)
				}
				return ""
			},
		}
	default:
		return determineFn{check: constBool(false)}
	}
}

// safeDeterminePredicate wraps a user-supplied tri-form predicate so a panic resolves to
// false instead of propagating, per spec.md §7's error-routing contract.
func safeDeterminePredicate(fn func(data any, key string) bool) func(data any, key string) bool {
	return func(data any, key string) (result bool) {
		defer func() {
			if recover() != nil {
				result = false
			}
		}()
		return fn(data, key)
	}
}

// FieldDef is the meta bag attached to a single schema field, per spec.md §3/§4.3: a
// default value, a type pattern, tri-form required/readonly/disabled/hidden flags, a
// validator chain, and optional get/set/compute/drop/map/flat/watch/catch hooks analogous
// to the teacher's FieldDefinition but centered on the types package's Pattern/Rule
// vocabulary rather than a FieldType enum.
type FieldDef struct {
	// Default supplies the field's value when absent from input data. It may be a literal
	// or a func(data any) any for data-dependent defaults.
	Default any

	// Type is the pattern (types.Pattern) the field's value must match.
	Type types.Pattern

	// Required, Readonly, Disabled, Hidden, and Drop gate whether/how the field
	// participates in get/set/validate/export/views. All are tri-form (see Determine).
	Required Determine
	Readonly Determine
	Disabled Determine
	Hidden   Determine
	Drop     Determine

	// Validators runs after Type matching; every rule must pass. Neither a failing Type check
	// nor a failing Validators entry stops the remaining validators from also running: Validate/
	// ValidateField collect every failure per spec.md §4.3/§8.
	Validators []*types.Rule

	// Message overrides the rendered message for this field's Type/Validator failures; a
	// literal string or func(value any, key string, err *tyerror.TyError) string for
	// dynamic messages, per spec.md §4.3. Leave nil to fall back to err.Error().
	Message any

	// Get transforms a stored value on read (e.g. formatting); Set transforms an incoming
	// value before it is stored (e.g. trimming, coercion).
	Get func(value any, data any) any
	Set func(value any, data any) any

	// Compute derives the field's value entirely from sibling data, making the field
	// read-only from the caller's perspective; when set, Set is never invoked for this
	// field and writes are rejected with tyerror.Compute.
	Compute func(data any) any

	// Map reshapes a value on export (e.g. field renaming, projection); Flat requests that
	// a Dict-shaped value be merged into its parent on export instead of nested.
	Map  func(value any) any
	Flat bool

	// Watch, if set, runs after this field's value changes, distinct from the Model/Store's
	// path-level Watch: it is a side effect scoped to this one field's own writes rather
	// than an external subscriber. A panic inside Watch is recovered and dropped, since a
	// misbehaving side effect must not fail the write that triggered it.
	Watch func(value, old any, data any)

	// Catch, if set, receives this field's own validation/write errors before (in addition
	// to) the schema-wide OnError sink, per spec.md §3's FieldDef table. A panic inside
	// Catch is recovered and dropped for the same reason as Watch.
	Catch func(err *tyerror.TyError)

	// Metas carries arbitrary caller-defined metadata (e.g. a UI hint like "placeholder" or
	// "icon") that isn't part of the fixed meta vocabulary above. It is surfaced verbatim on
	// the field's FieldView rather than resolved through Determine, per spec.md §3's
	// metas()/arbitrary-meta mechanism.
	Metas map[string]any

	compiled bool
	required determineFn
	readonly determineFn
	disabled determineFn
	hidden   determineFn
	dropped  determineFn
}

// compile decodes this field's tri-form Determine metas into plain predicates once. It is
// idempotent and called by Schema.New before the schema is returned to the caller.
func (f *FieldDef) compile() {
	if f.compiled {
		return
	}
	f.required = compileDetermine(f.Required)
	f.readonly = compileDetermine(f.Readonly)
	f.disabled = compileDetermine(f.Disabled)
	f.hidden = compileDetermine(f.Hidden)
	f.dropped = compileDetermine(f.Drop)
	f.compiled = true
}

func (f *FieldDef) isRequired(data any, key string) bool { return f.required.check(data, key) }
func (f *FieldDef) isReadonly(data any, key string) bool { return f.readonly.check(data, key) }
func (f *FieldDef) isDisabled(data any, key string) bool { return f.disabled.check(data, key) }
func (f *FieldDef) isHidden(data any, key string) bool   { return f.hidden.check(data, key) }
func (f *FieldDef) isDropped(data any, key string) bool  { return f.dropped.check(data, key) }

// requiredMessage returns the message configured on a string/DeterminePair Required meta,
// or "" if Required carries no explicit message.
func (f *FieldDef) requiredMessage(data any, key string) string {
	if f.required.message == nil {
		return ""
	}
	return f.required.message(data, key)
}

// IsReadonly reports whether this field is readonly for the given record, exported for
// callers (such as model.Views) that need to reflect meta state without routing through a
// Schema method.
func (f *FieldDef) IsReadonly(data any, key string) bool { return f.isReadonly(data, key) }

// IsDisabled reports whether this field is disabled for the given record.
func (f *FieldDef) IsDisabled(data any, key string) bool { return f.isDisabled(data, key) }

// IsRequired reports whether this field is required for the given record.
func (f *FieldDef) IsRequired(data any, key string) bool { return f.isRequired(data, key) }

// IsHidden reports whether this field should be hidden from a views projection for the
// given record, per spec.md §8's "hidden: age<20" scenario.
func (f *FieldDef) IsHidden(data any, key string) bool { return f.isHidden(data, key) }

// resolveMessage renders the message for a failing TyError, preferring fd.Message (literal
// or dynamic) over the TyError's own default rendering.
func (f *FieldDef) resolveMessage(value any, key string, err *tyerror.TyError) string {
	switch m := f.Message.(type) {
	case string:
		return m
	case func(value any, key string, err *tyerror.TyError) string:
		return m(value, key, err)
	}
	return err.Error()
}

// runWatch invokes fd.Watch, if set, recovering any panic so a misbehaving side effect
// cannot fail the write that triggered it.
func (f *FieldDef) runWatch(value, old any, data any) {
	if f.Watch == nil {
		return
	}
	defer func() { recover() }()
	f.Watch(value, old, data)
}

// runCatch invokes fd.Catch, if set and err is non-nil, recovering any panic for the same
// reason as runWatch.
func (f *FieldDef) runCatch(err *tyerror.TyError) {
	if f.Catch == nil || err == nil {
		return
	}
	defer func() { recover() }()
	f.Catch(err)
}

// ResolveDefault exposes resolveDefault for callers (such as model.Views) that need to
// compare a field's current value against its default without routing through a Schema.
func (f *FieldDef) ResolveDefault(data any) any {
	return f.resolveDefault(data)
}

func (f *FieldDef) resolveDefault(data any) any {
	switch v := f.Default.(type) {
	case func(data any) any:
		return v(data)
	default:
		return v
	}
}
