package schema

import (
	"fmt"
	"strings"

	"github.com/kowalski-labs/tyshemo/tyerror"
	"github.com/kowalski-labs/tyshemo/types"
)

// Schema is a collection of named FieldDefs (a map, so the order in which fields are visited
// is not defined), the meta-evaluation engine behind
// model.Model, per spec.md §4.3. It centralizes the get/set/validate/parse/export
// operations the teacher spreads across Validator and FieldDefinition so every caller
// routes through the same error-reporting path (reportFieldError).
type Schema struct {
	Name   string
	Fields map[string]*FieldDef

	// OnError, if set, receives every *tyerror.TyError produced by Get/Set/Validate before
	// it is returned to the caller. Callers that drive a Schema through Model normally
	// leave this nil and rely on Model's own onError hook instead (Model intentionally does
	// not also set this, to avoid double-reporting the same error through two sinks); it
	// exists for callers that use a Schema standalone.
	OnError ErrorHandler
}

// New builds a Schema from a name and field map, matching the teacher's
// SchemaDefinition{Name, Fields} shape (core/schema/definition.go) without the
// persistence-only concerns (Indexes, Migrations, Constraints at the storage layer).
func New(name string, fields map[string]*FieldDef) *Schema {
	for _, fd := range fields {
		fd.compile()
	}
	return &Schema{Name: name, Fields: fields}
}

// Default computes the full default record for this schema: every field's resolved
// Default (or nil if unset), keyed by field name.
func (s *Schema) Default(data any) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for name, fd := range s.Fields {
		out[name] = fd.resolveDefault(data)
	}
	return out
}

// Get reads field name out of data, applying the field's Get hook (if any) and computing
// Compute fields on demand. It returns tyerror.Missing if name is not defined on the
// schema at all, distinct from the field being merely absent from data (which Get
// resolves via Default). A panicking Compute or Get hook is recovered into
// tyerror.Exception rather than crashing the caller, per spec.md §7's error-routing
// contract.
func (s *Schema) Get(data map[string]any, name string) (any, error) {
	fd, ok := s.Fields[name]
	if !ok {
		return nil, route(s.OnError, tyerror.New(tyerror.Missing, nil, s.Name).WithPath(name))
	}

	var value any
	if fd.Compute != nil {
		v, perr := safeInvoke(s.Name, name, func() any { return fd.Compute(data) })
		if perr != nil {
			return nil, s.reportFieldError(fd, perr)
		}
		value = v
	} else if v, exists := data[name]; exists {
		value = v
	} else {
		value = fd.resolveDefault(data)
	}

	if fd.Get != nil {
		v, perr := safeInvoke(s.Name, name, func() any { return fd.Get(value, data) })
		if perr != nil {
			return nil, s.reportFieldError(fd, perr)
		}
		value = v
	}
	return value, nil
}

// Set writes value to field name in data, in place, after running Type/Validators and the
// field's Set hook. It refuses writes to computed, readonly, or disabled fields with the
// matching tyerror.Compute/Readonly/Disabled kind, per spec.md §7, and fires fd.Watch after
// a successful write. A panicking Set hook or validator is recovered into tyerror.Exception.
func (s *Schema) Set(data map[string]any, name string, value any) error {
	fd, ok := s.Fields[name]
	if !ok {
		return route(s.OnError, tyerror.New(tyerror.Missing, value, s.Name).WithPath(name))
	}

	if fd.Compute != nil {
		return s.reportFieldError(fd, tyerror.New(tyerror.Compute, value, s.Name).WithPath(name))
	}
	if fd.isReadonly(data, name) {
		return s.reportFieldError(fd, tyerror.New(tyerror.Readonly, value, s.Name).WithPath(name))
	}
	if fd.isDisabled(data, name) {
		return s.reportFieldError(fd, tyerror.New(tyerror.Disabled, value, s.Name).WithPath(name))
	}

	old := data[name]

	if fd.Set != nil {
		v, perr := safeInvoke(s.Name, name, func() any { return fd.Set(value, data) })
		if perr != nil {
			return s.reportFieldError(fd, perr)
		}
		value = v
	}

	if issues := s.checkValue(data, name, fd, value); len(issues) > 0 {
		return s.reportFieldError(fd, issues[0].Err)
	}

	data[name] = value
	fd.runWatch(value, old, data)
	return nil
}

// checkValue validates value against fd's Type and Validators (not Required/Disabled, which
// are presence-based checks handled by ValidateField), collecting every failure instead of
// stopping at the first, per spec.md §4.3/§8's array-returning validate. A panic anywhere in
// the pattern-matching tree (including a user Rule.Validate/Lambda hook) is recovered into
// tyerror.Exception.
func (s *Schema) checkValue(data map[string]any, name string, fd *FieldDef, value any) []Issue {
	var issues []Issue
	ctx := types.Context{Data: data, Key: name}

	if fd.Type != nil {
		typ := types.New(name, fd.Type)
		if err := safeCatch(s.Name, name, func() *tyerror.TyError { return typ.CatchIn(value, ctx) }); err != nil {
			pathed := err.WithPath(name)
			issues = append(issues, Issue{Key: name, At: -1, Message: fd.resolveMessage(value, name, pathed), Err: pathed})
		}
	}
	for i, rule := range fd.Validators {
		i, rule := i, rule
		ruleType := types.New(name, rule)
		if err := safeCatch(s.Name, name, func() *tyerror.TyError { return ruleType.CatchIn(value, ctx) }); err != nil {
			pathed := err.WithPath(name)
			issues = append(issues, Issue{Key: name, At: i, Message: fd.resolveMessage(value, name, pathed), Err: pathed})
		}
	}
	return issues
}

// ValidateField checks a single named field of data against its Required/Type/Validators,
// returning every failure as an Issue rather than stopping at the first, per spec.md §4.3's
// array-returning validate and §8 scenario 2. A disabled field short-circuits to no issues
// at all, per spec.md §8's disabled(K) == true => validate(K) == [] invariant. A required
// field that is absent or nil (as Parse leaves a field with no input and no default) reports
// one tyerror.Missing issue; an absent, non-required field reports nothing.
func (s *Schema) ValidateField(data map[string]any, name string) []Issue {
	fd, ok := s.Fields[name]
	if !ok {
		err := route(s.OnError, tyerror.New(tyerror.Missing, nil, s.Name).WithPath(name)).(*tyerror.TyError)
		return []Issue{{Key: name, At: -1, Message: err.Error(), Err: err}}
	}

	if fd.isDisabled(data, name) {
		return nil
	}

	value, exists := data[name]
	if fd.isRequired(data, name) && (!exists || value == nil) {
		err := tyerror.New(tyerror.Missing, nil, s.Name).WithPath(name)
		s.reportFieldError(fd, err)
		msg := fd.requiredMessage(data, name)
		if msg == "" {
			msg = err.Error()
		}
		return []Issue{{Key: name, At: -1, Message: msg, Err: err}}
	}
	if !exists {
		return nil
	}

	issues := s.checkValue(data, name, fd, value)
	for _, issue := range issues {
		s.reportFieldError(fd, issue.Err)
	}
	return issues
}

// Validate checks every field of data, collecting every failing field's Issues into a
// single slice instead of stopping at the first field that fails, per spec.md §4.3/§8
// scenario 2 (two invalid fields must both be reported).
func (s *Schema) Validate(data map[string]any) []Issue {
	var out []Issue
	for name := range s.Fields {
		out = append(out, s.ValidateField(data, name)...)
	}
	return out
}

// Parse builds a fresh record from raw input: every schema field is populated via Get
// (applying defaults/compute/Get hooks), and the result is validated before being
// returned, per spec.md §4.3's parse operation. Parse itself still surfaces a single error
// (the first Issue's cause), matching its existing (map[string]any, error) signature; the
// full per-field breakdown is available via Validate for callers that need it.
func (s *Schema) Parse(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	out := make(map[string]any, len(s.Fields))
	for name := range s.Fields {
		value, err := s.Get(raw, name)
		if err != nil {
			return nil, fmt.Errorf("parsing field %q: %w", name, err)
		}
		out[name] = value
	}
	if issues := s.Validate(out); len(issues) > 0 {
		return nil, issues[0].Err
	}
	return out, nil
}

// Export renders data for external consumption: Drop and Disabled fields are omitted, Map
// hooks reshape a value, and Flat fields promote a nested Dict's keys up into the result
// instead of nesting it, per spec.md §4.3's export operation and §8's disabled(K) == true
// => toJSON() omits K invariant.
func (s *Schema) Export(data map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for name, fd := range s.Fields {
		if fd.isDropped(data, name) || fd.isDisabled(data, name) {
			continue
		}
		value, err := s.Get(data, name)
		if err != nil {
			continue
		}
		if fd.Map != nil {
			value = fd.Map(value)
		}
		if fd.Flat {
			if nested, ok := value.(map[string]any); ok {
				for k, v := range nested {
					out[k] = v
				}
				continue
			}
		}
		out[name] = value
	}
	return out
}

// JoinIssues renders a slice of Issues into one human-readable message ("field: message;
// field2: message2"), for callers (such as Model.Validate) that need a single error summary
// while the structured per-field breakdown remains available from Validate/ValidateField.
func JoinIssues(issues []Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = fmt.Sprintf("%s: %s", issue.Key, issue.Message)
	}
	return strings.Join(parts, "; ")
}
