package model

import (
	"reflect"

	"github.com/google/uuid"
)

// FieldView is a per-field projection intended for UI binding, per spec.md §3's "views"
// aggregate: the field's current value alongside the required/readonly/disabled/hidden/
// changed state, any validation error, and the field's own Metas bag, plus a stable Id
// (a google/uuid name-based id derived from the schema and field name, so every Views call
// yields the same Id for the same field) so a UI can key a rendered control across re-renders.
type FieldView struct {
	Id       string
	Name     string
	Value    any
	Required bool
	Readonly bool
	Disabled bool
	Hidden   bool
	Changed  bool
	Error    string
	Metas    map[string]any
}

// Views aggregates the model's current FieldViews and any whole-record validation error,
// matching spec.md §3's `$errors` aggregate entry.
type Views struct {
	Fields map[string]FieldView
	Errors []string
}

// Views computes a fresh Views snapshot of m's current data. It is not cached: spec.md §4.5
// treats a view as a read-time projection, not a second copy of the model's state that could
// drift from it.
func (m *Model) Views() Views {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := m.snapshot()
	fields := make(map[string]FieldView, len(m.schema.Fields))
	var errs []string

	for name, fd := range m.schema.Fields {
		value, _ := m.schema.Get(data, name)
		view := FieldView{
			Id:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(m.schema.Name+"."+name)).String(),
			Name:     name,
			Value:    value,
			Required: fd.IsRequired(data, name),
			Readonly: fd.IsReadonly(data, name),
			Disabled: fd.IsDisabled(data, name),
			Hidden:   fd.IsHidden(data, name),
			Changed:  !reflect.DeepEqual(value, fd.ResolveDefault(data)),
			Metas:    fd.Metas,
		}
		if issues := m.schema.ValidateField(data, name); len(issues) > 0 {
			view.Error = issues[0].Message
			for _, issue := range issues {
				errs = append(errs, issue.Message)
			}
		}
		fields[name] = view
	}

	return Views{Fields: fields, Errors: errs}
}
