package model

import (
	"github.com/kowalski-labs/tyshemo/schema"
	"github.com/kowalski-labs/tyshemo/types"
)

// Field is a convenience constructor for a schema.FieldDef, so a Model's schema can be
// declared inline at the call site (mirroring how the teacher's examples/basic/main.go
// builds a SchemaDefinition's Fields map by hand) instead of requiring a separate
// schema-building step for simple cases.
func Field(pattern types.Pattern) *schema.FieldDef {
	return &schema.FieldDef{Type: pattern}
}

// Required marks fd as required and returns it, for fluent declaration:
// model.Required(model.Field(proto.String)).
func Required(fd *schema.FieldDef) *schema.FieldDef {
	fd.Required = true
	return fd
}

// Readonly marks fd as readonly and returns it.
func Readonly(fd *schema.FieldDef) *schema.FieldDef {
	fd.Readonly = true
	return fd
}

// Hidden marks fd as hidden (its FieldView.Hidden reports true) and returns it.
func Hidden(fd *schema.FieldDef) *schema.FieldDef {
	fd.Hidden = true
	return fd
}

// Computed returns a FieldDef whose value is entirely derived from sibling data via fn.
func Computed(fn func(data any) any) *schema.FieldDef {
	return &schema.FieldDef{Compute: fn}
}
