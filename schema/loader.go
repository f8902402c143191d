package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/types"
	"gopkg.in/yaml.v3"
)

// FieldSpec is the declarative, serializable shape of a FieldDef: the subset of meta that
// can be expressed in JSON/YAML (a Type name resolved against the proto registry, a
// literal Default, plain boolean Required/Readonly/Disabled/Hidden flags, and a literal
// Message). Hooks (Get/Set/
// Compute/Validators/Map) are Go-only and must be attached after loading, via
// Schema.Fields[name].<hook> = ...; this mirrors the teacher's FieldDefinition, whose
// UnmarshalJSON (core/schema/definition.go) likewise only decodes the declarative half of
// a field and leaves behavior (constraints resolved against fmap) to be wired in code.
type FieldSpec struct {
	Type     string `json:"type" yaml:"type"`
	Default  any    `json:"default,omitempty" yaml:"default,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Readonly bool   `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Hidden   bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Spec is the declarative, serializable shape of a Schema: a name plus a map of
// FieldSpecs, analogous to the teacher's SchemaDefinition{Name, Fields} (core/schema/
// definition.go) before behavior is wired in.
type Spec struct {
	Name   string               `json:"name" yaml:"name"`
	Fields map[string]FieldSpec `json:"fields" yaml:"fields"`
}

var namedTokens = map[string]proto.Token{
	"string":  proto.String,
	"number":  proto.Number,
	"integer": proto.Integer,
	"boolean": proto.Boolean,
	"object":  proto.Object,
	"array":   proto.Array,
	"function": proto.Function,
}

// Build turns a Spec into a live Schema, resolving each FieldSpec.Type name against the
// proto registry's built-in tokens.
func (s Spec) Build() (*Schema, error) {
	fields := make(map[string]*FieldDef, len(s.Fields))
	for name, fs := range s.Fields {
		token, ok := namedTokens[fs.Type]
		if !ok {
			return nil, fmt.Errorf("schema %q: field %q: unknown type name %q", s.Name, name, fs.Type)
		}
		fd := &FieldDef{
			Type:     types.Pattern(token),
			Default:  fs.Default,
			Required: fs.Required,
			Readonly: fs.Readonly,
			Disabled: fs.Disabled,
			Hidden:   fs.Hidden,
		}
		if fs.Message != "" {
			fd.Message = fs.Message
		}
		fields[name] = fd
	}
	return New(s.Name, fields), nil
}

// FromJSON decodes a Spec from JSON and builds it into a Schema, per spec.md §6's JSON
// schema declaration entry point.
func FromJSON(data []byte) (*Schema, error) {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decoding schema JSON: %w", err)
	}
	return spec.Build()
}

// FromYAML decodes a Spec from YAML and builds it into a Schema. YAML schema declarations
// are a supplemental convenience grounded on the rest of the retrieval pack's use of
// gopkg.in/yaml.v3 for config/schema loading, not present in the teacher itself.
func FromYAML(data []byte) (*Schema, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decoding schema YAML: %w", err)
	}
	return spec.Build()
}
