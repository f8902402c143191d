package schema

import (
	"testing"

	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/tyerror"
	"github.com/kowalski-labs/tyshemo/types"
	"github.com/stretchr/testify/assert"
)

func newTestSchema() *Schema {
	return New("person", map[string]*FieldDef{
		"name": {
			Type:     proto.String,
			Required: true,
		},
		"age": {
			Type:    proto.Integer,
			Default: 0,
		},
		"fullName": {
			Compute: func(data any) any {
				m := data.(map[string]any)
				return m["name"]
			},
		},
	})
}

func TestSchema_ParseAppliesDefaults(t *testing.T) {
	s := newTestSchema()
	out, err := s.Parse(map[string]any{"name": "Ada"})
	assert.NoError(t, err)
	assert.Equal(t, "Ada", out["name"])
	assert.Equal(t, 0, out["age"])
	assert.Equal(t, "Ada", out["fullName"])
}

func TestSchema_ParseMissingRequiredFails(t *testing.T) {
	s := newTestSchema()
	_, err := s.Parse(map[string]any{})
	assert.Error(t, err)
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Missing, tyErr.Kind)
}

func TestSchema_SetRejectsComputedField(t *testing.T) {
	s := newTestSchema()
	data := map[string]any{"name": "Ada", "age": 1}
	err := s.Set(data, "fullName", "Something else")
	assert.Error(t, err)
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Compute, tyErr.Kind)
}

func TestSchema_SetRejectsReadonly(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"id": {Type: proto.String, Readonly: true},
	})
	err := s.Set(map[string]any{"id": "abc"}, "id", "def")
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Readonly, tyErr.Kind)
}

func TestSchema_ExportDropsAndFlattens(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"secret": {Type: proto.String, Drop: true},
		"meta": {
			Type: types.Any,
			Flat: true,
		},
		"name": {Type: proto.String},
	})
	data := map[string]any{
		"secret": "hidden",
		"meta":   map[string]any{"nested": 1},
		"name":   "Ada",
	}
	out := s.Export(data)
	_, hasSecret := out["secret"]
	assert.False(t, hasSecret)
	assert.Equal(t, 1, out["nested"])
	assert.Equal(t, "Ada", out["name"])
}

func TestFromJSON_BuildsSchema(t *testing.T) {
	s, err := FromJSON([]byte(`{
		"name": "person",
		"fields": {
			"name": {"type": "string", "required": true},
			"age": {"type": "integer", "default": 0}
		}
	}`))
	assert.NoError(t, err)
	out, err := s.Parse(map[string]any{"name": "Ada"})
	assert.NoError(t, err)
	assert.Equal(t, "Ada", out["name"])
}

func TestSchema_OnErrorReceivesTyError(t *testing.T) {
	var caught *tyerror.TyError
	s := newTestSchema()
	s.OnError = func(err *tyerror.TyError) { caught = err }

	_, err := s.Parse(map[string]any{})
	assert.Error(t, err)
	assert.NotNil(t, caught)
	assert.Equal(t, tyerror.Missing, caught.Kind)
}

func TestSchema_ValidateAggregatesAcrossFields(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"name": {Type: proto.String, Required: true},
		"age":  {Type: proto.String, Required: true},
	})
	issues := s.Validate(map[string]any{"name": 1, "age": 2})
	var keys []string
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	assert.Contains(t, keys, "name")
	assert.Contains(t, keys, "age")
	assert.Len(t, issues, 2)
}

func TestSchema_ValidateFieldAggregatesValidators(t *testing.T) {
	tooLong := types.ShouldMatch(func(data any, key string) bool {
		m := data.(map[string]any)
		name, _ := m[key].(string)
		return len(name) <= 3
	})
	notEmpty := types.ShouldMatch(func(data any, key string) bool {
		m := data.(map[string]any)
		name, _ := m[key].(string)
		return name != ""
	})
	s := New("x", map[string]*FieldDef{
		"name": {Type: proto.String, Validators: []*types.Rule{tooLong, notEmpty}},
	})
	issues := s.ValidateField(map[string]any{"name": "toolong"}, "name")
	assert.Len(t, issues, 1)
	assert.Equal(t, 0, issues[0].At)

	issues = s.ValidateField(map[string]any{"name": ""}, "name")
	assert.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].At)
}

func TestSchema_DisabledFieldShortCircuitsValidateAndExport(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"name": {Type: proto.String, Required: true, Disabled: true},
	})
	issues := s.ValidateField(map[string]any{}, "name")
	assert.Empty(t, issues)

	out := s.Export(map[string]any{"name": "Ada"})
	_, has := out["name"]
	assert.False(t, has)
}

func TestSchema_RequiredAsTruthyWithMessageString(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"name": {Type: proto.String, Required: "name is required"},
	})
	issues := s.ValidateField(map[string]any{}, "name")
	assert.Len(t, issues, 1)
	assert.Equal(t, "name is required", issues[0].Message)
}

func TestSchema_PanicInGetHookRecoversToException(t *testing.T) {
	s := New("x", map[string]*FieldDef{
		"name": {
			Type: proto.String,
			Get: func(value any, data any) any {
				panic("boom")
			},
		},
	})
	_, err := s.Get(map[string]any{"name": "Ada"}, "name")
	assert.Error(t, err)
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Exception, tyErr.Kind)
}

func TestFromYAML_BuildsSchema(t *testing.T) {
	s, err := FromYAML([]byte(`
name: person
fields:
  name:
    type: string
    required: true
`))
	assert.NoError(t, err)
	_, err = s.Parse(map[string]any{"name": "Ada"})
	assert.NoError(t, err)
}
