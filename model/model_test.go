package model

import (
	"testing"

	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/schema"
	"github.com/kowalski-labs/tyshemo/tyerror"
	"github.com/kowalski-labs/tyshemo/types"
	"github.com/stretchr/testify/assert"
)

func newPersonSchema() *schema.Schema {
	return schema.New("person", map[string]*schema.FieldDef{
		"name": {Type: proto.String, Required: true},
		"age":  {Type: proto.Integer, Default: 0},
		"greeting": {
			Compute: func(data any) any {
				m := data.(map[string]any)
				return "hi " + m["name"].(string)
			},
		},
	})
}

func TestModel_NewAppliesDefaultsAndCompute(t *testing.T) {
	m, err := New(newPersonSchema(), map[string]any{"name": "Ada"})
	assert.NoError(t, err)

	age, err := m.Get("age")
	assert.NoError(t, err)
	assert.Equal(t, 0, age)

	greeting, err := m.Get("greeting")
	assert.NoError(t, err)
	assert.Equal(t, "hi Ada", greeting)
}

func TestModel_SetRejectsInvalidType(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"})
	err := m.Set("age", "not a number")
	assert.Error(t, err)
}

func TestModel_SetRejectsComputedField(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"})
	err := m.Set("greeting", "nope")
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Compute, tyErr.Kind)
}

func TestModel_LockRejectsWrites(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"})
	m.Lock()
	err := m.Set("name", "Grace")
	var tyErr *tyerror.TyError
	assert.ErrorAs(t, err, &tyErr)
	assert.Equal(t, tyerror.Locked, tyErr.Kind)

	m.Unlock()
	assert.NoError(t, m.Set("name", "Grace"))
}

func TestModel_WatchFiresOnSet(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"})
	var seen any
	m.Watch("name", func(path string, value, old any) { seen = value })
	assert.NoError(t, m.Set("name", "Grace"))
	assert.Equal(t, "Grace", seen)
}

func TestModel_ToJSONFromJSONRoundtrip(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada", "age": 30})
	raw, err := m.ToJSON()
	assert.NoError(t, err)

	m2, _ := New(newPersonSchema(), map[string]any{"name": "placeholder"})
	assert.NoError(t, m2.FromJSON(raw))

	name, _ := m2.Get("name")
	assert.Equal(t, "Ada", name)
}

func TestModel_ErrorHookReceivesTyError(t *testing.T) {
	var caught *tyerror.TyError
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"}, WithErrorHook(func(e *tyerror.TyError) {
		caught = e
	}))
	_ = m.Set("age", "nope")
	assert.NotNil(t, caught)
}

func TestModel_Views(t *testing.T) {
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"})
	views := m.Views()
	assert.Contains(t, views.Fields, "name")
	assert.Equal(t, "Ada", views.Fields["name"].Value)
}

func newNameSchema() *schema.Schema {
	return schema.New("fullname", map[string]*schema.FieldDef{
		"first": {Type: proto.String, Default: ""},
		"last":  {Type: proto.String, Default: ""},
		"full": {
			Compute: func(data any) any {
				m := data.(map[string]any)
				return m["first"].(string) + " " + m["last"].(string)
			},
		},
	})
}

func TestModel_ComputedFieldRecomputesOnDependencyWrite(t *testing.T) {
	m, err := New(newNameSchema(), map[string]any{"first": "", "last": ""})
	assert.NoError(t, err)

	var seen []any
	m.Watch("full", func(path string, value, old any) { seen = append(seen, value) })

	assert.NoError(t, m.Set("first", "A"))
	assert.NoError(t, m.Set("last", "B"))

	full, _ := m.Get("full")
	assert.Equal(t, "A B", full)
	assert.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, "A B", seen[len(seen)-1])
}

func TestModel_HiddenFieldView(t *testing.T) {
	sc := schema.New("person", map[string]*schema.FieldDef{
		"age": {Type: proto.Integer, Default: 0},
		"married": {
			Type:    types.Nullable(proto.Boolean),
			Default: nil,
			Hidden: func(data any, key string) bool {
				m := data.(map[string]any)
				age, _ := m["age"].(int)
				return age < 20
			},
		},
	})
	m, err := New(sc, map[string]any{"age": 15})
	assert.NoError(t, err)

	views := m.Views()
	assert.True(t, views.Fields["married"].Hidden)

	assert.NoError(t, m.Set("age", 25))
	views = m.Views()
	assert.False(t, views.Fields["married"].Hidden)
}

func TestModel_SwitchHookFiresAfterSet(t *testing.T) {
	var gotName string
	var gotOld, gotNew any
	m, _ := New(newPersonSchema(), map[string]any{"name": "Ada"}, WithSwitchHook(func(name string, value, old any) {
		gotName, gotNew, gotOld = name, value, old
	}))
	assert.NoError(t, m.Set("name", "Grace"))
	assert.Equal(t, "name", gotName)
	assert.Equal(t, "Grace", gotNew)
	assert.Equal(t, "Ada", gotOld)
}

func TestModel_ParseAndExportHooks(t *testing.T) {
	m, err := New(newPersonSchema(), map[string]any{"name": "ada"}, WithParseHook(func(raw map[string]any) map[string]any {
		if name, ok := raw["name"].(string); ok {
			raw["name"] = name + "!"
		}
		return raw
	}), WithExportHook(func(data map[string]any) map[string]any {
		data["extra"] = true
		return data
	}))
	assert.NoError(t, err)

	name, _ := m.Get("name")
	assert.Equal(t, "ada!", name)

	raw, err := m.ToJSON()
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "\"extra\":true")
}

func TestModel_StateSchemaMetasAccessors(t *testing.T) {
	sc := schema.New("person", map[string]*schema.FieldDef{
		"name": {Type: proto.String, Required: true, Metas: map[string]any{"placeholder": "Full name"}},
	})
	m, err := New(sc, map[string]any{"name": "Ada"})
	assert.NoError(t, err)

	assert.Equal(t, "Ada", m.State()["name"])
	assert.Same(t, sc, m.Schema())
	assert.Equal(t, "Full name", m.Metas()["name"]["placeholder"])
}
