package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLambda_TruthyScriptPasses(t *testing.T) {
	r := Lambda("value > 0")
	assert.Nil(t, r.check(5, Context{}, Strict))
	assert.NotNil(t, r.check(-5, Context{}, Strict))
}

func TestLambda_SeesDataAndKey(t *testing.T) {
	r := Lambda("data.min !== undefined && value >= data.min")
	ctx := Context{Data: map[string]any{"min": 10}, Key: "score"}
	assert.Nil(t, r.check(12, ctx, Strict))
	assert.NotNil(t, r.check(2, ctx, Strict))
}

func TestLambda_ScriptErrorIsException(t *testing.T) {
	r := Lambda("value.(")
	err := r.check(1, Context{}, Strict)
	assert.NotNil(t, err)
	assert.Equal(t, "exception", string(err.Kind))
}
