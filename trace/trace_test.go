package trace

import (
	"testing"

	"github.com/kowalski-labs/tyshemo/model"
	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/schema"
	"github.com/stretchr/testify/assert"
)

func newCounterModel(t *testing.T) *model.Model {
	t.Helper()
	sc := schema.New("counter", map[string]*schema.FieldDef{
		"count": {Type: proto.Integer, Default: 0},
	})
	m, err := model.New(sc, nil)
	assert.NoError(t, err)
	return m
}

func TestTraceModel_UndoRedo(t *testing.T) {
	tm := New(newCounterModel(t))

	assert.NoError(t, tm.Set("count", 1))
	assert.NoError(t, tm.Set("count", 2))

	assert.True(t, tm.Undo())
	v, _ := tm.Get("count")
	assert.Equal(t, 1, v)

	assert.True(t, tm.Undo())
	v, _ = tm.Get("count")
	assert.Equal(t, 0, v)

	assert.False(t, tm.Undo())

	assert.True(t, tm.Redo())
	v, _ = tm.Get("count")
	assert.Equal(t, 1, v)
}

func TestTraceModel_NewWriteDiscardsRedoTail(t *testing.T) {
	tm := New(newCounterModel(t))
	assert.NoError(t, tm.Set("count", 1))
	assert.NoError(t, tm.Set("count", 2))
	tm.Undo()
	assert.NoError(t, tm.Set("count", 99))

	assert.False(t, tm.Redo())
	v, _ := tm.Get("count")
	assert.Equal(t, 99, v)
}

func TestTraceModel_CommitReset(t *testing.T) {
	tm := New(newCounterModel(t))
	assert.NoError(t, tm.Set("count", 5))
	tm.Commit("checkpoint")

	assert.NoError(t, tm.Set("count", 100))
	assert.NoError(t, tm.Reset("checkpoint"))

	v, _ := tm.Get("count")
	assert.Equal(t, 5, v)
}

func TestTraceModel_ResetUnknownTagErrors(t *testing.T) {
	tm := New(newCounterModel(t))
	assert.Error(t, tm.Reset("nope"))
}

func TestTraceModel_Clear(t *testing.T) {
	tm := New(newCounterModel(t))
	assert.NoError(t, tm.Set("count", 1))
	tm.Clear()
	assert.False(t, tm.Undo())
}
