package types

import (
	"testing"

	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/stretchr/testify/assert"
)

func TestTuple_StrictLengthMismatch(t *testing.T) {
	tup := Tuple(proto.String, proto.Number)
	err := tup.Catch([]any{"a"})
	assert.NotNil(t, err)
}

func TestTuple_SingleElementIsNotList(t *testing.T) {
	tup := Tuple(proto.Number)
	assert.Nil(t, tup.Catch([]any{1}))
	assert.NotNil(t, tup.Catch([]any{1, 2}))
}

func TestTuple_LooseIgnoresExtraPositions(t *testing.T) {
	tup := Tuple(proto.String).Loose()
	assert.Nil(t, tup.Catch([]any{"a", "b", "c"}))
}

func TestEnum_MatchesAny(t *testing.T) {
	e := Enum("red", "green", "blue")
	assert.Nil(t, e.Catch("green"))
	assert.NotNil(t, e.Catch("purple"))
}

func TestRange_Bounds(t *testing.T) {
	r := Range(RangeOpts{Min: 0, Max: 10, MinBound: true, MaxBound: true})
	assert.Nil(t, r.Catch(5))
	assert.NotNil(t, r.Catch(-1))
	assert.NotNil(t, r.Catch(11))
	assert.NotNil(t, r.Catch("nope"))
}

func TestRange_OneSided(t *testing.T) {
	r := Range(RangeOpts{Min: 0, MinBound: true})
	assert.Nil(t, r.Catch(1000000))
	assert.NotNil(t, r.Catch(-1))
}

func TestSelfRef_ResolvesLazily(t *testing.T) {
	var node *Type
	node = Dict(map[string]any{
		"value": proto.Number,
		"next":  Nullable(SelfRef(func() Pattern { return node })),
	})

	assert.Nil(t, node.Catch(map[string]any{
		"value": 1,
		"next": map[string]any{
			"value": 2,
			"next":  nil,
		},
	}))
}

func TestDict_StrictRejectsUnknownKeys(t *testing.T) {
	d := Dict(map[string]any{"a": proto.Number})
	assert.NotNil(t, d.Catch(map[string]any{"a": 1, "b": 2}))
	assert.Nil(t, d.Loose().Catch(map[string]any{"a": 1, "b": 2}))
}

func TestList_EveryElementMustMatch(t *testing.T) {
	l := List(proto.Number)
	assert.Nil(t, l.Catch([]any{1, 2, 3}))
	assert.NotNil(t, l.Catch([]any{1, "x", 3}))
}
