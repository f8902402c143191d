package tyerror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_RenderedForm(t *testing.T) {
	e := New(Mistaken, 42, "String")
	assert.Equal(t, `mistaken: value 42 does not match String at <root>`, e.Error())
}

func TestWithPath_PrependsInOrder(t *testing.T) {
	e := New(Mistaken, 1, "Number").WithPath("b").WithPath("a")
	assert.Equal(t, []any{"a", "b"}, e.Path)
	assert.Contains(t, e.Error(), "at a.b")
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	leaf := New(Missing, nil, "String")
	root := Wrap(Dirty, map[string]any{}, "Dict", leaf)

	assert.True(t, errors.Is(root, leaf) || errors.As(root, &leaf))
	assert.Same(t, leaf, root.Cause)
	assert.Contains(t, root.Error(), leaf.Error())
}
