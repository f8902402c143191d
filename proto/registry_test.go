package proto

import (
	"math"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
)

func TestBuiltinTokens_Typeof(t *testing.T) {
	assert.True(t, Is(String).Typeof("hello"))
	assert.False(t, Is(String).Typeof(1))

	assert.True(t, Is(Integer).Typeof(42))
	assert.False(t, Is(Integer).Typeof(4.2))

	assert.True(t, Is(Number).Typeof(4.2))
	assert.True(t, Is(Number).Typeof(42))

	assert.True(t, Is(Boolean).Typeof(true))
	assert.True(t, Is(Object).Typeof(map[string]any{}))
	assert.True(t, Is(Array).Typeof([]any{1, 2}))
	assert.True(t, Is(Function).Typeof(func() {}))

	assert.True(t, Is(NaN).Typeof(math.NaN()))
	assert.False(t, Is(NaN).Typeof(1.0))

	assert.True(t, Is(Infinity).Typeof(math.Inf(1)))
	assert.True(t, Is(Infinity).Typeof(math.Inf(-1)))
}

func TestRegexToken_MatchesOnlyStrings(t *testing.T) {
	re := regexp2.MustCompile(`^\d+$`, 0)
	assert.True(t, Is(re).Typeof("123"))
	assert.False(t, Is(re).Typeof("abc"))
	assert.False(t, Is(re).Typeof(123))
}

func TestRegisterUnregister(t *testing.T) {
	token := Token("custom:even")
	assert.False(t, Is(token).Existing())

	Register(token, func(v any) bool {
		n, ok := v.(int)
		return ok && n%2 == 0
	})
	assert.True(t, Is(token).Existing())
	assert.True(t, Is(token).Typeof(4))
	assert.False(t, Is(token).Typeof(3))

	Unregister(token)
	assert.False(t, Is(token).Existing())
}

func TestEqual(t *testing.T) {
	assert.True(t, Is(Token(5)).Equal(5))
	assert.False(t, Is(Token(5)).Equal(6))
}
