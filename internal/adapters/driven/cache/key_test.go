package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "text"), Key("m", "text"))
	assert.NotEqual(t, Key("m1", "text"), Key("m2", "text"))
	// The separator keeps "ab"+"c" apart from "a"+"bc".
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Len(t, Key("m", ""), 64)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, 1.5, -2.25, 3e-8}
	assert.Equal(t, v, DecodeVector(EncodeVector(v)))
	assert.Nil(t, DecodeVector(nil))
	assert.Nil(t, DecodeVector([]byte{1, 2, 3}))
}
