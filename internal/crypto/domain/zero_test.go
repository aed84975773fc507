package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("clears every buffer", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xAB}, KeySize)
		plaintext := []byte("123.456.789-00")

		Zero(key, plaintext)

		assert.Equal(t, make([]byte, KeySize), key)
		assert.Equal(t, make([]byte, len("123.456.789-00")), plaintext)
	})

	t.Run("keeps length and capacity", func(t *testing.T) {
		b := make([]byte, 4, 16)
		copy(b, "abcd")

		Zero(b)

		assert.Len(t, b, 4)
		assert.Equal(t, 16, cap(b))
	})

	t.Run("nil and empty buffers", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil, []byte{}) })
		assert.NotPanics(t, func() { Zero() })
	})
}
