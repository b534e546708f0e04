package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ComposesDecomposedText(t *testing.T) {
	decomposed := "café"

	got := Normalize(decomposed)

	assert.Equal(t, "café", got)
	assert.True(t, IsNormalized(got))
	assert.False(t, IsNormalized(decomposed))
}

func TestNormalize_Devanagari(t *testing.T) {
	// U+0958 is a composition exclusion: NFC yields QA + NUKTA.
	assert.Equal(t, "क़", Normalize("क़"))
	assert.Equal(t, "क़", Normalize("क़"))

	greeting := "नमस्ते"
	assert.True(t, IsNormalized(greeting))
	assert.Equal(t, greeting, Normalize(greeting))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"नमस्ते",
		"café",
		"क़ख़",
		"Å",
		"🚫 Access denied.",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		assert.True(t, IsNormalized(once), "input %q", in)
	}
}
