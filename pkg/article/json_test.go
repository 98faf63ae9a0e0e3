package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := extractJSON(`{"a": 1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractJSONFencedBlock(t *testing.T) {
	got, err := extractJSON("Here you go:\n```json\n{\"a\": 1}\n```\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractJSONBareFence(t *testing.T) {
	got, err := extractJSON("```\n[1, 2, 3]\n```")
	require.NoError(t, err)
	assert.Equal(t, `[1, 2, 3]`, got)
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	got, err := extractJSON(`Sure! The badges are {"badges": []} as requested.`)
	require.NoError(t, err)
	assert.Equal(t, `{"badges": []}`, got)
}

func TestExtractJSONArrayBeforeObject(t *testing.T) {
	got, err := extractJSON(`[{"q": "why"}]`)
	require.NoError(t, err)
	assert.Equal(t, `[{"q": "why"}]`, got)
}

func TestExtractJSONNoPayload(t *testing.T) {
	_, err := extractJSON("I could not produce any structured output.")
	require.Error(t, err)
}

func TestExtractJSONTruncated(t *testing.T) {
	_, err := extractJSON(`{"a": [1, 2`)
	require.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var faqs []FAQ
	err := decodeJSON("```json\n[{\"question\": \"Q\", \"answer\": \"A\"}]\n```", &faqs)
	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.Equal(t, "Q", faqs[0].Question)
}

func TestDecodeJSONShapeMismatch(t *testing.T) {
	var faqs []FAQ
	err := decodeJSON(`{"question": "Q"}`, &faqs)
	require.Error(t, err)
}
