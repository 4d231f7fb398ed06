package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExplanationBareObject(t *testing.T) {
	raw := `{"summary": "adds numbers", "detailedExplanation": "add takes two operands", "codeSnippets": [{"description": "definition", "snippet": "function add(a,b){return a+b;}"}]}`

	e, err := ParseExplanation(raw)

	require.NoError(t, err)
	assert.Equal(t, "adds numbers", e.Summary)
	assert.Equal(t, "add takes two operands", e.DetailedExplanation)
	require.Len(t, e.CodeSnippets, 1)
	assert.Equal(t, "function add(a,b){return a+b;}", e.CodeSnippets[0].Snippet)
}

func TestParseExplanationFencedBlock(t *testing.T) {
	raw := "```json\n{\"summary\": \"s\", \"detailedExplanation\": \"d\"}\n```"

	e, err := ParseExplanation(raw)

	require.NoError(t, err)
	assert.Equal(t, "s", e.Summary)
	assert.Empty(t, e.CodeSnippets)
}

func TestParseExplanationFenceWithoutTag(t *testing.T) {
	raw := "```\n{\"summary\": \"s\", \"detailedExplanation\": \"d\"}\n```"

	_, err := ParseExplanation(raw)
	assert.NoError(t, err)
}

func TestParseExplanationSurroundingProse(t *testing.T) {
	raw := "Here is the explanation:\n```json\n{\"summary\": \"s\", \"detailedExplanation\": \"d\"}\n```\nHope that helps!"

	e, err := ParseExplanation(raw)
	require.NoError(t, err)
	assert.Equal(t, "s", e.Summary)
}

func TestParseExplanationRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"plain prose", "The function adds two numbers."},
		{"unterminated fence", "```json\n{\"summary\": \"s\"}"},
		{"multiple fences", "```json\n{\"summary\": \"s\", \"detailedExplanation\": \"d\"}\n```\n```json\n{}\n```"},
		{"non-object fence", "```json\n[1, 2]\n```"},
		{"missing summary", `{"summary": "", "detailedExplanation": "d"}`},
		{"missing detail", `{"summary": "s"}`},
		{"unknown field", `{"summary": "s", "detailedExplanation": "d", "confidence": 0.9}`},
		{"invalid json", "```json\n{\"summary\": \n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExplanation(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}
