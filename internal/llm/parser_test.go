package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/codescribe/internal/core"
)

func TestParseReviewResult(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []core.Suggestion
		expectErr bool
	}{
		{
			name:  "clean JSON object",
			input: `{"suggestions":[{"description":"missing error check","suggestion_code":"if err != nil {\n\treturn err\n}"}]}`,
			want: []core.Suggestion{
				{Description: "missing error check", SuggestionCode: "if err != nil {\n\treturn err\n}"},
			},
		},
		{
			name:  "empty suggestions",
			input: `{"suggestions":[]}`,
			want:  []core.Suggestion{},
		},
		{
			name:  "null suggestions normalized to empty",
			input: `{"suggestions":null}`,
			want:  []core.Suggestion{},
		},
		{
			name: "json fence",
			input: "```json\n" +
				`{"suggestions":[{"description":"d","suggestion_code":"c"}]}` +
				"\n```",
			want: []core.Suggestion{{Description: "d", SuggestionCode: "c"}},
		},
		{
			name: "bare fence without language tag",
			input: "```\n" +
				`{"suggestions":[]}` +
				"\n```",
			want: []core.Suggestion{},
		},
		{
			name:  "preamble and trailing prose",
			input: "Here is my review:\n\n" + `{"suggestions":[{"description":"d","suggestion_code":"c"}]}` + "\n\nI hope this helps!",
			want:  []core.Suggestion{{Description: "d", SuggestionCode: "c"}},
		},
		{
			name:  "bare top-level array",
			input: `[{"description":"d1","suggestion_code":"c1"},{"description":"d2","suggestion_code":"c2"}]`,
			want: []core.Suggestion{
				{Description: "d1", SuggestionCode: "c1"},
				{Description: "d2", SuggestionCode: "c2"},
			},
		},
		{
			name:      "no JSON at all",
			input:     "The pull request looks fine to me.",
			expectErr: true,
		},
		{
			name:      "broken JSON",
			input:     `{"suggestions":[{"description":"d"`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseReviewResult(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Suggestions)
		})
	}
}

func TestParseReviewResultPreservesOrder(t *testing.T) {
	input := `{"suggestions":[
		{"description":"first","suggestion_code":"a"},
		{"description":"second","suggestion_code":"b"},
		{"description":"third","suggestion_code":"c"}
	]}`
	result, err := parseReviewResult(input)
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 3)
	assert.Equal(t, "first", result.Suggestions[0].Description)
	assert.Equal(t, "second", result.Suggestions[1].Description)
	assert.Equal(t, "third", result.Suggestions[2].Description)
}
