package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sevigo/codescribe/internal/core"
)

// parseReviewResult extracts the structured review from the LLM's raw
// output. The contract asks for bare JSON, but models routinely disobey, so
// this handles the common quirks:
//   - response wrapped in ``` or ```json fences
//   - prose before or after the JSON object
//   - a bare top-level array of suggestions instead of the wrapping object
func parseReviewResult(raw string) (*core.ReviewResult, error) {
	cleaned := stripFence(strings.TrimSpace(raw))

	if extracted, ok := extractJSON(cleaned, '{', '}'); ok {
		var result core.ReviewResult
		if err := json.Unmarshal([]byte(extracted), &result); err == nil {
			if result.Suggestions == nil {
				result.Suggestions = []core.Suggestion{}
			}
			return &result, nil
		}
	}

	if extracted, ok := extractJSON(cleaned, '[', ']'); ok {
		var suggestions []core.Suggestion
		if err := json.Unmarshal([]byte(extracted), &suggestions); err == nil {
			return &core.ReviewResult{Suggestions: suggestions}, nil
		}
	}

	return nil, fmt.Errorf("LLM output contains no parsable review JSON")
}

// stripFence removes a wrapping markdown code fence, with or without a
// language tag.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if idx := strings.Index(rest, "\n"); idx != -1 {
		rest = rest[idx+1:]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// extractJSON returns the substring from the first open delimiter to the
// last close delimiter, which tolerates prose on either side of the JSON.
func extractJSON(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
