package explain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CodeSnippet is one illustrative snippet in an explanation.
type CodeSnippet struct {
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
}

// Explanation is the structured answer the model is instructed to produce.
type Explanation struct {
	Summary             string        `json:"summary"`
	DetailedExplanation string        `json:"detailedExplanation"`
	CodeSnippets        []CodeSnippet `json:"codeSnippets"`
}

// ParseExplanation parses a model response into an Explanation. The response
// must be either a bare JSON object or exactly one fenced json block; prose
// around multiple fences, or a payload missing the required fields, is
// rejected rather than guessed at.
func ParseExplanation(raw string) (*Explanation, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	var e Explanation
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(e.Summary) == "" || strings.TrimSpace(e.DetailedExplanation) == "" {
		return nil, fmt.Errorf("%w: missing summary or detailedExplanation", ErrInvalidResponse)
	}
	return &e, nil
}

func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	if strings.HasPrefix(s, "{") {
		return s, nil
	}

	const fence = "```"
	first := strings.Index(s, fence)
	if first < 0 {
		return "", fmt.Errorf("%w: response is neither a JSON object nor a fenced block", ErrInvalidResponse)
	}
	rest := s[first+len(fence):]
	// Tolerate a language tag on the opening fence.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "json" || tag == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated fenced block", ErrInvalidResponse)
	}
	if strings.Contains(rest[end+len(fence):], fence) {
		return "", fmt.Errorf("%w: multiple fenced blocks", ErrInvalidResponse)
	}

	payload := strings.TrimSpace(rest[:end])
	if !strings.HasPrefix(payload, "{") {
		return "", fmt.Errorf("%w: fenced block does not contain a JSON object", ErrInvalidResponse)
	}
	return payload, nil
}
