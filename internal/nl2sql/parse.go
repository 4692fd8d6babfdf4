package nl2sql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseCandidate extracts the JSON answer from a model reply. Code fences and
// chatter around the object are tolerated.
func ParseCandidate(content string) (Candidate, error) {
	trimmed := stripMarkdownFence(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return Candidate{}, fmt.Errorf("%w: no JSON object in reply %q", ErrMalformedResponse, preview(content))
	}

	var raw struct {
		IsAnswerable flexibleBool `json:"is_answerable"`
		SQL          string       `json:"sql"`
		Explanation  string       `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return Candidate{
		IsAnswerable: bool(raw.IsAnswerable),
		SQL:          raw.SQL,
		Explanation:  raw.Explanation,
	}, nil
}

// Some models quote booleans.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		*b = false
		return nil
	}
	parsed, err := strconv.ParseBool(text)
	if err != nil {
		return fmt.Errorf("is_answerable: %w", err)
	}
	*b = flexibleBool(parsed)
	return nil
}

func stripMarkdownFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 && !strings.ContainsAny(trimmed[:newline], "{}") {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func preview(value string) string {
	const limit = 120
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
