package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes surrounding markdown code-fence markup that LLM
// providers sometimes wrap around JSON output despite instructions.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	// Drop a language tag line like "json".
	if idx := strings.Index(s, "\n"); idx != -1 && !strings.HasPrefix(s, "{") {
		s = strings.TrimSpace(s[idx+1:])
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject slices out the substring from the first '{' to the last
// '}' so that stray prose around a JSON object does not break parsing.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return ""
	}
	return s[start : end+1]
}

// ParseJSON cleans and unmarshals an LLM text response into T. It handles
// common quirks like surrounding markdown fences or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr := ExtractJSONObject(StripCodeFence(response))
	if jsonStr == "" {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
