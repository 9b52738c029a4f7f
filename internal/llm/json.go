package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTruncated is returned with the partial text when the model hit max_tokens
var ErrTruncated = errors.New("llm: response truncated at max_tokens")

// ExtractJSON pulls the JSON payload out of a model reply: markdown fences
// and any prose around the outermost object or array are dropped.
func ExtractJSON(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	start := strings.IndexAny(resp, "{[")
	if start < 0 {
		return resp
	}
	closer := byte('}')
	if resp[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(resp, closer)
	if end < start {
		return resp[start:]
	}
	return resp[start : end+1]
}

// DecodeJSON extracts and unmarshals a model reply into v
func DecodeJSON(resp string, v any) error {
	payload := ExtractJSON(resp)
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parse json: %w (response: %s)", err, preview(payload, 200))
	}
	return nil
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
