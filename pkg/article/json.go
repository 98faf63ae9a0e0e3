package article

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// extractJSON pulls a JSON object or array out of a model response,
// tolerating markdown code fences and surrounding prose. Models frequently
// wrap their output in ```json blocks or lead with a sentence.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		text = strings.TrimPrefix(text, "json")
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	var start int
	var closer byte
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		start, closer = arrStart, ']'
	case objStart >= 0:
		start, closer = objStart, '}'
	default:
		return "", fmt.Errorf("article: no JSON found in response")
	}

	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", fmt.Errorf("article: incomplete JSON in response")
	}
	candidate := text[start : end+1]

	if !gjson.Valid(candidate) {
		return "", fmt.Errorf("article: invalid JSON in response")
	}
	return candidate, nil
}

// decodeJSON extracts and unmarshals the JSON payload of a model response
// into v.
func decodeJSON(text string, v any) error {
	payload, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("article: decode JSON: %w", err)
	}
	return nil
}
