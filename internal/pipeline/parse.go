package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pitchforge/pitchforge/internal/resilience"
)

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// decodeJSON parses model output into T. A decode failure is a
// resilience.ParseError so the retry wrapper requests a fresh generation.
func decodeJSON[T any](text string) (T, error) {
	var out T
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return out, resilience.NewParseError(eris.New("empty model output"), text)
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, resilience.NewParseError(err, text)
	}
	return out, nil
}
