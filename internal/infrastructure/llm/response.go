package llm

import "strings"

// extractJSONObject isolates the JSON object in a model response. Models
// wrap JSON in ```json fences or surrounding prose despite instructions, so
// fences are stripped first and the text is then cut to the outermost
// braces. Returns false when no object is present.
func extractJSONObject(response string) (string, bool) {
	text := strings.TrimSpace(response)

	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}
	text = strings.TrimSpace(text)

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return "", false
	}
	return text[first : last+1], true
}
