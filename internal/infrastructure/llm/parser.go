package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
)

var _ rubric.Parser = (*Gemini)(nil)

// ParseDocumentText extracts a rubric structure from free-form document
// text. Parsing runs at its own low temperature so the structured output is
// stable across retries.
func (g *Gemini) ParseDocumentText(ctx context.Context, text string) (*rubric.Rubric, error) {
	response, err := g.generateText(ctx, telemetry.GeminiOpParseRubric, g.cfg.ParsingTemperature, buildParsingPrompt(text))
	if err != nil {
		return nil, err
	}

	object, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", rubric.ErrUnparseableDocument)
	}

	var parsed rubric.Rubric
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", rubric.ErrUnparseableDocument, err)
	}

	if parsed.Name == "" {
		parsed.Name = "Uploaded Rubric"
	}
	if err := parsed.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", rubric.ErrUnparseableDocument, err)
	}
	return &parsed, nil
}

// buildParsingPrompt renders the rubric extraction instruction
func buildParsingPrompt(documentText string) string {
	return fmt.Sprintf(`You are an expert at extracting rubric information from documents.

Analyze the following document and extract the grading rubric structure. The document may contain:
- A rubric table with criteria and point values
- A list of criteria with points
- Point ranges (like "0-1" or "0 – 0.5")
- Decimal point values (like 0.5, 1.0)

Extract the rubric information and return it as JSON in this exact format:
{
  "name": "Rubric Name",
  "total_points": <total number or sum of all criteria>,
  "criteria": [
    {
      "name": "Criterion Name",
      "max_points": <number>,
      "description": "Description or evaluation levels"
    }
  ]
}

IMPORTANT:
- If there are point ranges (e.g., "0 – 1"), use the maximum value as max_points
- If total points is mentioned (e.g., "out of 5 points"), use that; otherwise sum all criteria
- Include all criteria found in the rubric
- For descriptions, include the evaluation levels/descriptors if available
- Return ONLY valid JSON, no additional text or markdown

DOCUMENT:
%s

Return the JSON now:`, documentText)
}
