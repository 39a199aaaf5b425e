/*
Package extract pulls the authoritative yearly figures out of an uploaded
statement PDF.

PURPOSE:
  A yearly statement ("notice of assessment") arrives as a PDF. The
  extractor asks a model to read it and return the handful of figures
  the snapshot store cares about: tax year, deduction limit, earned
  income, room as of January 1. The result is a PROPOSED snapshot - the
  caller reviews and upserts it; nothing is persisted here.

  The model's answer is treated as untrusted input: fenced, wrapped or
  chatty responses are cleaned before parsing, and a response that still
  fails to parse is an error, never a guess.
*/
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when the config does not name one.
const DefaultModel = "gemini-2.0-flash"

// Fields is the extractor's output: the figures a statement carries.
// Pointer fields are nil when the statement does not mention them.
type Fields struct {
	TaxYear        int      `json:"tax_year"`
	DeductionLimit *float64 `json:"deduction_limit"`
	EarnedIncome   *float64 `json:"earned_income"`
	RoomAsOfJan1   *float64 `json:"room_as_of_jan1"`
	Confidence     float64  `json:"confidence"`
}

// Extractor reads statement PDFs. The API handler depends on this
// interface so tests can stub the model.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (Fields, error)
}

// Gemini implements Extractor against the GenAI API.
type Gemini struct {
	model string
}

// NewGemini returns an extractor using the given model name. The API key
// is read from the environment by the client library.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{model: model}
}

const prompt = `You are a tax statement parser for notice-of-assessment PDFs.

Task:
- Find the statement's tax year and its room/limit figures.
- Output STRICT JSON only (no comments, no extra text).
- Output a single JSON object.

The object must have these fields:
- "tax_year": integer, the tax year the figures apply to
- "deduction_limit": number or null (the deduction limit for the tax year)
- "earned_income": number or null
- "room_as_of_jan1": number or null (unused room as of January 1 of the tax year)
- "confidence": number between 0 and 1

Rules:
- Set a field to null when the statement does not state it.
- Amounts are plain numbers: no currency symbols, no thousands separators.
- Return ONLY valid raw JSON.
- Do NOT wrap the response in code fences.
- Output must begin with "{" and end with "}".`

// Extract sends the PDF to the model and parses the returned figures.
func (g *Gemini) Extract(ctx context.Context, pdf []byte) (Fields, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return Fields{}, fmt.Errorf("extract: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Fields{}, fmt.Errorf("extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return Fields{}, fmt.Errorf("extract: empty response from model")
	}

	return parseFields(rawText)
}

func parseFields(raw string) (Fields, error) {
	clean := cleanModelJSON(raw)

	var fields Fields
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return Fields{}, fmt.Errorf("extract: unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	if fields.TaxYear < 1900 || fields.TaxYear > 2200 {
		return Fields{}, fmt.Errorf("extract: implausible tax year %d", fields.TaxYear)
	}
	return fields, nil
}

// cleanModelJSON strips Markdown fences and surrounding chatter when the
// model ignores the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
