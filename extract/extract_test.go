package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields_CleanJSON(t *testing.T) {
	fields, err := parseFields(`{"tax_year": 2025, "deduction_limit": 12500, "earned_income": 90000, "room_as_of_jan1": null, "confidence": 0.95}`)
	require.NoError(t, err)

	assert.Equal(t, 2025, fields.TaxYear)
	require.NotNil(t, fields.DeductionLimit)
	assert.Equal(t, 12500.0, *fields.DeductionLimit)
	assert.Nil(t, fields.RoomAsOfJan1)
	assert.Equal(t, 0.95, fields.Confidence)
}

func TestParseFields_FencedResponse(t *testing.T) {
	raw := "```json\n{\"tax_year\": 2024, \"deduction_limit\": null, \"earned_income\": null, \"room_as_of_jan1\": 21000, \"confidence\": 0.8}\n```"
	fields, err := parseFields(raw)
	require.NoError(t, err)

	assert.Equal(t, 2024, fields.TaxYear)
	require.NotNil(t, fields.RoomAsOfJan1)
	assert.Equal(t, 21000.0, *fields.RoomAsOfJan1)
}

func TestParseFields_ChatterAroundJSON(t *testing.T) {
	raw := "Here are the figures I found:\n{\"tax_year\": 2025, \"confidence\": 0.5}\nLet me know if you need anything else."
	fields, err := parseFields(raw)
	require.NoError(t, err)
	assert.Equal(t, 2025, fields.TaxYear)
}

func TestParseFields_NotJSON(t *testing.T) {
	_, err := parseFields("I could not read the document.")
	assert.Error(t, err)
}

func TestParseFields_ImplausibleYear(t *testing.T) {
	_, err := parseFields(`{"tax_year": 25, "confidence": 0.9}`)
	assert.Error(t, err)
}
