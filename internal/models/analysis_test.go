package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisEncoding(t *testing.T) {
	raw, err := EncodeAnalysis(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = EncodeAnalysis(&Analysis{})
	require.NoError(t, err)
	assert.Nil(t, raw)

	in := &Analysis{
		CoverageItems: []string{"Parts"},
		ClaimContacts: &ClaimContacts{Email: "claims@example.com"},
		CriticalDates: []CriticalDate{{Date: "2024-05-01", Description: "Inspection", Type: "inspection_required"}},
	}
	raw, err = EncodeAnalysis(in)
	require.NoError(t, err)
	require.NotNil(t, raw)

	out, err := DecodeAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = DecodeAnalysis(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = DecodeAnalysis(ptrTo("{"))
	assert.Error(t, err)
}

func TestAnalyzedWarrantyRequest_FlatJSON(t *testing.T) {
	body := `{
		"product_name": "Blender",
		"duration": "2 years",
		"coverage_items": ["Motor"],
		"exclusions": ["Misuse"],
		"limitations": ["Home use only"],
		"claim_procedure": "Return to store",
		"claim_contacts": {"phone": "+1 555 0100"},
		"required_docs": ["Receipt"],
		"critical_dates": [{"date": "2024-02-01", "description": "Register", "type": "registration_deadline"}],
		"highlights": [{"text": "Keep the box", "category": "info", "importance": 2}]
	}`

	var req AnalyzedWarrantyRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "Blender", req.ProductName)
	assert.Equal(t, []string{"Motor"}, req.CoverageItems)
	assert.Equal(t, []string{"Misuse"}, req.Exclusions)
	assert.Equal(t, []string{"Home use only"}, req.Limitations)
	assert.Equal(t, "Return to store", req.ClaimProcedure)
	assert.Equal(t, "+1 555 0100", req.ClaimContacts.Phone)
	assert.Equal(t, []string{"Receipt"}, req.RequiredDocs)
	require.Len(t, req.CriticalDates, 1)
	assert.Equal(t, "registration_deadline", req.CriticalDates[0].Type)
	require.Len(t, req.Highlights, 1)
	assert.Equal(t, HighlightInfo, req.Highlights[0].Category)
	assert.False(t, req.Analysis.IsZero())
}

func ptrTo(s string) *string { return &s }
