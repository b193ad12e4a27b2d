package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trust-scanner/internal/types"
)

// envelope wraps content the way the model service does
func envelope(t *testing.T, content string) []byte {
	t.Helper()
	reply, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	require.NoError(t, err)
	return reply
}

func TestValidate_WellFormedReply(t *testing.T) {
	content := `{
		"trustScore": 70,
		"classification": "Trusted",
		"summary": "Established wallet with diverse activity, scored 70.",
		"factors": [
			{"name": "Age Factor", "score": 15, "description": "Over 365 days old"},
			{"name": "Transaction Velocity Factor", "score": 0, "description": "Low velocity"},
			{"name": "Address Diversity Factor", "score": 10, "description": "High diversity"},
			{"name": "Contract Interaction Factor", "score": -10, "description": "Flagged contract"},
			{"name": "Token Holdings Factor", "score": 5, "description": "Holds stablecoins"}
		],
		"recommendations": ["Monitor flagged contract exposure"],
		"riskAreas": ["One flagged contract interaction"]
	}`

	analysis := New(nil).Validate(envelope(t, content))

	assert.Equal(t, float64(70), analysis.TrustScore)
	assert.Equal(t, types.ClassificationTrusted, analysis.Classification)
	require.Len(t, analysis.Factors, 5)
	// Emission order is preserved
	assert.Equal(t, "Age Factor", analysis.Factors[0].Name)
	assert.Equal(t, "Token Holdings Factor", analysis.Factors[4].Name)
	assert.Equal(t, float64(-10), analysis.Factors[3].Score)
	assert.Equal(t, []string{"Monitor flagged contract exposure"}, analysis.Recommendations)
	assert.Equal(t, []string{"One flagged contract interaction"}, analysis.RiskAreas)
}

func TestValidate_MissingFieldsDefault(t *testing.T) {
	analysis := New(nil).Validate(envelope(t, `{"trustScore": 42}`))

	assert.Equal(t, float64(42), analysis.TrustScore)
	assert.Equal(t, types.ClassificationUnknown, analysis.Classification)
	assert.Equal(t, "Could not analyze address", analysis.Summary)
	assert.Equal(t, []types.Factor{}, analysis.Factors)
	assert.Equal(t, []string{}, analysis.Recommendations)
	assert.Equal(t, []string{}, analysis.RiskAreas)
}

func TestValidate_MistypedFieldsDefault(t *testing.T) {
	content := `{
		"trustScore": "seventy",
		"classification": 5,
		"summary": "",
		"factors": "not-a-list",
		"recommendations": {"a": 1},
		"riskAreas": [1, "real risk", null]
	}`

	analysis := New(nil).Validate(envelope(t, content))

	assert.Equal(t, float64(0), analysis.TrustScore)
	assert.Equal(t, types.ClassificationUnknown, analysis.Classification)
	assert.Equal(t, "Could not analyze address", analysis.Summary)
	assert.Equal(t, []types.Factor{}, analysis.Factors)
	assert.Equal(t, []string{}, analysis.Recommendations)
	// Non-string elements are dropped, not defaulted
	assert.Equal(t, []string{"real risk"}, analysis.RiskAreas)
}

func TestValidate_OutOfRangeScorePassesThrough(t *testing.T) {
	analysis := New(nil).Validate(envelope(t, `{"trustScore": 150, "classification": "Highly Trusted", "summary": "s"}`))

	// Scores are not clamped to [0,100]
	assert.Equal(t, float64(150), analysis.TrustScore)
}

func TestValidate_ErrorShapedFallback(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
	}{
		{name: "unparseable content", reply: envelope(t, "I could not produce JSON, sorry.")},
		{name: "empty content", reply: envelope(t, "")},
		{name: "no choices", reply: []byte(`{"choices": []}`)},
		{name: "envelope not JSON", reply: []byte(`total garbage`)},
		{name: "empty reply", reply: []byte(``)},
	}

	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := v.Validate(tt.reply)
			assert.Equal(t, ErrorAnalysis(), analysis)
		})
	}
}

func TestErrorAnalysisShape(t *testing.T) {
	analysis := ErrorAnalysis()

	assert.Equal(t, float64(0), analysis.TrustScore)
	assert.Equal(t, types.ClassificationError, analysis.Classification)
	assert.NotEmpty(t, analysis.Summary)
	assert.Equal(t, []types.Factor{}, analysis.Factors)
	assert.Equal(t, []string{"Try again later"}, analysis.Recommendations)
	assert.Equal(t, []string{"Analysis error"}, analysis.RiskAreas)
}
