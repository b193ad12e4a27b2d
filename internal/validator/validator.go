// Package validator parses the scoring model's reply and enforces the
// TrustAnalysis schema. Validation is total: whatever the model returned, the
// caller receives a well-typed result, never an error. A reply that cannot be
// parsed at all yields the fixed error-shaped analysis.
package validator

import (
	"encoding/json"

	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/types"
)

// replyEnvelope is the chat-completion wire shape the model service answers with
type replyEnvelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Validator repairs model replies into valid TrustAnalysis values
type Validator struct {
	logger *logging.Logger
}

// New creates a validator
func New(logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Validator{logger: logger}
}

// ErrorAnalysis is the fixed result substituted when the model's reply is
// structurally unusable. It is a valid analysis, not an error: the pipeline
// always returns a score-shaped answer once the model responds at all.
func ErrorAnalysis() types.TrustAnalysis {
	return types.TrustAnalysis{
		TrustScore:      0,
		Classification:  types.ClassificationError,
		Summary:         "There was an error analyzing this address",
		Factors:         []types.Factor{},
		Recommendations: []string{"Try again later"},
		RiskAreas:       []string{"Analysis error"},
	}
}

// Validate turns a raw model reply into a TrustAnalysis. Missing or
// mistyped fields substitute their documented defaults; an unrecognizable
// envelope or unparseable content substitutes the error-shaped analysis.
func (v *Validator) Validate(reply []byte) types.TrustAnalysis {
	var envelope replyEnvelope
	if err := json.Unmarshal(reply, &envelope); err != nil {
		v.logger.WithError(err).Error("Unrecognized model reply envelope")
		return ErrorAnalysis()
	}

	if len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == "" {
		v.logger.Error("Model reply envelope has no content")
		return ErrorAnalysis()
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(envelope.Choices[0].Message.Content), &parsed); err != nil {
		v.logger.WithError(err).Error("Model reply content is not valid JSON")
		return ErrorAnalysis()
	}

	score, ok := parsed["trustScore"].(float64)
	if !ok {
		v.logger.Warn("Missing or invalid trustScore in model reply")
	}

	// trustScore is deliberately not clamped to [0,100]: a model that
	// violates the rubric passes through unchanged.
	return types.TrustAnalysis{
		TrustScore:      score,
		Classification:  stringOr(parsed["classification"], types.ClassificationUnknown),
		Summary:         stringOr(parsed["summary"], "Could not analyze address"),
		Factors:         coerceFactors(parsed["factors"]),
		Recommendations: coerceStrings(parsed["recommendations"]),
		RiskAreas:       coerceStrings(parsed["riskAreas"]),
	}
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// coerceFactors keeps the model's emission order; elements that are not
// objects are dropped, mistyped fields inside an element default.
func coerceFactors(v interface{}) []types.Factor {
	items, ok := v.([]interface{})
	if !ok {
		return []types.Factor{}
	}

	factors := make([]types.Factor, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		factor := types.Factor{
			Name:        stringOr(obj["name"], ""),
			Description: stringOr(obj["description"], ""),
		}
		if score, ok := obj["score"].(float64); ok {
			factor.Score = score
		}
		factors = append(factors, factor)
	}
	return factors
}

func coerceStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}

	strs := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			strs = append(strs, s)
		}
	}
	return strs
}
