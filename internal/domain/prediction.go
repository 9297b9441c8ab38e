package domain

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrMissingDecisionKey is wrapped by DecisionError.
	ErrMissingDecisionKey = errors.New("decision record missing key")
	// ErrMalformedDecision reports model output that is not a JSON object.
	ErrMalformedDecision = errors.New("decision record is not a JSON object")
)

// DecisionKeys are the keys every model decision must carry.
var DecisionKeys = []string{"decision", "percentage", "reason"}

type DecisionError struct {
	Key string
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingDecisionKey, e.Key)
}

func (e *DecisionError) Unwrap() error { return ErrMissingDecisionKey }

// PredictionResult is the model's trading recommendation.
// Percentage keeps the model's text so "30" and "30%" both survive.
type PredictionResult struct {
	Decision   string `json:"decision"`
	Percentage string `json:"percentage"`
	Reason     string `json:"reason"`
}

// ParsePrediction reads a decision record from the model's JSON output.
func ParsePrediction(content string) (PredictionResult, error) {
	if !gjson.Valid(content) || !gjson.Parse(content).IsObject() {
		return PredictionResult{}, ErrMalformedDecision
	}

	values := gjson.GetMany(content, DecisionKeys...)
	for i, v := range values {
		if !v.Exists() {
			return PredictionResult{}, &DecisionError{Key: DecisionKeys[i]}
		}
	}

	return PredictionResult{
		Decision:   values[0].String(),
		Percentage: values[1].String(),
		Reason:     values[2].String(),
	}, nil
}
