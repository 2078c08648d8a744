// Package sentiment wraps a black-box text classifier and maps its output to
// a market outlook.
package sentiment

import (
	"context"
	"errors"

	"TruthTrader/internal/model"
)

// Result is the raw classifier output.
type Result struct {
	Label      string  // "POSITIVE", "NEGATIVE", or anything else
	Confidence float64 // [0,1]
}

// Classifier scores a piece of text. Implementations may call out over the
// network; failures must propagate, never silently degrade to Neutral.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// ErrMalformedResponse means the classifier endpoint returned a payload that
// could not be interpreted.
var ErrMalformedResponse = errors.New("sentiment: malformed classifier response")

// MapOutlook converts a classifier result to the ternary outlook. Results
// below minConfidence, and labels other than POSITIVE/NEGATIVE, map to
// Neutral. This is the only path that yields Neutral deliberately: classifier
// failures are reported as errors upstream instead.
func MapOutlook(res Result, minConfidence float64) model.Outlook {
	if res.Confidence < minConfidence {
		return model.Neutral
	}
	switch res.Label {
	case "POSITIVE":
		return model.Bullish
	case "NEGATIVE":
		return model.Bearish
	default:
		return model.Neutral
	}
}

// MockClassifier returns a fixed result for tests.
type MockClassifier struct {
	Result Result
	Err    error
	Calls  int
}

func (m *MockClassifier) Classify(_ context.Context, _ string) (Result, error) {
	m.Calls++
	if m.Err != nil {
		return Result{}, m.Err
	}
	return m.Result, nil
}
