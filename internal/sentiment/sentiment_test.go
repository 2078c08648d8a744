package sentiment

import (
	"testing"

	"TruthTrader/internal/model"
)

func TestMapOutlook(t *testing.T) {
	tests := []struct {
		name          string
		res           Result
		minConfidence float64
		want          model.Outlook
	}{
		{"positive high confidence", Result{"POSITIVE", 0.99}, 0.9, model.Bullish},
		{"negative high confidence", Result{"NEGATIVE", 0.95}, 0.9, model.Bearish},
		{"positive at threshold", Result{"POSITIVE", 0.9}, 0.9, model.Bullish},
		{"positive below threshold", Result{"POSITIVE", 0.89}, 0.9, model.Neutral},
		{"negative below threshold", Result{"NEGATIVE", 0.5}, 0.9, model.Neutral},
		{"other label", Result{"NEUTRAL", 0.99}, 0.9, model.Neutral},
		{"empty label", Result{"", 1.0}, 0.9, model.Neutral},
		{"no threshold configured", Result{"POSITIVE", 0.1}, 0, model.Bullish},
	}
	for _, tt := range tests {
		if got := MapOutlook(tt.res, tt.minConfidence); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}
