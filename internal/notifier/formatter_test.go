package notifier

import (
	"errors"
	"strings"
	"testing"

	"TruthTrader/internal/model"
)

func TestFormatNewSignal_TruncatesLongBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	msg := FormatNewSignal(&model.Signal{ID: "April 11, 2025, 12:42 PM", Body: long})

	if !strings.Contains(msg, "April 11, 2025, 12:42 PM") {
		t.Error("message should carry the post identifier")
	}
	if !strings.Contains(msg, "…") {
		t.Error("long body should be truncated with an ellipsis")
	}
	if strings.Contains(msg, long) {
		t.Error("full 500-char body should not be included")
	}
}

func TestFormatCycleReport_ByOutcome(t *testing.T) {
	tests := []struct {
		name string
		res  *model.CycleResult
		want string
	}{
		{"traded", &model.CycleResult{Outcome: model.OutcomeTraded, Outlook: model.Bullish,
			Actions: []model.OrderAction{{Symbol: "SPY", Side: "buy", Qty: 10}}}, "buy SPY"},
		{"held", &model.CycleResult{Outcome: model.OutcomeHeld, Outlook: model.Neutral}, "No order needed"},
		{"skipped closed", &model.CycleResult{Outcome: model.OutcomeSkippedClosed, Outlook: model.Bearish}, "market is closed"},
		{"error", &model.CycleResult{Outcome: model.OutcomeError, Err: errors.New("boom")}, "boom"},
	}
	for _, tt := range tests {
		if msg := FormatCycleReport(tt.res); !strings.Contains(msg, tt.want) {
			t.Errorf("%s: expected %q in message:\n%s", tt.name, tt.want, msg)
		}
	}
}

func TestFormatCycleReport_FailedActionSurfaced(t *testing.T) {
	res := &model.CycleResult{
		Outcome: model.OutcomeTraded,
		Outlook: model.Bullish,
		Actions: []model.OrderAction{
			{Symbol: "SH", Side: "close", Qty: 5},
			{Symbol: "SPY", Side: "buy", Err: errors.New("rejected")},
		},
	}
	msg := FormatCycleReport(res)
	if !strings.Contains(msg, "close SH") || !strings.Contains(msg, "buy SPY failed") {
		t.Errorf("expected both actions reported:\n%s", msg)
	}
}

func TestFormatLiquidation(t *testing.T) {
	if msg := FormatLiquidation(nil); !strings.Contains(msg, "No open positions") {
		t.Errorf("empty book message missing:\n%s", msg)
	}
	msg := FormatLiquidation([]model.OrderAction{{Symbol: "SPY", Side: "close", Qty: 10}})
	if !strings.Contains(msg, "close SPY") {
		t.Errorf("expected close listed:\n%s", msg)
	}
}
