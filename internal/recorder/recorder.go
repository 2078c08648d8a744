package recorder

import "TruthTrader/internal/model"

// CycleRecord holds the terminal outcome of one poll cycle.
type CycleRecord struct {
	SignalID string
	Outlook  model.Outlook
	Outcome  model.Outcome
	ErrMsg   string
}

// OrderRecord holds one attempted order (reconciliation or liquidation).
type OrderRecord struct {
	SignalID string
	Symbol   string
	Side     string
	Qty      float64
	Status   string // "submitted", "failed", "skipped"
	Note     string
}

// Recorder persists historical data for analysis. Recording failures must
// never affect trading decisions; callers log and move on.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordOrder(rec *OrderRecord) error
	Close() error
}
