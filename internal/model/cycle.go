package model

// Outcome classifies how a poll cycle terminated.
type Outcome string

const (
	// OutcomeNoop means no new signal was observed (or the source was empty).
	OutcomeNoop Outcome = "NO_OP"
	// OutcomeTraded means at least one order was submitted.
	OutcomeTraded Outcome = "TRADED"
	// OutcomeHeld means a new signal was handled but no order was needed.
	OutcomeHeld Outcome = "HELD"
	// OutcomeSkippedClosed means a new signal arrived outside the trading window.
	OutcomeSkippedClosed Outcome = "SKIPPED_CLOSED"
	// OutcomeError means the cycle aborted before the signal could be handled.
	OutcomeError Outcome = "ERROR"
)

// OrderAction records one attempted order during reconciliation or liquidation.
type OrderAction struct {
	Symbol string
	Side   string // "buy", "sell", "close"
	Qty    float64
	Err    error
	Note   string
}

// CycleResult is the terminal outcome of one orchestrated poll cycle.
type CycleResult struct {
	Outcome  Outcome
	SignalID string
	Outlook  Outlook
	Actions  []OrderAction
	Err      error
}

// ExitCode maps the cycle outcome to a process exit status for one-shot runs.
func (r *CycleResult) ExitCode() int {
	if r.Outcome == OutcomeError {
		return 1
	}
	return 0
}
