package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"TruthTrader/internal/broker"
	"TruthTrader/internal/model"
)

// SessionGuard gates trading to the exchange session window and forces
// liquidation when the close approaches.
type SessionGuard struct {
	Broker         broker.Brokerage
	CloseThreshold time.Duration
}

// NewSessionGuard creates a guard with the given approach-of-close threshold.
func NewSessionGuard(b broker.Brokerage, closeThreshold time.Duration) *SessionGuard {
	return &SessionGuard{Broker: b, CloseThreshold: closeThreshold}
}

// TradingWindowOpen reports whether new orders are currently permitted:
// market open and the clock timestamp inside [next_open, next_close], both
// ends inclusive.
func TradingWindowOpen(clock *model.Clock) bool {
	now := clock.Timestamp
	return clock.IsOpen && !now.Before(clock.NextOpen) && !now.After(clock.NextClose)
}

// ApproachingClose reports whether the session close is within the threshold.
// The boundary is inclusive: exactly threshold-to-close counts as approaching.
func ApproachingClose(clock *model.Clock, threshold time.Duration) bool {
	return clock.IsOpen && clock.NextClose.Sub(clock.Timestamp) <= threshold
}

// LiquidateIfApproachingClose closes every held instrument when the session
// is about to end. Per-symbol close failures are isolated so one rejection
// never strands the remaining positions. Returns the actions taken and
// whether liquidation was triggered at all; an empty book is a reported
// no-op, not a silent skip.
func (g *SessionGuard) LiquidateIfApproachingClose(ctx context.Context) ([]model.OrderAction, bool, error) {
	clock, err := g.Broker.GetClock(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("get clock: %w", err)
	}
	if !ApproachingClose(clock, g.CloseThreshold) {
		return nil, false, nil
	}

	log.Printf("[INFO] market closes at %s, liquidating all positions",
		clock.NextClose.Format(time.Kitchen))

	positions, err := g.Broker.ListPositions(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("list positions: %w", err)
	}
	if len(positions) == 0 {
		log.Println("[INFO] no open positions to liquidate")
		return nil, true, nil
	}

	actions := make([]model.OrderAction, 0, len(positions))
	for _, pos := range positions {
		action := model.OrderAction{Symbol: pos.Symbol, Side: "close", Qty: pos.Qty}
		if err := g.Broker.ClosePosition(ctx, pos.Symbol); err != nil {
			log.Printf("[ERROR] close %s near session end: %v", pos.Symbol, err)
			action.Err = err
		} else {
			log.Printf("[INFO] closed %s (qty %.2f) ahead of session close", pos.Symbol, pos.Qty)
		}
		actions = append(actions, action)
	}
	return actions, true, nil
}
