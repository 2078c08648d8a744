// Package broker abstracts the brokerage operations the reconciliation engine
// consumes: calendar/session status, positions, buying power, prices, and
// market orders.
package broker

import (
	"context"
	"errors"

	"TruthTrader/internal/model"
)

var (
	// ErrNoPosition means the account holds nothing in the requested symbol.
	// Deliberately distinct from transport or auth failures so callers can
	// tell "no position" from "lookup failed".
	ErrNoPosition = errors.New("broker: no open position")
	// ErrRateLimited means the brokerage rejected the request for quota.
	ErrRateLimited = errors.New("broker: rate limited")
	// ErrOrderRejected means the brokerage refused an order submission.
	ErrOrderRejected = errors.New("broker: order rejected")
)

// OrderRequest describes a market order to submit.
type OrderRequest struct {
	Symbol      string
	Qty         float64
	Side        string // "buy" or "sell"
	TimeInForce string // e.g. "gtc", "day"
}

// Brokerage is the set of operations consumed by reconciliation.
type Brokerage interface {
	GetClock(ctx context.Context) (*model.Clock, error)
	// GetPosition returns ErrNoPosition when the symbol is not held.
	GetPosition(ctx context.Context, symbol string) (*model.Position, error)
	BuyingPower(ctx context.Context) (float64, error)
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	SubmitOrder(ctx context.Context, req OrderRequest) error
	ListPositions(ctx context.Context) ([]model.Position, error)
	ClosePosition(ctx context.Context, symbol string) error
}
