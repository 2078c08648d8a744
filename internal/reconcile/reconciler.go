// Package reconcile maps a market outlook onto the account's holdings,
// issuing the minimal set of orders to reach the target exposure.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"TruthTrader/internal/broker"
	"TruthTrader/internal/model"
)

// Reconciler steers the account between the risk-on and risk-off instruments.
// Repeated invocation with unchanged holdings issues no duplicate orders.
type Reconciler struct {
	Broker  broker.Brokerage
	RiskOn  string
	RiskOff string
}

// NewReconciler creates a reconciler for a risk-on/risk-off instrument pair.
func NewReconciler(b broker.Brokerage, riskOn, riskOff string) *Reconciler {
	return &Reconciler{Broker: b, RiskOn: riskOn, RiskOff: riskOff}
}

// Result reports what reconciliation did.
type Result struct {
	Outcome model.Outcome
	Actions []model.OrderAction
}

// Reconcile drives holdings toward the outlook's target. Position state is
// read fresh from the broker at every decision point; nothing is trusted from
// earlier cycles. Order submission failures are recorded per action and never
// abort the remaining steps. Lookup failures abort with an error: deciding on
// unknown holdings is worse than not deciding.
func (r *Reconciler) Reconcile(ctx context.Context, outlook model.Outlook, sessionOpen bool) (*Result, error) {
	if !sessionOpen {
		log.Println("[INFO] market closed, reconciliation skipped")
		return &Result{Outcome: model.OutcomeSkippedClosed}, nil
	}

	switch outlook {
	case model.Bullish:
		return r.steer(ctx, r.RiskOn, r.RiskOff)
	case model.Bearish:
		return r.steer(ctx, r.RiskOff, r.RiskOn)
	default:
		log.Println("[INFO] outlook neutral, holding current position")
		return &Result{Outcome: model.OutcomeHeld}, nil
	}
}

// steer closes the opposite instrument if held, then opens the target sized
// by available buying power if not already held.
func (r *Reconciler) steer(ctx context.Context, target, opposite string) (*Result, error) {
	res := &Result{Outcome: model.OutcomeHeld}

	oppQty, err := r.positionQty(ctx, opposite)
	if err != nil {
		return nil, fmt.Errorf("lookup %s position: %w", opposite, err)
	}
	if oppQty > 0 {
		action := model.OrderAction{Symbol: opposite, Side: "close", Qty: oppQty}
		if err := r.Broker.ClosePosition(ctx, opposite); err != nil && !errors.Is(err, broker.ErrNoPosition) {
			log.Printf("[ERROR] close %s: %v", opposite, err)
			action.Err = err
		} else {
			log.Printf("[INFO] closed position in %s (qty %.2f)", opposite, oppQty)
			res.Outcome = model.OutcomeTraded
		}
		res.Actions = append(res.Actions, action)
	}

	// Re-read after the close so the open decision sees the just-issued
	// change, not a stale snapshot.
	targetQty, err := r.positionQty(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("lookup %s position: %w", target, err)
	}
	if targetQty > 0 {
		log.Printf("[INFO] already holding %.2f %s, no order needed", targetQty, target)
		return res, nil
	}

	res.Actions = append(res.Actions, r.openMax(ctx, target, res))
	return res, nil
}

// openMax buys as many shares of symbol as buying power allows. Zero
// computable shares is a recorded skip, not an error.
func (r *Reconciler) openMax(ctx context.Context, symbol string, res *Result) model.OrderAction {
	action := model.OrderAction{Symbol: symbol, Side: "buy"}

	power, err := r.Broker.BuyingPower(ctx)
	if err != nil {
		action.Err = fmt.Errorf("buying power: %w", err)
		log.Printf("[ERROR] buy %s: %v", symbol, action.Err)
		return action
	}
	price, err := r.Broker.LatestPrice(ctx, symbol)
	if err != nil || price <= 0 {
		if err == nil {
			err = fmt.Errorf("no price for %s", symbol)
		}
		action.Err = fmt.Errorf("latest price: %w", err)
		log.Printf("[ERROR] buy %s: %v", symbol, action.Err)
		return action
	}

	qty := math.Floor(power / price)
	action.Qty = qty
	if qty < 1 {
		action.Note = fmt.Sprintf("insufficient buying power ($%.2f at $%.2f/share)", power, price)
		log.Printf("[WARN] buy %s skipped: %s", symbol, action.Note)
		return action
	}

	if err := r.Broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:      symbol,
		Qty:         qty,
		Side:        "buy",
		TimeInForce: "gtc",
	}); err != nil {
		action.Err = err
		log.Printf("[ERROR] buy %.0f %s: %v", qty, symbol, err)
		return action
	}

	log.Printf("[INFO] bought %.0f shares of %s", qty, symbol)
	res.Outcome = model.OutcomeTraded
	return action
}

// positionQty reads the held quantity, mapping "no position" to zero while
// letting genuine lookup failures surface.
func (r *Reconciler) positionQty(ctx context.Context, symbol string) (float64, error) {
	pos, err := r.Broker.GetPosition(ctx, symbol)
	if err != nil {
		if errors.Is(err, broker.ErrNoPosition) {
			return 0, nil
		}
		return 0, err
	}
	return pos.Qty, nil
}
