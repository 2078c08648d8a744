// Package trader wires fetch, gating, classification, session guarding, and
// reconciliation into one linear poll cycle.
package trader

import (
	"context"
	"errors"
	"fmt"
	"log"

	"TruthTrader/internal/feed"
	"TruthTrader/internal/gate"
	"TruthTrader/internal/model"
	"TruthTrader/internal/notifier"
	"TruthTrader/internal/reconcile"
	"TruthTrader/internal/recorder"
	"TruthTrader/internal/sentiment"
)

// Trader owns the per-cycle pipeline. All collaborators are injected; no
// ambient state.
type Trader struct {
	Fetcher       feed.Fetcher
	Gate          *gate.SignalGate
	Classifier    sentiment.Classifier
	Reconciler    *reconcile.Reconciler
	Guard         *reconcile.SessionGuard
	Notifier      notifier.Notifier
	Recorder      recorder.Recorder
	MinConfidence float64
}

// RunCycle executes one poll cycle: fetch → gate → classify → guard →
// reconcile → mark handled → close-out check. Runs to completion; every
// failure is contained here so a hosting scheduler survives any cycle.
func (t *Trader) RunCycle(ctx context.Context) *model.CycleResult {
	sig, err := t.Fetcher.FetchLatest(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrNoContent) {
			log.Println("[INFO] source reachable but empty, treating as no new signal")
			return t.finish(&model.CycleResult{Outcome: model.OutcomeNoop})
		}
		return t.fail("", fmt.Errorf("fetch: %w", err))
	}

	log.Printf("[INFO] latest post %q: %.80s", sig.ID, sig.Body)

	if !t.Gate.IsNew(sig) {
		log.Println("[INFO] no new post, holding current position")
		return t.finish(&model.CycleResult{Outcome: model.OutcomeNoop, SignalID: sig.ID})
	}
	t.notify(notifier.FormatNewSignal(sig))

	res, err := t.Classifier.Classify(ctx, sig.Body)
	if err != nil {
		// A classifier crash is not a Neutral opinion; abort without
		// marking so the signal is retried next cycle.
		return t.fail(sig.ID, fmt.Errorf("classify: %w", err))
	}
	outlook := sentiment.MapOutlook(res, t.MinConfidence)
	log.Printf("[INFO] sentiment %s (%.2f) → outlook %s", res.Label, res.Confidence, outlook)

	clock, err := t.Reconciler.Broker.GetClock(ctx)
	if err != nil {
		return t.fail(sig.ID, fmt.Errorf("session check: %w", err))
	}
	sessionOpen := reconcile.TradingWindowOpen(clock)

	recRes, err := t.Reconciler.Reconcile(ctx, outlook, sessionOpen)
	if err != nil {
		return t.fail(sig.ID, fmt.Errorf("reconcile: %w", err))
	}

	result := &model.CycleResult{
		Outcome:  recRes.Outcome,
		SignalID: sig.ID,
		Outlook:  outlook,
		Actions:  recRes.Actions,
	}

	// Mark only after every downstream action was attempted. Per-order
	// failures above do not block marking: a rejected order is surfaced for
	// the operator, not replayed forever.
	if err := t.Gate.MarkHandled(sig); err != nil {
		result.Outcome = model.OutcomeError
		result.Err = err
		log.Printf("[ERROR] %v", err)
		return t.finish(result)
	}

	t.runCloseGuard(ctx, result)
	return t.finish(result)
}

// RunCloseGuard checks for an approaching session close and liquidates if
// needed, independent of any signal. Invoked on its own schedule.
func (t *Trader) RunCloseGuard(ctx context.Context) {
	t.runCloseGuard(ctx, nil)
}

func (t *Trader) runCloseGuard(ctx context.Context, result *model.CycleResult) {
	actions, triggered, err := t.Guard.LiquidateIfApproachingClose(ctx)
	if err != nil {
		log.Printf("[ERROR] close-out check: %v", err)
		t.notify(fmt.Sprintf("⚠️ Close-out check failed: %v", err))
		return
	}
	if !triggered {
		return
	}
	t.notify(notifier.FormatLiquidation(actions))
	if result != nil {
		// finish() records these together with the reconciliation actions.
		result.Actions = append(result.Actions, actions...)
		return
	}
	for _, a := range actions {
		t.recordOrder("", a)
	}
}

func (t *Trader) fail(signalID string, err error) *model.CycleResult {
	log.Printf("[ERROR] cycle aborted: %v", err)
	return t.finish(&model.CycleResult{
		Outcome:  model.OutcomeError,
		SignalID: signalID,
		Err:      err,
	})
}

// finish records and announces the terminal outcome. Recorder and notifier
// failures are logged only; they never alter the result.
func (t *Trader) finish(result *model.CycleResult) *model.CycleResult {
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	if err := t.Recorder.RecordCycle(&recorder.CycleRecord{
		SignalID: result.SignalID,
		Outlook:  result.Outlook,
		Outcome:  result.Outcome,
		ErrMsg:   errMsg,
	}); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	for _, a := range result.Actions {
		t.recordOrder(result.SignalID, a)
	}

	if result.Outcome != model.OutcomeNoop {
		t.notify(notifier.FormatCycleReport(result))
	}
	return result
}

func (t *Trader) recordOrder(signalID string, a model.OrderAction) {
	status := "submitted"
	note := a.Note
	switch {
	case a.Err != nil:
		status = "failed"
		note = a.Err.Error()
	case a.Note != "":
		status = "skipped"
	}
	if err := t.Recorder.RecordOrder(&recorder.OrderRecord{
		SignalID: signalID,
		Symbol:   a.Symbol,
		Side:     a.Side,
		Qty:      a.Qty,
		Status:   status,
		Note:     note,
	}); err != nil {
		log.Printf("[ERROR] record order: %v", err)
	}
}

func (t *Trader) notify(text string) {
	if err := t.Notifier.SendWithRetry(context.Background(), text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
