package notifier

import (
	"fmt"
	"strings"
	"time"

	"TruthTrader/internal/model"
)

const bodyPreviewLen = 200

// FormatNewSignal announces a freshly detected post.
func FormatNewSignal(sig *model.Signal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📰 <b>New post detected</b> | %s\n\n", sig.ID))
	body := sig.Body
	if len(body) > bodyPreviewLen {
		body = body[:bodyPreviewLen] + "…"
	}
	b.WriteString(body)
	return b.String()
}

// FormatCycleReport summarizes how a poll cycle ended.
func FormatCycleReport(res *model.CycleResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Cycle report</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))

	switch res.Outcome {
	case model.OutcomeNoop:
		b.WriteString("⏳ No new post. Holding current position.\n")
		return b.String()
	case model.OutcomeSkippedClosed:
		b.WriteString(fmt.Sprintf("🚫 Outlook %s, but market is closed. Trade not executed.\n", res.Outlook))
	case model.OutcomeHeld:
		b.WriteString(fmt.Sprintf("🤝 Outlook %s. No order needed.\n", res.Outlook))
	case model.OutcomeTraded:
		b.WriteString(fmt.Sprintf("✅ Outlook %s. Orders issued:\n", res.Outlook))
	case model.OutcomeError:
		b.WriteString(fmt.Sprintf("❌ Cycle failed: %v\n", res.Err))
	}

	for _, a := range res.Actions {
		b.WriteString("  " + formatAction(a) + "\n")
	}
	return b.String()
}

// FormatLiquidation reports a session-end close-out.
func FormatLiquidation(actions []model.OrderAction) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Session close approaching</b>\n\n")
	if len(actions) == 0 {
		b.WriteString("No open positions to close.")
		return b.String()
	}
	for _, a := range actions {
		b.WriteString(formatAction(a) + "\n")
	}
	return b.String()
}

func formatAction(a model.OrderAction) string {
	switch {
	case a.Err != nil:
		return fmt.Sprintf("⚠️ %s %s failed: %v", a.Side, a.Symbol, a.Err)
	case a.Note != "":
		return fmt.Sprintf("• %s %s skipped: %s", a.Side, a.Symbol, a.Note)
	default:
		return fmt.Sprintf("• %s %s (qty %.2f)", a.Side, a.Symbol, a.Qty)
	}
}
