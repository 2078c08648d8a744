// Package gate decides whether an observed signal has already been handled.
// It owns the single durable marker holding the last-processed signal ID.
package gate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"TruthTrader/internal/model"
)

// SignalGate tracks the last-processed signal identifier across restarts.
type SignalGate struct {
	markerFile string
	lastID     string
	loaded     bool
}

// New creates a gate backed by the given marker file. The marker is read
// lazily on first use.
func New(markerFile string) *SignalGate {
	return &SignalGate{markerFile: markerFile}
}

// IsNew reports whether the signal differs from the last handled one. Any
// difference in identifier counts as new, including placeholder identifiers.
func (g *SignalGate) IsNew(sig *model.Signal) bool {
	g.load()
	return sig.ID != g.lastID
}

// MarkHandled persists the signal's identifier. Callers must invoke this only
// after all downstream actions for the signal have been attempted; a crash
// before marking re-processes the signal, which is safe because
// reconciliation is idempotent.
func (g *SignalGate) MarkHandled(sig *model.Signal) error {
	if err := g.write(sig.ID); err != nil {
		return fmt.Errorf("persist last-post marker: %w", err)
	}
	g.lastID = sig.ID
	g.loaded = true
	return nil
}

// LastID returns the currently persisted identifier, empty when none exists.
func (g *SignalGate) LastID() string {
	g.load()
	return g.lastID
}

func (g *SignalGate) load() {
	if g.loaded {
		return
	}
	g.loaded = true
	data, err := os.ReadFile(g.markerFile)
	if err != nil {
		if !os.IsNotExist(err) {
			// Unreadable marker: treat as first run, every signal looks new.
			log.Printf("[WARN] read last-post marker: %v", err)
		}
		return
	}
	g.lastID = strings.TrimSpace(string(data))
}

// write replaces the marker atomically via a temp file and rename so a crash
// mid-write can never leave a truncated marker.
func (g *SignalGate) write(id string) error {
	dir := filepath.Dir(g.markerFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".marker-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, g.markerFile)
}
