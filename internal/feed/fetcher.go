package feed

import (
	"context"
	"errors"

	"TruthTrader/internal/model"
)

// Fetcher retrieves the most recent signal from the content source.
type Fetcher interface {
	FetchLatest(ctx context.Context) (*model.Signal, error)
	Name() string
}

var (
	// ErrNoContent means the source was reachable but returned an empty or
	// malformed document. Callers treat this as "no new signal", not a failure.
	ErrNoContent = errors.New("feed: no content found")
	// ErrAuthFailure means the source rejected the session credentials.
	ErrAuthFailure = errors.New("feed: authentication rejected")
	// ErrChallengeBlocked means the request was stopped by an anti-bot challenge.
	ErrChallengeBlocked = errors.New("feed: blocked by anti-bot challenge")
	// ErrExhaustedRetries means every fetch attempt failed.
	ErrExhaustedRetries = errors.New("feed: exhausted retries")
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Signal *model.Signal
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchLatest(_ context.Context) (*model.Signal, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Signal, nil
}
