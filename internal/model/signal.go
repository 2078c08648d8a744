package model

import "time"

// Signal is one observed post from the content source. ID is the scraped
// timestamp string: opaque, not guaranteed monotonic or unique. Equality of ID
// with the persisted marker means "already handled".
type Signal struct {
	ID        string
	Body      string
	FetchedAt time.Time
}

// Outlook is the ternary market-direction conclusion derived from sentiment.
type Outlook string

const (
	Bullish Outlook = "Bullish"
	Bearish Outlook = "Bearish"
	Neutral Outlook = "Neutral"
)
