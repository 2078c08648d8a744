package model

import "time"

// Position is a holding in a single instrument as reported by the broker.
type Position struct {
	Symbol string
	Qty    float64
}

// Clock is the broker's view of the exchange calendar.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}
