// Package execution carries order intents and venue events between the
// strategy engine and the order gateway.
package execution

import (
	"context"
	"errors"
	"time"
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Opposite returns the side that flattens this one.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Intent is a fully sized directional order request. ClientID is the
// caller-generated correlation key carried through every downstream event.
type Intent struct {
	ClientID       string
	Symbol         string
	Side           Side
	Size           float64
	NotionalUSD    float64
	ReferencePrice float64
	StopLoss       float64
	TakeProfit     float64
	ReduceOnly     bool
	Tags           map[string]string
	CreatedAt      time.Time
}

// ErrNotConnected reports a dispatch attempted while the gateway link is down.
var ErrNotConnected = errors.New("execution: gateway not connected")

// Gateway dispatches intents to a venue and surfaces asynchronous events.
// Place is fire-and-forget: a nil return means the send step succeeded,
// not that the venue accepted the order.
type Gateway interface {
	Place(ctx context.Context, intent Intent) error
	Events() <-chan Event
	Close() error
}

// FillRecorder captures fills for later inspection.
type FillRecorder interface {
	Record(Fill)
}

func validateIntent(in Intent) error {
	if in.ClientID == "" {
		return errors.New("execution: intent missing client id")
	}
	if in.Symbol == "" {
		return errors.New("execution: intent missing symbol")
	}
	if in.Side != Buy && in.Side != Sell {
		return errors.New("execution: intent has unknown side")
	}
	if in.Size <= 0 {
		return errors.New("execution: intent size must be positive")
	}
	return nil
}
