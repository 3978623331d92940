// Package position supervises open trades from entry to exit.
package position

import (
	"time"

	"github.com/Jss-on/latentspeed/internal/execution"
)

// State is the lifecycle stage of a supervised position.
type State uint8

const (
	// StateOpen means the position is live and swept for exit triggers.
	StateOpen State = iota + 1
	// StateClosing means a close intent is being dispatched.
	StateClosing
	// StateClosed means the close dispatch succeeded; the position is retired.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Reason is the single recorded cause of a close.
type Reason string

const (
	ReasonStopLoss   Reason = "stop_loss"
	ReasonTakeProfit Reason = "take_profit"
	ReasonTimeout    Reason = "timeout"
)

// Position is one supervised trade. StopLoss and TakeProfit are absolute
// price levels derived at entry.
type Position struct {
	ClientID   string
	Symbol     string
	Side       execution.Side
	EntryPrice float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
	State      State
}

// PnL computes realized profit for exiting the full position at exitPrice.
func (p Position) PnL(exitPrice float64) float64 {
	if p.Side == execution.Buy {
		return (exitPrice - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - exitPrice) * p.Size
}

// exitTrigger returns the first matching close reason for the price and age,
// checking stop-loss, then take-profit, then timeout.
func (p Position) exitTrigger(price float64, now time.Time, timeout time.Duration) (Reason, bool) {
	if p.Side == execution.Buy {
		if price <= p.StopLoss {
			return ReasonStopLoss, true
		}
		if price >= p.TakeProfit {
			return ReasonTakeProfit, true
		}
	} else {
		if price >= p.StopLoss {
			return ReasonStopLoss, true
		}
		if price <= p.TakeProfit {
			return ReasonTakeProfit, true
		}
	}
	if timeout > 0 && now.Sub(p.OpenedAt) >= timeout {
		return ReasonTimeout, true
	}
	return "", false
}
