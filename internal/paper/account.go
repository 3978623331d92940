package paper

import (
	"errors"
	"math"
	"sync"

	"github.com/Jss-on/latentspeed/internal/execution"
)

const epsilon = 1e-9

type positionState struct {
	// Qty is signed: positive long, negative short.
	Qty     float64
	AvgCost float64
}

// Account tracks virtual cash, realized PnL, and per-symbol positions while
// trading in paper mode. Positions may go short.
type Account struct {
	mu                   sync.Mutex
	startingCash         float64
	cash                 float64
	realizedPnL          float64
	maxPositionPerSymbol float64
	positions            map[string]positionState
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty         float64
	AvgCost     float64
	MarketValue float64
	Unrealized  float64
}

// Snapshot represents a thread-safe view of the account state, optionally marked to market using provided prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account populated with starting cash and optional position cap.
func NewAccount(startingCash, maxPositionPerSymbol float64) *Account {
	return &Account{
		startingCash:         startingCash,
		cash:                 startingCash,
		maxPositionPerSymbol: maxPositionPerSymbol,
		positions:            make(map[string]positionState),
	}
}

// StartingCash returns the initial bankroll used to compute drawdown.
func (a *Account) StartingCash() float64 { return a.startingCash }

// MarketFill executes a market order at the provided price, mutating balances
// if successful. Selling with no inventory opens a short.
func (a *Account) MarketFill(symbol string, side execution.Side, qty, price float64) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if price <= 0 {
		return errors.New("price must be positive")
	}

	signed := qty
	switch side {
	case execution.Buy:
	case execution.Sell:
		signed = -qty
	default:
		return errors.New("unknown order side")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[symbol]
	notional := qty * price
	newQty := state.Qty + signed
	if a.maxPositionPerSymbol > 0 && math.Abs(newQty) > a.maxPositionPerSymbol+epsilon {
		return errors.New("position limit exceeded")
	}
	if side == execution.Buy && notional > a.cash+epsilon {
		return errors.New("insufficient cash for buy")
	}

	switch {
	case state.Qty == 0 || (state.Qty > 0) == (signed > 0):
		totalQty := math.Abs(state.Qty) + qty
		newAvg := ((state.AvgCost * math.Abs(state.Qty)) + notional) / totalQty
		a.positions[symbol] = positionState{Qty: newQty, AvgCost: newAvg}
	default:
		closed := math.Min(qty, math.Abs(state.Qty))
		direction := 1.0
		if state.Qty < 0 {
			direction = -1
		}
		a.realizedPnL += (price - state.AvgCost) * closed * direction
		switch {
		case math.Abs(newQty) <= epsilon:
			delete(a.positions, symbol)
		case (newQty > 0) == (state.Qty > 0):
			a.positions[symbol] = positionState{Qty: newQty, AvgCost: state.AvgCost}
		default:
			// Crossed through flat; the remainder opens at the fill price.
			a.positions[symbol] = positionState{Qty: newQty, AvgCost: price}
		}
	}

	if side == execution.Buy {
		a.cash -= notional
	} else {
		a.cash += notional
	}
	return nil
}

// ApplyFee deducts a trading fee from cash.
func (a *Account) ApplyFee(fee float64) {
	if fee <= 0 {
		return
	}
	a.mu.Lock()
	a.cash -= fee
	a.mu.Unlock()
}

// Snapshot returns a copy of balances, optionally marked using the supplied prices map.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, pos := range a.positions {
		mark := prices[sym]
		marketValue := pos.Qty * mark
		unrealized := (mark - pos.AvgCost) * pos.Qty
		if mark == 0 {
			marketValue = 0
			unrealized = 0
		}
		positions[sym] = PositionSnapshot{
			Qty:         pos.Qty,
			AvgCost:     pos.AvgCost,
			MarketValue: marketValue,
			Unrealized:  unrealized,
		}
		equity += marketValue
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

// AvailableCash reports free cash that can be deployed into new longs.
func (a *Account) AvailableCash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Position returns the current signed position size for the supplied symbol.
func (a *Account) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}
