package position

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Jss-on/latentspeed/internal/execution"
)

// Totals accumulates session results over closed trades.
type Totals struct {
	Executed    int
	Wins        int
	Losses      int
	RealizedPnL float64
}

// Closure describes one position transitioning out of Open: the snapshot at
// trigger time, the recorded reason, and the reduce-only intent that exits it.
type Closure struct {
	Position  Position
	Reason    Reason
	ExitPrice float64
	PnL       float64
	Intent    execution.Intent
}

// Manager owns every live position. Sweeps walk positions in insertion order
// so identical inputs always produce identical closure sequences. Totals are
// accumulated when a position leaves Open and reversed if its close dispatch
// fails, so a retried close never double-counts.
type Manager struct {
	mu      sync.Mutex
	timeout time.Duration
	byID    map[string]*Position
	order   []string
	closing map[string]Closure
	totals  Totals
}

// NewManager builds a manager enforcing the given holding timeout. A zero
// timeout disables age-based exits.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		timeout: timeout,
		byID:    make(map[string]*Position),
		closing: make(map[string]Closure),
	}
}

// Open registers a new position in the Open state.
func (m *Manager) Open(p Position) error {
	if p.ClientID == "" {
		return errors.New("position: missing client id")
	}
	if p.Size <= 0 {
		return errors.New("position: size must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[p.ClientID]; exists {
		return fmt.Errorf("position: duplicate client id %s", p.ClientID)
	}
	p.State = StateOpen
	m.byID[p.ClientID] = &p
	m.order = append(m.order, p.ClientID)
	m.totals.Executed++
	return nil
}

// Remove drops a position that never reached the venue (entry dispatch
// failure) and reverses its executed count.
func (m *Manager) Remove(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[clientID]; !ok {
		return false
	}
	m.deleteLocked(clientID)
	m.totals.Executed--
	return true
}

// Count returns the number of supervised (non-closed) positions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Snapshot copies every supervised position in insertion order.
func (m *Manager) Snapshot() []Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Position, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Totals returns the accumulated session results.
func (m *Manager) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

// Sweep evaluates every Open position against the follower price and clock.
// Triggered positions move to Closing, their PnL and win/loss outcome are
// recorded, and a closure with the exit intent is returned for dispatch.
// Each position is judged independently against the same snapshot.
func (m *Manager) Sweep(price float64, now time.Time) []Closure {
	if price <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var closures []Closure
	for _, id := range m.order {
		p, ok := m.byID[id]
		if !ok || p.State != StateOpen {
			continue
		}
		reason, hit := p.exitTrigger(price, now, m.timeout)
		if !hit {
			continue
		}
		pnl := p.PnL(price)
		p.State = StateClosing
		m.totals.RealizedPnL += pnl
		switch reason {
		case ReasonStopLoss:
			m.totals.Losses++
		case ReasonTakeProfit:
			m.totals.Wins++
		}
		c := Closure{
			Position:  *p,
			Reason:    reason,
			ExitPrice: price,
			PnL:       pnl,
			Intent:    closeIntent(*p, reason, price, pnl, now),
		}
		m.closing[id] = c
		closures = append(closures, c)
	}
	return closures
}

// Commit finalizes a Closing position after its exit order was dispatched.
func (m *Manager) Commit(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[clientID]
	if !ok || p.State != StateClosing {
		return false
	}
	p.State = StateClosed
	delete(m.closing, clientID)
	m.deleteLocked(clientID)
	return true
}

// Rollback returns a Closing position to Open after its exit dispatch failed,
// reversing the totals recorded at trigger time. The next sweep re-evaluates
// it from scratch.
func (m *Manager) Rollback(clientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[clientID]
	if !ok || p.State != StateClosing {
		return false
	}
	c, ok := m.closing[clientID]
	if !ok {
		return false
	}
	p.State = StateOpen
	m.totals.RealizedPnL -= c.PnL
	switch c.Reason {
	case ReasonStopLoss:
		m.totals.Losses--
	case ReasonTakeProfit:
		m.totals.Wins--
	}
	delete(m.closing, clientID)
	return true
}

func (m *Manager) deleteLocked(clientID string) {
	delete(m.byID, clientID)
	for i, id := range m.order {
		if id == clientID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// closeIntent builds the reduce-only market order that flattens p.
func closeIntent(p Position, reason Reason, exitPrice, pnl float64, now time.Time) execution.Intent {
	return execution.Intent{
		ClientID:       p.ClientID + "_close",
		Symbol:         p.Symbol,
		Side:           p.Side.Opposite(),
		Size:           p.Size,
		NotionalUSD:    p.Size * exitPrice,
		ReferencePrice: exitPrice,
		ReduceOnly:     true,
		Tags: map[string]string{
			"strategy":    "lead_lag",
			"reason":      string(reason),
			"pnl":         strconv.FormatFloat(roundTo(pnl, 6), 'f', -1, 64),
			"entry_price": strconv.FormatFloat(p.EntryPrice, 'f', -1, 64),
		},
		CreatedAt: now,
	}
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
