package strategy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Jss-on/latentspeed/internal/execution"
)

var (
	// ErrNoFollowerPrice reports a jump with no follower sample to trade against.
	ErrNoFollowerPrice = errors.New("strategy: no follower price")
	// ErrInvalidPrice reports a follower price unusable for sizing.
	ErrInvalidPrice = errors.New("strategy: invalid follower price")
	// ErrDustSize reports a computed size that rounds to zero or below.
	ErrDustSize = errors.New("strategy: position size below minimum")
)

// sizeHaircut leaves headroom for taker fees so the venue never rejects the
// order for a few cents of missing margin.
const sizeHaircut = 0.98

const maxStrengthMultiplier = 2.0

// EvaluatorParams carries the construction-time strategy knobs.
type EvaluatorParams struct {
	FollowerSymbol   string
	MinCorrelation   float64
	BasePositionUSD  float64
	MaxPositionUSD   float64
	StopLossBps      float64
	TakeProfitBps    float64
	MaxOpenPositions int
}

// MarketView is the per-jump snapshot the evaluator decides on.
type MarketView struct {
	JumpBps       float64
	Correlation   float64
	LeaderPrev    float64
	LeaderLast    float64
	FollowerPrice float64
	HasFollower   bool
	OpenPositions int
}

// Evaluator turns leader jumps into sized follower trade intents.
type Evaluator struct {
	p   EvaluatorParams
	ids func() string
}

// NewEvaluator builds an evaluator; ids may be nil to use the default
// client-id generator.
func NewEvaluator(p EvaluatorParams, ids func() string) *Evaluator {
	if ids == nil {
		ids = defaultIDs()
	}
	return &Evaluator{p: p, ids: ids}
}

// Evaluate returns a trade intent for the view, (nil, nil) when a guard
// declines to trade, or an error when required inputs are unusable.
func (e *Evaluator) Evaluate(v MarketView, now time.Time) (*execution.Intent, error) {
	if v.OpenPositions >= e.p.MaxOpenPositions {
		return nil, nil
	}
	if math.Abs(v.Correlation) < e.p.MinCorrelation {
		return nil, nil
	}
	if !v.HasFollower {
		return nil, ErrNoFollowerPrice
	}
	price := v.FollowerPrice
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrInvalidPrice
	}

	direction := 1
	if v.LeaderLast <= v.LeaderPrev {
		direction = -1
	}
	if v.Correlation < 0 {
		direction = -direction
	}
	side := execution.Buy
	if direction < 0 {
		side = execution.Sell
	}

	strength := math.Abs(v.Correlation) * (v.JumpBps / 100)
	multiplier := math.Min(strength, maxStrengthMultiplier)
	notional := math.Min(e.p.BasePositionUSD*multiplier, e.p.MaxPositionUSD)
	size := positionSize(notional, price)
	if size <= 0 {
		return nil, ErrDustSize
	}

	stop, take := protectivePrices(side, price, e.p.StopLossBps, e.p.TakeProfitBps)
	return &execution.Intent{
		ClientID:       e.ids(),
		Symbol:         e.p.FollowerSymbol,
		Side:           side,
		Size:           size,
		NotionalUSD:    notional,
		ReferencePrice: price,
		StopLoss:       stop,
		TakeProfit:     take,
		Tags: map[string]string{
			"strategy":    "lead_lag",
			"entry_price": strconv.FormatFloat(price, 'f', -1, 64),
		},
		CreatedAt: now,
	}, nil
}

// positionSize converts a USD notional into instrument units at price,
// rounded to four decimals after the fee haircut.
func positionSize(notionalUSD, price float64) float64 {
	return roundTo(notionalUSD*sizeHaircut/price, 4)
}

// protectivePrices derives side-aware stop-loss and take-profit levels.
func protectivePrices(side execution.Side, entry, stopBps, takeBps float64) (stop, take float64) {
	if side == execution.Buy {
		return entry * (1 - stopBps/10000), entry * (1 + takeBps/10000)
	}
	return entry * (1 + stopBps/10000), entry * (1 - takeBps/10000)
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func defaultIDs() func() string {
	var seq atomic.Uint64
	return func() string {
		return fmt.Sprintf("leadlag_%d_%d", time.Now().UnixNano(), seq.Add(1))
	}
}
