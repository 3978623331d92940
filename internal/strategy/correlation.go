package strategy

import (
	"math"

	"github.com/Jss-on/latentspeed/internal/history"
	"github.com/Jss-on/latentspeed/internal/signal"
)

// minCorrelationSamples is the smallest window (and return-series length)
// that produces a meaningful estimate; anything shorter floors to zero.
const minCorrelationSamples = 10

// CorrelationEstimator computes the Pearson correlation of log-returns
// between two instruments over a rolling window.
type CorrelationEstimator struct {
	lookback int
}

// NewCorrelationEstimator builds an estimator over at most lookback samples.
func NewCorrelationEstimator(lookback int) *CorrelationEstimator {
	if lookback < minCorrelationSamples {
		lookback = minCorrelationSamples
	}
	return &CorrelationEstimator{lookback: lookback}
}

// Estimate returns the correlation in [-1, 1], or 0 whenever the data cannot
// support an estimate: short windows, short return series after skipping
// non-positive prices, zero variance, or a degenerate result.
func (e *CorrelationEstimator) Estimate(leader, follower *history.History) float64 {
	window := e.lookback
	if n := leader.Len(); n < window {
		window = n
	}
	if n := follower.Len(); n < window {
		window = n
	}
	if window < minCorrelationSamples {
		return 0
	}

	leaderTicks, err := leader.Latest(window)
	if err != nil {
		return 0
	}
	followerTicks, err := follower.Latest(window)
	if err != nil {
		return 0
	}

	lr := logReturns(leaderTicks)
	fr := logReturns(followerTicks)
	if len(lr) < minCorrelationSamples || len(fr) < minCorrelationSamples {
		return 0
	}
	// Align on the most recent overlapping returns.
	n := len(lr)
	if len(fr) < n {
		n = len(fr)
	}
	return pearson(lr[len(lr)-n:], fr[len(fr)-n:])
}

// logReturns computes ln(p[i]/p[i-1]) over consecutive samples, skipping any
// pair containing a non-positive price.
func logReturns(ticks []signal.Tick) []float64 {
	if len(ticks) < 2 {
		return nil
	}
	out := make([]float64, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev, cur := ticks[i-1].Price, ticks[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
