// Package strategy implements the lead-lag signal pipeline: jump detection
// on the leader instrument, rolling correlation against the follower, and
// evaluation of sized trade intents.
package strategy

import (
	"math"

	"github.com/Jss-on/latentspeed/internal/history"
)

// JumpDetector flags single-step price moves at or above a basis-point
// threshold.
type JumpDetector struct {
	thresholdBps float64
}

// NewJumpDetector builds a detector for the given threshold in bps.
func NewJumpDetector(thresholdBps float64) *JumpDetector {
	return &JumpDetector{thresholdBps: thresholdBps}
}

// Detect compares the two most recent samples and returns whether the move
// clears the threshold, along with its magnitude in bps. Fewer than two
// samples or a zero previous price yields (false, 0).
func (d *JumpDetector) Detect(h *history.History) (bool, float64) {
	prev, last, ok := h.LastTwo()
	if !ok {
		return false, 0
	}
	if prev.Price == 0 {
		return false, 0
	}
	changeBps := math.Abs(last.Price/prev.Price-1) * 10000
	return changeBps >= d.thresholdBps, changeBps
}
