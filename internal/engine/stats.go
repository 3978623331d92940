package engine

import "github.com/Jss-on/latentspeed/internal/position"

// Stats is a point-in-time snapshot of session state, safe to read from
// outside the engine goroutine.
type Stats struct {
	LeaderSymbol     string  `json:"leader_symbol"`
	FollowerSymbol   string  `json:"follower_symbol"`
	LeaderPoints     int     `json:"leader_points"`
	FollowerPoints   int     `json:"follower_points"`
	Correlation      float64 `json:"correlation"`
	JumpsDetected    int64   `json:"jumps_detected"`
	OrdersSent       int64   `json:"orders_sent"`
	OpenPositions    int     `json:"open_positions"`
	PendingOrders    int     `json:"pending_orders"`
	TradesExecuted   int     `json:"trades_executed"`
	TradesWon        int     `json:"trades_won"`
	TradesLost       int     `json:"trades_lost"`
	RealizedPnLUSD   float64 `json:"realized_pnl_usd"`
	DataFaults       int64   `json:"data_faults"`
	GatewayFaults    int64   `json:"gateway_faults"`
	DispatchFailures int64   `json:"dispatch_failures"`
}

func (e *Engine) StatsSnapshot() Stats {
	e.mu.Lock()
	c := e.stats
	e.mu.Unlock()
	tot := e.positions.Totals()
	return Stats{
		LeaderSymbol:     e.p.LeaderSymbol,
		FollowerSymbol:   e.p.FollowerSymbol,
		LeaderPoints:     c.leaderPoints,
		FollowerPoints:   c.followerPoints,
		Correlation:      c.lastCorrelation,
		JumpsDetected:    c.jumpsDetected,
		OrdersSent:       c.ordersSent,
		OpenPositions:    e.positions.Count(),
		PendingOrders:    e.correlator.PendingCount(),
		TradesExecuted:   tot.Executed,
		TradesWon:        tot.Wins,
		TradesLost:       tot.Losses,
		RealizedPnLUSD:   tot.RealizedPnL,
		DataFaults:       c.dataFaults,
		GatewayFaults:    c.gatewayFaults,
		DispatchFailures: c.dispatchFailures,
	}
}

// OpenPositions returns positions in the order they were opened.
func (e *Engine) OpenPositions() []position.Position {
	return e.positions.Snapshot()
}

func (e *Engine) logSummary(kind string) {
	s := e.StatsSnapshot()
	e.log.Info().
		Str("kind", kind).
		Int("leader_points", s.LeaderPoints).
		Int("follower_points", s.FollowerPoints).
		Float64("correlation", s.Correlation).
		Int64("jumps", s.JumpsDetected).
		Int64("orders_sent", s.OrdersSent).
		Int("open", s.OpenPositions).
		Int("pending", s.PendingOrders).
		Int("executed", s.TradesExecuted).
		Int("wins", s.TradesWon).
		Int("losses", s.TradesLost).
		Float64("pnl", s.RealizedPnLUSD).
		Int64("data_faults", s.DataFaults).
		Int64("gateway_faults", s.GatewayFaults).
		Int64("dispatch_failures", s.DispatchFailures).
		Msg("session summary")
}
