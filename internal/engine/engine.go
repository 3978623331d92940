// Package engine wires market data, the lead-lag strategy, position
// supervision, and order dispatch into a single event loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/execution"
	"github.com/Jss-on/latentspeed/internal/history"
	"github.com/Jss-on/latentspeed/internal/metrics"
	"github.com/Jss-on/latentspeed/internal/position"
	"github.com/Jss-on/latentspeed/internal/risk"
	"github.com/Jss-on/latentspeed/internal/signal"
	"github.com/Jss-on/latentspeed/internal/strategy"
)

const (
	// historyMargin keeps eviction clear of the correlation window.
	historyMargin = 50
	// sweepInterval bounds how long an exit trigger can go unnoticed when
	// the follower stream is quiet.
	sweepInterval   = 100 * time.Millisecond
	summaryInterval = 30 * time.Second
)

// Params carries everything the engine needs at construction time. Now and
// IDs are optional test seams; nil selects the production defaults.
type Params struct {
	LeaderSymbol     string
	FollowerSymbol   string
	JumpThresholdBps float64
	MinCorrelation   float64
	LookbackWindow   int
	BasePositionUSD  float64
	MaxPositionUSD   float64
	StopLossBps      float64
	TakeProfitBps    float64
	MaxOpenPositions int
	PositionTimeout  time.Duration
	Limits           risk.Limits
	Now              func() time.Time
	IDs              func() string
}

type counters struct {
	leaderPoints     int
	followerPoints   int
	lastCorrelation  float64
	jumpsDetected    int64
	ordersSent       int64
	dataFaults       int64
	gatewayFaults    int64
	dispatchFailures int64
}

// Engine consumes ticks and gateway events on a single goroutine inside Run;
// all strategy and position state is owned by that goroutine. The mutex only
// covers the counters read by StatsSnapshot.
type Engine struct {
	log zerolog.Logger
	p   Params
	now func() time.Time

	leaderKey    string
	followerKey  string
	leaderHist   *history.History
	followerHist *history.History
	jumps        *strategy.JumpDetector
	corr         *strategy.CorrelationEstimator
	eval         *strategy.Evaluator
	positions    *position.Manager
	correlator   *execution.Correlator
	gateway      execution.Gateway

	mu    sync.Mutex
	stats counters
}

// New builds an engine around the gateway.
func New(p Params, gateway execution.Gateway, log zerolog.Logger) *Engine {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	capacity := p.LookbackWindow + historyMargin
	return &Engine{
		log:          log,
		p:            p,
		now:          now,
		leaderKey:    normalizeSymbol(p.LeaderSymbol),
		followerKey:  normalizeSymbol(p.FollowerSymbol),
		leaderHist:   history.New(capacity),
		followerHist: history.New(capacity),
		jumps:        strategy.NewJumpDetector(p.JumpThresholdBps),
		corr:         strategy.NewCorrelationEstimator(p.LookbackWindow),
		eval: strategy.NewEvaluator(strategy.EvaluatorParams{
			FollowerSymbol:   p.FollowerSymbol,
			MinCorrelation:   p.MinCorrelation,
			BasePositionUSD:  p.BasePositionUSD,
			MaxPositionUSD:   p.MaxPositionUSD,
			StopLossBps:      p.StopLossBps,
			TakeProfitBps:    p.TakeProfitBps,
			MaxOpenPositions: p.MaxOpenPositions,
		}, p.IDs),
		positions:  position.NewManager(p.PositionTimeout),
		correlator: execution.NewCorrelator(),
		gateway:    gateway,
	}
}

// Run processes ticks and gateway events until ctx is canceled. Exit
// triggers are re-checked on every follower tick and on a periodic sweep so
// timeouts fire even when the market goes quiet.
func (e *Engine) Run(ctx context.Context, ticks <-chan signal.Tick, events <-chan execution.Event) error {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	summary := time.NewTicker(summaryInterval)
	defer summary.Stop()

	e.log.Info().
		Str("leader", e.p.LeaderSymbol).
		Str("follower", e.p.FollowerSymbol).
		Float64("jump_threshold_bps", e.p.JumpThresholdBps).
		Float64("min_correlation", e.p.MinCorrelation).
		Int("lookback", e.p.LookbackWindow).
		Int("max_open", e.p.MaxOpenPositions).
		Dur("position_timeout", e.p.PositionTimeout).
		Msg("lead-lag engine started")

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		case t, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			e.onTick(ctx, t)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.onEvent(ev)
		case <-sweep.C:
			if last, ok := e.followerHist.Last(); ok {
				e.sweepAt(ctx, last.Price)
			}
		case <-summary.C:
			e.logSummary("periodic")
		}
	}
}

func (e *Engine) shutdown() {
	e.logSummary("final")
	for _, p := range e.positions.Snapshot() {
		e.log.Warn().
			Str("cl_id", p.ClientID).
			Str("side", string(p.Side)).
			Float64("entry_px", p.EntryPrice).
			Float64("qty", p.Size).
			Msg("position left open at shutdown")
	}
}

func (e *Engine) onTick(ctx context.Context, t signal.Tick) {
	if err := tickFault(t); err != nil {
		e.mu.Lock()
		e.stats.dataFaults++
		e.mu.Unlock()
		metrics.DataFaultsTotal.Inc()
		e.log.Warn().Err(err).Str("sym", t.Symbol).Msg("discarding malformed tick")
		return
	}
	switch normalizeSymbol(t.Symbol) {
	case e.leaderKey:
		e.onLeaderTick(ctx, t)
	case e.followerKey:
		e.onFollowerTick(ctx, t)
	}
}

func (e *Engine) onLeaderTick(ctx context.Context, t signal.Tick) {
	e.leaderHist.Push(t)
	e.mu.Lock()
	e.stats.leaderPoints++
	e.mu.Unlock()

	jumped, changeBps := e.jumps.Detect(e.leaderHist)
	if !jumped {
		return
	}
	corr := e.corr.Estimate(e.leaderHist, e.followerHist)
	e.mu.Lock()
	e.stats.jumpsDetected++
	e.stats.lastCorrelation = corr
	e.mu.Unlock()
	metrics.JumpsTotal.WithLabelValues(e.p.LeaderSymbol).Inc()
	metrics.Correlation.Set(corr)
	e.log.Info().
		Float64("px", t.Price).
		Float64("change_bps", changeBps).
		Float64("correlation", corr).
		Msg("leader jump detected")

	if open := e.positions.Count(); open >= e.p.MaxOpenPositions {
		e.log.Debug().Int("open", open).Msg("max open positions reached, skipping signal")
		return
	}

	prev, last, ok := e.leaderHist.LastTwo()
	if !ok {
		return
	}
	followerLast, hasFollower := e.followerHist.Last()
	intent, err := e.eval.Evaluate(strategy.MarketView{
		JumpBps:       changeBps,
		Correlation:   corr,
		LeaderPrev:    prev.Price,
		LeaderLast:    last.Price,
		FollowerPrice: followerLast.Price,
		HasFollower:   hasFollower,
		OpenPositions: e.positions.Count(),
	}, e.now())
	if err != nil {
		e.onSignalError(err)
		return
	}
	if intent == nil {
		e.log.Debug().Float64("correlation", corr).Msg("no trade signal")
		return
	}
	e.dispatchEntry(ctx, *intent, changeBps, corr)
}

func (e *Engine) onSignalError(err error) {
	switch {
	case errors.Is(err, strategy.ErrNoFollowerPrice):
		e.log.Warn().Msg("no follower data yet, skipping signal")
	case errors.Is(err, strategy.ErrInvalidPrice):
		e.mu.Lock()
		e.stats.dataFaults++
		e.mu.Unlock()
		metrics.DataFaultsTotal.Inc()
		e.log.Warn().Msg("follower price unusable, skipping signal")
	case errors.Is(err, strategy.ErrDustSize):
		e.log.Warn().Msg("position size too small, skipping signal")
	default:
		e.log.Warn().Err(err).Msg("signal evaluation failed")
	}
}

func (e *Engine) dispatchEntry(ctx context.Context, intent execution.Intent, changeBps, corr float64) {
	if !e.p.Limits.Allow(intent.NotionalUSD) {
		e.log.Warn().Float64("notional", intent.NotionalUSD).Msg("risk limit blocks entry")
		return
	}
	if pnl := e.positions.Totals().RealizedPnL; e.p.Limits.DailyLossBreached(pnl) {
		e.log.Warn().Float64("pnl", pnl).Msg("daily loss limit breached, entries suspended")
		return
	}

	err := e.positions.Open(position.Position{
		ClientID:   intent.ClientID,
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		EntryPrice: intent.ReferencePrice,
		Size:       intent.Size,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		OpenedAt:   e.now(),
	})
	if err != nil {
		e.log.Error().Err(err).Msg("cannot record position")
		return
	}
	if err := e.gateway.Place(ctx, intent); err != nil {
		e.positions.Remove(intent.ClientID)
		e.recordDispatchFailure()
		e.log.Error().Err(err).Str("cl_id", intent.ClientID).Msg("entry dispatch failed")
		return
	}
	e.correlator.Track(intent.ClientID)
	e.mu.Lock()
	e.stats.ordersSent++
	e.mu.Unlock()
	metrics.OpenPositions.Set(float64(e.positions.Count()))
	e.log.Info().
		Str("cl_id", intent.ClientID).
		Str("side", string(intent.Side)).
		Float64("qty", intent.Size).
		Float64("notional", intent.NotionalUSD).
		Float64("px", intent.ReferencePrice).
		Float64("change_bps", changeBps).
		Float64("correlation", corr).
		Msg("entry order sent")
}

func (e *Engine) onFollowerTick(ctx context.Context, t signal.Tick) {
	e.followerHist.Push(t)
	e.mu.Lock()
	e.stats.followerPoints++
	e.mu.Unlock()
	e.sweepAt(ctx, t.Price)
}

func (e *Engine) sweepAt(ctx context.Context, price float64) {
	closures := e.positions.Sweep(price, e.now())
	for _, c := range closures {
		if err := e.gateway.Place(ctx, c.Intent); err != nil {
			e.positions.Rollback(c.Position.ClientID)
			e.recordDispatchFailure()
			e.log.Error().Err(err).Str("cl_id", c.Intent.ClientID).Msg("close dispatch failed, keeping position open")
			continue
		}
		e.positions.Commit(c.Position.ClientID)
		e.correlator.Track(c.Intent.ClientID)
		e.mu.Lock()
		e.stats.ordersSent++
		e.mu.Unlock()
		e.log.Info().
			Str("cl_id", c.Position.ClientID).
			Str("reason", string(c.Reason)).
			Float64("entry_px", c.Position.EntryPrice).
			Float64("exit_px", c.ExitPrice).
			Float64("pnl", c.PnL).
			Msg("position closed")
	}
	if len(closures) > 0 {
		tot := e.positions.Totals()
		metrics.OpenPositions.Set(float64(e.positions.Count()))
		metrics.RealizedPnL.Set(tot.RealizedPnL)
	}
}

func (e *Engine) onEvent(ev execution.Event) {
	switch ev.Kind {
	case execution.KindReport:
		e.correlator.OnReport(ev.Report)
		entry := e.log.Info()
		switch ev.Report.Status {
		case execution.StatusRejected, execution.StatusFailed, execution.StatusCancelRejected:
			entry = e.log.Warn()
		}
		entry.
			Str("cl_id", ev.Report.ClientID).
			Str("status", ev.Report.Status).
			Str("reason", ev.Report.ReasonText).
			Msg("execution report")
	case execution.KindFill:
		e.correlator.OnFill(ev.Fill)
		e.log.Info().
			Str("cl_id", ev.Fill.ClientID).
			Float64("px", ev.Fill.Price).
			Float64("qty", ev.Fill.Size).
			Float64("fee", ev.Fill.FeeAmount).
			Msg("fill")
	case execution.KindFault:
		e.mu.Lock()
		e.stats.gatewayFaults++
		e.mu.Unlock()
		metrics.GatewayFaultsTotal.Inc()
		e.log.Warn().Err(ev.Err).Msg("gateway protocol fault")
	}
}

func (e *Engine) recordDispatchFailure() {
	e.mu.Lock()
	e.stats.dispatchFailures++
	e.mu.Unlock()
	metrics.DispatchFailuresTotal.Inc()
}

func tickFault(t signal.Tick) error {
	if t.Symbol == "" {
		return errors.New("empty symbol")
	}
	if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) || t.Price < 0 {
		return fmt.Errorf("price %v out of range", t.Price)
	}
	if math.IsNaN(t.Volume) || math.IsInf(t.Volume, 0) || t.Volume < 0 {
		return fmt.Errorf("volume %v out of range", t.Volume)
	}
	return nil
}

// normalizeSymbol maps venue symbols like BTCUSDT or BTC-USDT-PERP onto the
// bare instrument name used in configuration.
func normalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "-USDT-PERP")
	s = strings.TrimSuffix(s, "USDT")
	return s
}
