package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/config"
	"github.com/Jss-on/latentspeed/internal/engine"
	"github.com/Jss-on/latentspeed/internal/exchange"
	"github.com/Jss-on/latentspeed/internal/execution"
	"github.com/Jss-on/latentspeed/internal/metrics"
	"github.com/Jss-on/latentspeed/internal/paper"
	"github.com/Jss-on/latentspeed/internal/risk"
	sig "github.com/Jss-on/latentspeed/internal/signal"
	"github.com/Jss-on/latentspeed/internal/util"
)

// accountRecorder books every simulated fill into the paper account.
type accountRecorder struct {
	log  zerolog.Logger
	acct *paper.Account
}

func (r accountRecorder) Record(f execution.Fill) {
	side := execution.Buy
	if strings.EqualFold(f.Side, string(execution.Sell)) {
		side = execution.Sell
	}
	if err := r.acct.MarketFill(f.Symbol, side, f.Size, f.Price); err != nil {
		r.log.Warn().Err(err).Str("cl_id", f.ClientID).Msg("paper account rejected fill")
		return
	}
	r.acct.ApplyFee(f.FeeAmount)
}

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML configuration")
	flag.Parse()

	boot := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feed := exchange.NewFeed(exchange.ProviderStub, cfg.Feed.Symbols, log)
	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	account := paper.NewAccount(cfg.Paper.StartingCash, 0)
	ledger := paper.NewLedger(256)
	jsonl, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Paper.FillsPath).Msg("open fills recorder")
	}
	defer jsonl.Close()

	recorder := paper.Tee(ledger, jsonl, accountRecorder{log: log, acct: account})
	gateway := execution.NewPaperGateway(log, cfg.Paper.FeeBps, recorder)
	defer gateway.Close()

	eng := engine.New(engine.Params{
		LeaderSymbol:     cfg.Strategy.LeaderSymbol,
		FollowerSymbol:   cfg.Strategy.FollowerSymbol,
		JumpThresholdBps: cfg.Strategy.JumpThresholdBps,
		MinCorrelation:   cfg.Strategy.MinCorrelation,
		LookbackWindow:   cfg.Strategy.LookbackWindow,
		BasePositionUSD:  cfg.Strategy.BasePositionUSD,
		MaxPositionUSD:   cfg.Strategy.MaxPositionUSD,
		StopLossBps:      cfg.Strategy.StopLossBps,
		TakeProfitBps:    cfg.Strategy.TakeProfitBps,
		MaxOpenPositions: cfg.Strategy.MaxOpenPositions,
		PositionTimeout:  cfg.Strategy.PositionTimeout(),
		Limits: risk.Limits{
			MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
			MaxDailyLoss:        cfg.Risk.MaxDailyLoss,
		},
	}, gateway, log)

	log.Info().Msg("paper engine started")
	if err := eng.Run(ctx, ticks, gateway.Events()); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine stopped")
	}

	snap := account.Snapshot(nil)
	log.Info().
		Float64("cash", snap.Cash).
		Float64("realized_pnl", snap.RealizedPnL).
		Int("fills", len(ledger.Snapshot())).
		Msg("paper session result")
}
