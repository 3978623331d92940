package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jss-on/latentspeed/internal/api"
	"github.com/Jss-on/latentspeed/internal/config"
	"github.com/Jss-on/latentspeed/internal/engine"
	"github.com/Jss-on/latentspeed/internal/exchange"
	"github.com/Jss-on/latentspeed/internal/execution"
	"github.com/Jss-on/latentspeed/internal/metrics"
	"github.com/Jss-on/latentspeed/internal/risk"
	sig "github.com/Jss-on/latentspeed/internal/signal"
	"github.com/Jss-on/latentspeed/internal/util"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", getEnv("LATENTSPEED_CONFIG", "internal/config/config.yaml"), "path to YAML configuration")
	flag.Parse()

	boot := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)
	if cfg.App.Env == "dev" {
		log = util.NewConsoleLogger(cfg.App.LogLevel)
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbols := cfg.Feed.Symbols
	if cfg.Feed.Provider == exchange.ProviderBinance {
		verified, err := exchange.NewSymbolVerifier(log, "").Verify(ctx, symbols)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("symbol verification failed, keeping configured list")
		case len(verified) == 0:
			log.Fatal().Strs("symbols", symbols).Msg("no configured symbol is tradable")
		default:
			symbols = verified
		}
	}

	feed := exchange.NewFeed(
		cfg.Feed.Provider,
		symbols,
		log,
		exchange.WithPollInterval(time.Duration(cfg.Feed.PollInterval)*time.Millisecond),
		exchange.WithBybitConfig(cfg.Feed.BybitBaseURL, ""),
	)
	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	gateway := execution.NewWSGateway(log, cfg.Gateway.OrderURL, cfg.Gateway.Venue, cfg.Gateway.ProductType)
	go func() {
		if err := gateway.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("gateway stopped")
			cancel()
		}
	}()
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

	statusSrv := api.NewServer(eng, log).Serve(cfg.App.StatusAddr)
	log.Info().Str("addr", cfg.App.StatusAddr).Msg("status api up")
	defer statusSrv.Close()

	if err := eng.Run(ctx, ticks, gateway.Events()); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine stopped")
	}
	log.Info().Msg("shutting down")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
