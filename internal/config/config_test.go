package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "latentspeed-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Feed.Provider != "bybit" {
		t.Fatalf("unexpected Feed.Provider: %s", cfg.Feed.Provider)
	}
	if len(cfg.Feed.Symbols) != 2 || cfg.Feed.Symbols[0] != "BTCUSDT" {
		t.Fatalf("unexpected Feed.Symbols: %+v", cfg.Feed.Symbols)
	}
	if cfg.Feed.PollInterval != 250 {
		t.Fatalf("unexpected Feed.PollInterval: %d", cfg.Feed.PollInterval)
	}
	if cfg.Gateway.OrderURL != "ws://localhost:9999/ws" {
		t.Fatalf("unexpected Gateway.OrderURL: %s", cfg.Gateway.OrderURL)
	}
	if cfg.Strategy.LeaderSymbol != "BTC" || cfg.Strategy.FollowerSymbol != "ETH" {
		t.Fatalf("unexpected strategy pair: %s/%s", cfg.Strategy.LeaderSymbol, cfg.Strategy.FollowerSymbol)
	}
	if cfg.Strategy.JumpThresholdBps != 30 {
		t.Fatalf("unexpected jump threshold: %.1f", cfg.Strategy.JumpThresholdBps)
	}
	if cfg.Strategy.MinCorrelation != 0.6 {
		t.Fatalf("unexpected min correlation: %.2f", cfg.Strategy.MinCorrelation)
	}
	if cfg.Strategy.LookbackWindow != 120 {
		t.Fatalf("unexpected lookback window: %d", cfg.Strategy.LookbackWindow)
	}
	if cfg.Strategy.PositionTimeout() != time.Minute {
		t.Fatalf("unexpected position timeout: %s", cfg.Strategy.PositionTimeout())
	}
	if cfg.Risk.MaxNotionalPerTrade != 8 || cfg.Risk.MaxDailyLoss != 20 {
		t.Fatalf("unexpected risk limits: %+v", cfg.Risk)
	}
	if cfg.Paper.StartingCash != 2500 || cfg.Paper.FeeBps != 5 {
		t.Fatalf("unexpected paper settings: %+v", cfg.Paper)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	body := "app:\n  name: partial\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.App.Name != "partial" {
		t.Fatalf("override lost: %s", cfg.App.Name)
	}
	def := Defaults()
	if cfg.Strategy.JumpThresholdBps != def.Strategy.JumpThresholdBps {
		t.Fatalf("default jump threshold lost: %.1f", cfg.Strategy.JumpThresholdBps)
	}
	if cfg.Strategy.MaxOpenPositions != 2 || cfg.Strategy.PositionTimeoutSec != 120 {
		t.Fatalf("strategy defaults lost: %+v", cfg.Strategy)
	}
	if cfg.Feed.Provider != "binance" {
		t.Fatalf("feed default lost: %s", cfg.Feed.Provider)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []string{
		"strategy:\n  leader_symbol: \"\"\n",
		"strategy:\n  follower_symbol: BTC\n",
		"strategy:\n  jump_threshold_bps: -5\n",
		"strategy:\n  lookback_window: 5\n",
		"strategy:\n  max_open_positions: 0\n",
		"feed:\n  provider: carrier-pigeon\n",
	}
	for i, body := range cases {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("case %d: expected validation error for %q", i, body)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Defaults()
	cfg.Strategy.JumpThresholdBps = 33
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Strategy.JumpThresholdBps != 33 {
		t.Fatalf("round trip lost override: %.1f", loaded.Strategy.JumpThresholdBps)
	}
}

func TestSaveNil(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "x.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
