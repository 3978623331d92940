// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	StatusAddr  string `yaml:"status_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data source streaming leader and follower prices.
type Feed struct {
	Provider     string   `yaml:"provider"`
	Symbols      []string `yaml:"symbols"`
	PollInterval int      `yaml:"poll_interval_ms"`
	BybitBaseURL string   `yaml:"bybit_base_url"`
}

// Gateway points at the order-gateway websocket endpoint and the venue
// routing stamped onto every order.
type Gateway struct {
	OrderURL    string `yaml:"order_url"`
	Venue       string `yaml:"venue"`
	ProductType string `yaml:"product_type"`
}

// Strategy groups the lead-lag tunables.
type Strategy struct {
	LeaderSymbol       string  `yaml:"leader_symbol"`
	FollowerSymbol     string  `yaml:"follower_symbol"`
	JumpThresholdBps   float64 `yaml:"jump_threshold_bps"`
	MinCorrelation     float64 `yaml:"min_correlation"`
	LookbackWindow     int     `yaml:"lookback_window"`
	BasePositionUSD    float64 `yaml:"base_position_usd"`
	MaxPositionUSD     float64 `yaml:"max_position_usd"`
	StopLossBps        float64 `yaml:"stop_loss_bps"`
	TakeProfitBps      float64 `yaml:"take_profit_bps"`
	MaxOpenPositions   int     `yaml:"max_open_positions"`
	PositionTimeoutSec int     `yaml:"position_timeout_seconds"`
}

// PositionTimeout converts the configured holding limit to a duration.
func (s Strategy) PositionTimeout() time.Duration {
	return time.Duration(s.PositionTimeoutSec) * time.Second
}

// Risk encodes guard-rails for how much size the engine may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MaxDailyLoss        float64 `yaml:"max_daily_loss"`
}

// Paper captures paper-trading settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	FeeBps       float64 `yaml:"fee_bps"`
	FillsPath    string  `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Feed     Feed     `yaml:"feed"`
	Gateway  Gateway  `yaml:"gateway"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
}

// Defaults returns the documented baseline configuration.
func Defaults() Config {
	return Config{
		App: App{
			Name:        "latentspeed",
			Env:         "dev",
			MetricsAddr: ":9109",
			StatusAddr:  ":8089",
			LogLevel:    "info",
		},
		Feed: Feed{
			Provider:     "binance",
			Symbols:      []string{"BTCUSDT", "ETHUSDT"},
			PollInterval: 1000,
			BybitBaseURL: "https://api.bybit.com",
		},
		Gateway: Gateway{
			OrderURL:    "ws://127.0.0.1:8787/ws",
			Venue:       "hyperliquid",
			ProductType: "perpetual",
		},
		Strategy: Strategy{
			LeaderSymbol:       "BTC",
			FollowerSymbol:     "ETH",
			JumpThresholdBps:   25,
			MinCorrelation:     0.55,
			LookbackWindow:     100,
			BasePositionUSD:    2,
			MaxPositionUSD:     4,
			StopLossBps:        40,
			TakeProfitBps:      80,
			MaxOpenPositions:   2,
			PositionTimeoutSec: 120,
		},
		Risk: Risk{
			MaxNotionalPerTrade: 10,
			MaxDailyLoss:        25,
		},
		Paper: Paper{
			StartingCash: 1000,
			FeeBps:       3,
			FillsPath:    "data/paper_fills.jsonl",
		},
	}
}

// Load reads a YAML file from disk and hydrates a Config on top of Defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.LeaderSymbol == "" || s.FollowerSymbol == "" {
		return fmt.Errorf("config: leader and follower symbols are required")
	}
	if s.LeaderSymbol == s.FollowerSymbol {
		return fmt.Errorf("config: leader and follower symbols must differ")
	}
	if s.JumpThresholdBps <= 0 {
		return fmt.Errorf("config: jump_threshold_bps must be positive")
	}
	if s.MinCorrelation < 0 || s.MinCorrelation > 1 {
		return fmt.Errorf("config: min_correlation must be in [0, 1]")
	}
	if s.LookbackWindow < 10 {
		return fmt.Errorf("config: lookback_window must be at least 10")
	}
	if s.BasePositionUSD <= 0 || s.MaxPositionUSD <= 0 {
		return fmt.Errorf("config: position sizes must be positive")
	}
	if s.StopLossBps <= 0 || s.TakeProfitBps <= 0 {
		return fmt.Errorf("config: stop_loss_bps and take_profit_bps must be positive")
	}
	if s.MaxOpenPositions <= 0 {
		return fmt.Errorf("config: max_open_positions must be positive")
	}
	switch c.Feed.Provider {
	case "stub", "binance", "bybit":
	default:
		return fmt.Errorf("config: unknown feed provider %q", c.Feed.Provider)
	}
	return nil
}
