package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jss-on/latentspeed/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== LatentSpeed Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit strategy knobs")
		fmt.Println("3) Edit risk and paper settings")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper bot")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editStrategy(reader, cfg)
		case "3":
			editRisk(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Leader -> follower: %s -> %s\n", cfg.Strategy.LeaderSymbol, cfg.Strategy.FollowerSymbol)
	fmt.Printf("Jump threshold: %.1f bps | min correlation: %.2f | lookback: %d\n",
		cfg.Strategy.JumpThresholdBps, cfg.Strategy.MinCorrelation, cfg.Strategy.LookbackWindow)
	fmt.Printf("Position sizing: base $%.2f, cap $%.2f\n", cfg.Strategy.BasePositionUSD, cfg.Strategy.MaxPositionUSD)
	fmt.Printf("Exits: stop %.1f bps, take %.1f bps, timeout %s\n",
		cfg.Strategy.StopLossBps, cfg.Strategy.TakeProfitBps, cfg.Strategy.PositionTimeout())
	fmt.Printf("Max open positions: %d\n", cfg.Strategy.MaxOpenPositions)
	fmt.Printf("Per-trade notional cap: $%.2f | daily loss limit: $%.2f\n",
		cfg.Risk.MaxNotionalPerTrade, cfg.Risk.MaxDailyLoss)
	fmt.Printf("Paper: starting cash $%.2f, fee %.1f bps, fills %s\n",
		cfg.Paper.StartingCash, cfg.Paper.FeeBps, cfg.Paper.FillsPath)
	fmt.Printf("Feed: %s %s\n", cfg.Feed.Provider, strings.Join(cfg.Feed.Symbols, ", "))
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	cfg.Strategy.JumpThresholdBps = promptFloat(reader, "Jump threshold (bps)", cfg.Strategy.JumpThresholdBps)
	cfg.Strategy.MinCorrelation = promptFloat(reader, "Min correlation", cfg.Strategy.MinCorrelation)
	cfg.Strategy.LookbackWindow = int(promptFloat(reader, "Lookback window (ticks)", float64(cfg.Strategy.LookbackWindow)))
	cfg.Strategy.BasePositionUSD = promptFloat(reader, "Base position (USD)", cfg.Strategy.BasePositionUSD)
	cfg.Strategy.MaxPositionUSD = promptFloat(reader, "Max position (USD)", cfg.Strategy.MaxPositionUSD)
	cfg.Strategy.StopLossBps = promptFloat(reader, "Stop loss (bps)", cfg.Strategy.StopLossBps)
	cfg.Strategy.TakeProfitBps = promptFloat(reader, "Take profit (bps)", cfg.Strategy.TakeProfitBps)
	cfg.Strategy.MaxOpenPositions = int(promptFloat(reader, "Max open positions", float64(cfg.Strategy.MaxOpenPositions)))
	cfg.Strategy.PositionTimeoutSec = int(promptFloat(reader, "Position timeout (seconds)", float64(cfg.Strategy.PositionTimeoutSec)))
}

func editRisk(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Risk / Paper ---")
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (USD)", cfg.Risk.MaxNotionalPerTrade)
	cfg.Risk.MaxDailyLoss = promptFloat(reader, "Max daily loss (USD)", cfg.Risk.MaxDailyLoss)
	cfg.Paper.StartingCash = promptFloat(reader, "Paper starting cash (USD)", cfg.Paper.StartingCash)
	cfg.Paper.FeeBps = promptFloat(reader, "Paper fee (bps)", cfg.Paper.FeeBps)
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
