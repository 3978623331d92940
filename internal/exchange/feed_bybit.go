package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Jss-on/latentspeed/internal/metrics"
	"github.com/Jss-on/latentspeed/internal/signal"
)

type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string        `json:"category"`
		List     []bybitTicker `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

type bybitTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume24h string `json:"volume24h"`
}

func (f *Feed) runBybit(ctx context.Context, out chan<- signal.Tick) error {
	client := &http.Client{Timeout: 10 * time.Second}
	if err := f.pollBybit(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
		f.log.Warn().Err(err).Msg("initial bybit poll failed")
	}

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.pollBybit(ctx, client, out); err != nil && !errors.Is(err, context.Canceled) {
				f.log.Warn().Err(err).Msg("bybit poll failed")
			}
		}
	}
}

func (f *Feed) pollBybit(ctx context.Context, client *http.Client, out chan<- signal.Tick) error {
	for _, sym := range f.snapshotSymbols() {
		tick, err := f.fetchBybitTicker(ctx, client, sym)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Str("symbol", sym).Msg("bybit fetch failed")
			continue
		}
		// Polled tickers repeat between trades; only forward fresh prices.
		if last, ok := f.lastPrices[tick.Symbol]; ok && last == tick.Price {
			continue
		}
		f.lastPrices[tick.Symbol] = tick.Price
		select {
		case out <- *tick:
			metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *Feed) fetchBybitTicker(ctx context.Context, client *http.Client, symbol string) (*signal.Tick, error) {
	base := strings.TrimSuffix(f.bybitBaseURL, "/")
	endpoint := fmt.Sprintf("%s/v5/market/tickers?category=%s&symbol=%s", base, f.bybitCategory, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "latentspeed/1.0 (feed)")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload bybitTickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", payload.RetCode, payload.RetMsg)
	}
	if len(payload.Result.List) == 0 {
		return nil, fmt.Errorf("no ticker data returned")
	}

	tkr := payload.Result.List[0]
	px, err := strconv.ParseFloat(tkr.LastPrice, 64)
	if err != nil || px <= 0 {
		return nil, fmt.Errorf("invalid price %q", tkr.LastPrice)
	}
	var vol float64
	if tkr.Volume24h != "" {
		if v, err := strconv.ParseFloat(tkr.Volume24h, 64); err == nil && v > 0 {
			vol = v
		}
	}
	name := tkr.Symbol
	if name == "" {
		name = symbol
	}
	ts := time.Now().UTC()
	if payload.Time > 0 {
		ts = time.UnixMilli(payload.Time)
	}
	return &signal.Tick{Symbol: name, Price: px, Volume: vol, Ts: ts}, nil
}
