package exchange

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/signal"
)

func TestFeedRunEmitsTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeed(ProviderStub, []string{"BTCUSDT"}, zerolog.Nop())
	ticks := make(chan signal.Tick, 1)

	go func() {
		_ = feed.Run(ctx, ticks)
	}()

	select {
	case tk := <-ticks:
		if tk.Symbol != "BTCUSDT" {
			t.Fatalf("unexpected symbol %s", tk.Symbol)
		}
		if tk.Price <= 0 {
			t.Fatalf("expected positive price, got %v", tk.Price)
		}
		cancel()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestStubFeedKeepsSymbolsCorrelated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeed(ProviderStub, []string{"BTCUSDT", "ETHUSDT"}, zerolog.Nop())
	ticks := make(chan signal.Tick, 8)

	go func() {
		_ = feed.Run(ctx, ticks)
	}()

	prices := map[string][]float64{}
	deadline := time.After(5 * time.Second)
	for len(prices["BTCUSDT"]) < 2 || len(prices["ETHUSDT"]) < 2 {
		select {
		case tk := <-ticks:
			prices[tk.Symbol] = append(prices[tk.Symbol], tk.Price)
		case <-deadline:
			t.Fatal("timed out collecting ticks")
		}
	}
	cancel()

	// Both symbols walk with the same multiplicative steps, so the price
	// ratio must stay constant.
	r0 := prices["BTCUSDT"][0] / prices["ETHUSDT"][0]
	r1 := prices["BTCUSDT"][1] / prices["ETHUSDT"][1]
	if math.Abs(r0-r1) > 1e-9 {
		t.Fatalf("price ratio drifted: %v vs %v", r0, r1)
	}
}

func TestParseBinanceSymbol(t *testing.T) {
	cases := map[string]string{
		"btcusdt@trade":    "BTCUSDT",
		"ethusdt@aggTrade": "ETHUSDT",
		"dogeusdt":         "DOGEUSDT",
		"":                 "",
	}
	for stream, expected := range cases {
		if got := parseBinanceSymbol(stream); got != expected {
			t.Fatalf("expected %s got %s", expected, got)
		}
	}
}

func TestSetSymbolsDeduplicatesAndSorts(t *testing.T) {
	feed := NewFeed(ProviderStub, []string{" ETHUSDT", "BTCUSDT", "ETHUSDT", ""}, zerolog.Nop())
	got := feed.snapshotSymbols()
	if len(got) != 2 || got[0] != "BTCUSDT" || got[1] != "ETHUSDT" {
		t.Fatalf("unexpected symbols %v", got)
	}
}

func TestRunBybitEmitsTickAndSkipsRepeats(t *testing.T) {
	const body = `{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[{"symbol":"ETHUSDT","lastPrice":"2418.5","volume24h":"120000"}]},"time":1717000000000}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewFeed(
		ProviderBybit,
		[]string{"ETHUSDT"},
		zerolog.Nop(),
		WithBybitConfig(server.URL, "linear"),
		WithPollInterval(50*time.Millisecond),
	)

	ticks := make(chan signal.Tick, 4)
	errCh := make(chan error, 1)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case tk := <-ticks:
		if tk.Symbol != "ETHUSDT" {
			t.Fatalf("unexpected symbol %s", tk.Symbol)
		}
		if tk.Price != 2418.5 {
			t.Fatalf("unexpected price %v", tk.Price)
		}
		if tk.Volume != 120000 {
			t.Fatalf("unexpected volume %v", tk.Volume)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}

	// The ticker price never changes, so repeat polls emit nothing.
	select {
	case tk := <-ticks:
		t.Fatalf("unexpected repeat tick %+v", tk)
	case <-time.After(300 * time.Millisecond):
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("feed returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after cancel")
	}
}

func TestRunBybitSurfacesAPIError(t *testing.T) {
	const body = `{"retCode":10001,"retMsg":"params error","result":{},"time":0}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	feed := NewFeed(ProviderBybit, []string{"ETHUSDT"}, zerolog.Nop(), WithBybitConfig(server.URL, "linear"))
	client := &http.Client{Timeout: time.Second}
	if _, err := feed.fetchBybitTicker(context.Background(), client, "ETHUSDT"); err == nil {
		t.Fatal("expected error for non-zero retCode")
	}
}
