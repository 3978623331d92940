package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBinanceAPIBaseURL = "https://api.binance.com"

// SymbolVerifier checks configured symbols against the venue's tradable
// catalog before the feed subscribes to them.
type SymbolVerifier struct {
	log     zerolog.Logger
	client  *http.Client
	baseURL string
}

type symbolCatalog struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"symbols"`
}

// NewSymbolVerifier constructs a verifier against the Binance spot catalog.
func NewSymbolVerifier(log zerolog.Logger, baseURL string) *SymbolVerifier {
	if baseURL == "" {
		baseURL = defaultBinanceAPIBaseURL
	}
	return &SymbolVerifier{
		log:     log,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Verify returns the subset of symbols currently tradable, preserving input
// order. Unknown or halted symbols are logged and dropped.
func (v *SymbolVerifier) Verify(ctx context.Context, symbols []string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v3/exchangeInfo", v.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "latentspeed/1.0 (symbols)")
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var catalog symbolCatalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	tradable := make(map[string]struct{}, len(catalog.Symbols))
	for _, s := range catalog.Symbols {
		if s.Status == "TRADING" {
			tradable[s.Symbol] = struct{}{}
		}
	}

	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := tradable[sym]; ok {
			out = append(out, sym)
			continue
		}
		v.log.Warn().Str("symbol", sym).Msg("symbol not tradable on venue")
	}
	return out, nil
}
