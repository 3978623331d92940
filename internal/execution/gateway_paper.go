package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Jss-on/latentspeed/internal/metrics"
)

const paperFeeCurrency = "USDC"

// PaperGateway accepts and fully fills every order at its reference price.
// Each placement produces an accepted report, one fill, and a filled report
// on the events channel, mirroring the happy path of a live gateway.
type PaperGateway struct {
	log      zerolog.Logger
	feeBps   float64
	recorder FillRecorder
	events   chan Event

	mu     sync.Mutex
	seq    int64
	closed bool
}

// NewPaperGateway builds a gateway charging feeBps per fill. recorder may be
// nil when fills do not need to be persisted.
func NewPaperGateway(log zerolog.Logger, feeBps float64, recorder FillRecorder) *PaperGateway {
	if feeBps < 0 {
		feeBps = 0
	}
	return &PaperGateway{
		log:      log,
		feeBps:   feeBps,
		recorder: recorder,
		events:   make(chan Event, 128),
	}
}

// Place validates the intent and emits its synthetic lifecycle events.
func (g *PaperGateway) Place(_ context.Context, in Intent) error {
	if err := validateIntent(in); err != nil {
		return err
	}
	price := in.ReferencePrice
	if price <= 0 {
		return fmt.Errorf("paper gateway: intent %s has no reference price", in.ClientID)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrNotConnected
	}
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	now := time.Now().UnixNano()
	notional := in.Size * price
	fill := Fill{
		Version:         1,
		ClientID:        in.ClientID,
		ExchangeOrderID: fmt.Sprintf("paper-%d", seq),
		ExecID:          fmt.Sprintf("paper-exec-%d", seq),
		Symbol:          in.Symbol,
		Side:            string(in.Side),
		Price:           price,
		Size:            in.Size,
		FeeAmount:       notional * g.feeBps / 10000,
		FeeCurrency:     paperFeeCurrency,
		Liquidity:       "taker",
		TsNs:            now,
	}

	g.emit(Event{Kind: KindReport, Report: Report{Version: 1, ClientID: in.ClientID, Status: StatusAccepted, TsNs: now}})
	g.emit(Event{Kind: KindFill, Fill: fill})
	g.emit(Event{Kind: KindReport, Report: Report{Version: 1, ClientID: in.ClientID, Status: StatusFilled, TsNs: now}})

	if g.recorder != nil {
		g.recorder.Record(fill)
	}
	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Side)).Inc()
	g.log.Info().
		Str("cl_id", in.ClientID).
		Str("sym", in.Symbol).
		Str("side", string(in.Side)).
		Float64("qty", in.Size).
		Float64("px", price).
		Bool("reduce_only", in.ReduceOnly).
		Msg("paper fill")
	return nil
}

func (g *PaperGateway) emit(ev Event) {
	select {
	case g.events <- ev:
	default:
		g.log.Warn().Msg("paper gateway event buffer full, dropping event")
	}
}

// Events exposes the synthetic report and fill stream.
func (g *PaperGateway) Events() <-chan Event { return g.events }

// Close stops the gateway and closes the event channel.
func (g *PaperGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	close(g.events)
	return nil
}
