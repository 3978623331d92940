package execution

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

type captureRecorder struct{ fills []Fill }

func (r *captureRecorder) Record(f Fill) { r.fills = append(r.fills, f) }

func drain(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			t.Fatalf("expected %d buffered events, got %d", n, len(out))
		}
	}
	return out
}

func TestPaperGatewayLifecycle(t *testing.T) {
	rec := &captureRecorder{}
	g := NewPaperGateway(zerolog.Nop(), 10, rec)

	in := Intent{
		ClientID:       "leadlag_7",
		Symbol:         "ETH",
		Side:           Buy,
		Size:           0.001,
		ReferencePrice: 2000,
	}
	if err := g.Place(context.Background(), in); err != nil {
		t.Fatalf("place: %v", err)
	}

	events := drain(t, g.Events(), 3)
	if events[0].Kind != KindReport || events[0].Report.Status != StatusAccepted {
		t.Fatalf("first event should be accepted report: %+v", events[0])
	}
	if events[1].Kind != KindFill {
		t.Fatalf("second event should be the fill: %+v", events[1])
	}
	if events[2].Kind != KindReport || events[2].Report.Status != StatusFilled {
		t.Fatalf("third event should be filled report: %+v", events[2])
	}

	fill := events[1].Fill
	if fill.ClientID != "leadlag_7" || fill.Price != 2000 || fill.Size != 0.001 {
		t.Fatalf("fill mismatch: %+v", fill)
	}
	wantFee := 0.001 * 2000 * 10 / 10000
	if fill.FeeAmount != wantFee {
		t.Fatalf("fee = %v, want %v", fill.FeeAmount, wantFee)
	}
	if len(rec.fills) != 1 || rec.fills[0].ExecID == "" {
		t.Fatalf("recorder should capture the fill: %+v", rec.fills)
	}
}

func TestPaperGatewayRejectsInvalidIntent(t *testing.T) {
	g := NewPaperGateway(zerolog.Nop(), 0, nil)
	if err := g.Place(context.Background(), Intent{ClientID: "x", Symbol: "ETH", Side: Buy, Size: 1}); err == nil {
		t.Fatal("expected error for missing reference price")
	}
	if err := g.Place(context.Background(), Intent{Symbol: "ETH", Side: Buy, Size: 1, ReferencePrice: 10}); err == nil {
		t.Fatal("expected error for missing client id")
	}
}

func TestPaperGatewayClosed(t *testing.T) {
	g := NewPaperGateway(zerolog.Nop(), 0, nil)
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
	err := g.Place(context.Background(), Intent{ClientID: "x", Symbol: "ETH", Side: Buy, Size: 1, ReferencePrice: 10})
	if err == nil {
		t.Fatal("expected error after close")
	}
}
