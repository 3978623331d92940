package history

import (
	"errors"
	"testing"
	"time"

	"github.com/Jss-on/latentspeed/internal/signal"
)

func tick(price float64) signal.Tick {
	return signal.Tick{Symbol: "ETH", Price: price, Volume: 1, Ts: time.Unix(0, int64(price))}
}

func TestPushEvictsOldestAtCapacity(t *testing.T) {
	h := New(3)
	for _, px := range []float64{1, 2, 3, 4, 5} {
		h.Push(tick(px))
	}
	if h.Len() != 3 {
		t.Fatalf("expected len 3, got %d", h.Len())
	}
	got, err := h.Latest(3)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	want := []float64{3, 4, 5}
	for i, px := range want {
		if got[i].Price != px {
			t.Fatalf("latest[%d] = %.0f, want %.0f", i, got[i].Price, px)
		}
	}
}

func TestLatestRequiresEnoughSamples(t *testing.T) {
	h := New(8)
	h.Push(tick(1))
	h.Push(tick(2))
	if _, err := h.Latest(3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	got, err := h.Latest(2)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got[0].Price != 1 || got[1].Price != 2 {
		t.Fatalf("unexpected window %v", got)
	}
}

func TestLatestZeroOrNegative(t *testing.T) {
	h := New(4)
	h.Push(tick(1))
	if got, err := h.Latest(0); err != nil || got != nil {
		t.Fatalf("latest(0) = %v, %v", got, err)
	}
	if got, err := h.Latest(-1); err != nil || got != nil {
		t.Fatalf("latest(-1) = %v, %v", got, err)
	}
}

func TestLastAndLastTwo(t *testing.T) {
	h := New(2)
	if _, ok := h.Last(); ok {
		t.Fatal("empty buffer should not expose a last sample")
	}
	h.Push(tick(10))
	if _, _, ok := h.LastTwo(); ok {
		t.Fatal("single sample should not satisfy LastTwo")
	}
	h.Push(tick(11))
	h.Push(tick(12))
	prev, last, ok := h.LastTwo()
	if !ok || prev.Price != 11 || last.Price != 12 {
		t.Fatalf("LastTwo = %.0f, %.0f, %v", prev.Price, last.Price, ok)
	}
	if got, _ := h.Last(); got.Price != 12 {
		t.Fatalf("Last = %.0f, want 12", got.Price)
	}
}

func TestMinimumCapacity(t *testing.T) {
	h := New(0)
	if h.Cap() != 2 {
		t.Fatalf("expected minimum capacity 2, got %d", h.Cap())
	}
}
