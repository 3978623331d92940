package paper

import (
	"testing"

	"github.com/Jss-on/latentspeed/internal/execution"
)

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	fill := execution.Fill{ClientID: "a", Symbol: "ETHUSDT", Size: 1}
	ledger.Record(fill)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(snapshot))
	}
	if snapshot[0].Symbol != fill.Symbol {
		t.Fatalf("unexpected fill symbol")
	}

	ledger.Reset()
	if len(ledger.Snapshot()) != 0 {
		t.Fatalf("expected ledger reset")
	}
}

func TestTeeFansOut(t *testing.T) {
	first := NewLedger(0)
	second := NewLedger(0)
	tee := Tee(first, nil, second)

	tee.Record(execution.Fill{ClientID: "a", Symbol: "ETHUSDT", Size: 0.5})

	if len(first.Snapshot()) != 1 || len(second.Snapshot()) != 1 {
		t.Fatalf("expected fill recorded by both ledgers")
	}
}
