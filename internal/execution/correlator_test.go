package execution

import (
	"math"
	"testing"
)

func TestCorrelatorOrderLifecycle(t *testing.T) {
	c := NewCorrelator()
	c.Track("leadlag_1")
	if !c.IsPending("leadlag_1") || c.PendingCount() != 1 {
		t.Fatalf("expected one pending order")
	}

	c.OnReport(Report{ClientID: "leadlag_1", Status: StatusAccepted})
	if c.IsPending("leadlag_1") {
		t.Fatal("report should clear pending state")
	}
	if s, ok := c.Status("leadlag_1"); !ok || s != StatusAccepted {
		t.Fatalf("status = %q, %v", s, ok)
	}

	c.OnFill(Fill{ClientID: "leadlag_1", Price: 2500, Size: 0.0005})
	c.OnFill(Fill{ClientID: "leadlag_1", Price: 2501, Size: 0.0003})
	c.OnReport(Report{ClientID: "leadlag_1", Status: StatusFilled})

	if s, _ := c.Status("leadlag_1"); s != StatusFilled {
		t.Fatalf("latest status should win, got %q", s)
	}
	fills := c.Fills("leadlag_1")
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].Price != 2500 || fills[1].Price != 2501 {
		t.Fatalf("fills out of order: %+v", fills)
	}
	if got := c.FilledSize("leadlag_1"); math.Abs(got-0.0008) > 1e-12 {
		t.Fatalf("filled size = %v", got)
	}
}

func TestCorrelatorUnknownIDs(t *testing.T) {
	c := NewCorrelator()

	c.OnReport(Report{ClientID: "mystery", Status: StatusRejected})
	if s, ok := c.Status("mystery"); !ok || s != StatusRejected {
		t.Fatalf("unknown-id report should still be recorded, got %q, %v", s, ok)
	}

	c.OnFill(Fill{ClientID: "ghost", Price: 1, Size: 1})
	if fills := c.Fills("ghost"); fills != nil {
		t.Fatalf("unknown-id fill should be dropped, got %+v", fills)
	}

	// A fill for an id known only through its report is kept.
	c.OnFill(Fill{ClientID: "mystery", Price: 2, Size: 3})
	if got := c.FilledSize("mystery"); got != 3 {
		t.Fatalf("filled size = %v", got)
	}
}

func TestCorrelatorIgnoresBlankIDs(t *testing.T) {
	c := NewCorrelator()
	c.Track("")
	c.OnReport(Report{Status: StatusAccepted})
	c.OnFill(Fill{Price: 1, Size: 1})
	if c.PendingCount() != 0 {
		t.Fatalf("blank ids must not be tracked")
	}
}

func TestCorrelatorFillsReturnsCopy(t *testing.T) {
	c := NewCorrelator()
	c.Track("a")
	c.OnFill(Fill{ClientID: "a", Price: 10, Size: 1})
	fills := c.Fills("a")
	fills[0].Price = 999
	if again := c.Fills("a"); again[0].Price != 10 {
		t.Fatalf("internal fills mutated through snapshot: %+v", again)
	}
}
