package paper

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/Jss-on/latentspeed/internal/execution"
)

func TestJSONLRecorder(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/fills.jsonl"

	recorder, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder error: %v", err)
	}
	fill := execution.Fill{ClientID: "a", Symbol: "ETHUSDT", Side: "buy", Size: 0.0003, Price: 2000}
	recorder.Record(fill)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	// Record after close is a no-op rather than a panic.
	recorder.Record(fill)

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in recorder output")
	}
	var decoded execution.Fill
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.Symbol != fill.Symbol || decoded.Side != fill.Side {
		t.Fatalf("unexpected decoded fill")
	}
	if scanner.Scan() {
		t.Fatalf("unexpected extra line after close")
	}
}
