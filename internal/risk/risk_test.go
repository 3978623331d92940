package risk

import "testing"

func TestAllow(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 50}
	if !limits.Allow(49.9) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.Allow(50.1) {
		t.Fatalf("expected notional above limit to fail")
	}
}

func TestAllowUnlimitedWhenUnset(t *testing.T) {
	limits := Limits{}
	if !limits.Allow(1e9) {
		t.Fatalf("zero limit should disable the cap")
	}
}

func TestDailyLossBreached(t *testing.T) {
	limits := Limits{MaxDailyLoss: 10}
	if limits.DailyLossBreached(-9.99) {
		t.Fatalf("loss inside budget should pass")
	}
	if !limits.DailyLossBreached(-10) {
		t.Fatalf("loss at budget should trip")
	}
	if limits.DailyLossBreached(5) {
		t.Fatalf("profit should never trip")
	}
}

func TestDailyLossDisabledWhenUnset(t *testing.T) {
	limits := Limits{}
	if limits.DailyLossBreached(-1e9) {
		t.Fatalf("zero budget should disable the kill switch")
	}
}
