package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", s, err)
	}
	return d
}

func TestFloorToStep(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		step string
		want string
	}{
		{"exact multiple", "0.002", "0.0001", "0.002"},
		{"rounds down not up", "0.00299", "0.0001", "0.0029"},
		{"below one step", "0.00009", "0.0001", "0"},
		{"zero step passes through", "0.1234567", "0", "0.1234567"},
		{"coarse step", "7.9", "0.5", "7.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FloorToStep(dec(t, tc.raw), dec(t, tc.step))
			if !got.Equal(dec(t, tc.want)) {
				t.Errorf("FloorToStep(%s, %s) = %s, want %s", tc.raw, tc.step, got, tc.want)
			}
		})
	}
}

func TestFloorToStep_NoBinaryFloatDrift(t *testing.T) {
	// 0.1/0.001 is inexact in binary floating point; the decimal path
	// must still land exactly on a step multiple.
	got := FloorToStep(dec(t, "0.1"), dec(t, "0.001"))
	if !got.Equal(dec(t, "0.1")) {
		t.Fatalf("expected exact 0.1, got %s", got)
	}

	rem := got.Mod(dec(t, "0.001"))
	if !rem.IsZero() {
		t.Fatalf("result %s is not a step multiple, remainder %s", got, rem)
	}
}

func TestNormalizeQuantity(t *testing.T) {
	filters := SymbolFilters{
		StepSize: dec(t, "0.0001"),
		MinQty:   dec(t, "0.0001"),
	}

	quantity, reason := NormalizeQuantity(dec(t, "0.002"), filters)
	if reason != "" {
		t.Fatalf("expected pass, got reason %q", reason)
	}
	if !quantity.Equal(dec(t, "0.002")) {
		t.Errorf("unexpected quantity %s", quantity)
	}

	quantity, reason = NormalizeQuantity(dec(t, "0.00005"), filters)
	if reason != ReasonBelowMinQty {
		t.Fatalf("expected %q, got %q", ReasonBelowMinQty, reason)
	}
	if !quantity.IsZero() {
		t.Errorf("expected floored quantity 0, got %s", quantity)
	}
}

func TestCheckNotional(t *testing.T) {
	// 0.002 * 50000 = 100 USDT, comfortably above the 10 USDT floor.
	if reason := CheckNotional(dec(t, "0.002"), dec(t, "50000"), dec(t, "10")); reason != "" {
		t.Errorf("expected pass, got %q", reason)
	}

	// 0.0001 * 50000 = 5 USDT, below the floor.
	if reason := CheckNotional(dec(t, "0.0001"), dec(t, "50000"), dec(t, "10")); reason != ReasonBelowMinNotional {
		t.Errorf("expected %q, got %q", ReasonBelowMinNotional, reason)
	}

	// Exactly at the floor passes.
	if reason := CheckNotional(dec(t, "0.0002"), dec(t, "50000"), dec(t, "10")); reason != "" {
		t.Errorf("expected exact-floor pass, got %q", reason)
	}
}
