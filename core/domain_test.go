package core

import "testing"

func TestDisplayMajorUnitsHalfUpRounding(t *testing.T) {
	cases := []struct {
		minor int64
		want  int64
	}{
		{0, 0},
		{-100, 0},
		{49, 0},
		{50, 1},
		{100, 1},
		{5000, 50},
		{5049, 50},
		{5050, 51},
		{5051, 51},
	}
	for _, tc := range cases {
		if got := DisplayMajorUnits(tc.minor); got != tc.want {
			t.Fatalf("DisplayMajorUnits(%d) = %d, want %d", tc.minor, got, tc.want)
		}
	}
}

func TestSameCurrency(t *testing.T) {
	if !SameCurrency("AUD", "aud") {
		t.Fatalf("currency comparison must be case-insensitive")
	}
	if !SameCurrency(" aud ", "AUD") {
		t.Fatalf("currency comparison must trim whitespace")
	}
	if SameCurrency("aud", "usd") {
		t.Fatalf("distinct currencies must not match")
	}
}
