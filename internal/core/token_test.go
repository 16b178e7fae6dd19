package core

import (
	"testing"
	"time"
)

func TestBondingPercentage(t *testing.T) {
	tests := []struct {
		name      string
		marketCap float64
		complete  bool
		want      int
	}{
		{"zero market cap", 0, false, 0},
		{"negative market cap", -100, false, 0},
		{"half way", 34500, false, 50},
		{"rounded up", 51800, false, 75},
		{"just below threshold", 68900, false, 99},
		{"at threshold but incomplete caps at 99", 69000, false, 99},
		{"far above threshold but incomplete caps at 99", 250000, false, 99},
		{"complete is always 100", 1000, true, 100},
		{"complete with zero cap is 100", 0, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BondingPercentage(tt.marketCap, tt.complete); got != tt.want {
				t.Errorf("BondingPercentage(%v, %v) = %d, want %d",
					tt.marketCap, tt.complete, got, tt.want)
			}
		})
	}
}

func TestFormatMarketCap(t *testing.T) {
	tests := []struct {
		marketCap float64
		want      string
	}{
		{532.1, "$532.10"},
		{999.994, "$999.99"},
		{1000, "$1.00K"},
		{71867, "$71.87K"},
		{999990, "$999.99K"},
		{1000000, "$1.00M"},
		{2100000, "$2.10M"},
		{0, "$0.00"},
	}

	for _, tt := range tests {
		if got := FormatMarketCap(tt.marketCap); got != tt.want {
			t.Errorf("FormatMarketCap(%v) = %q, want %q", tt.marketCap, got, tt.want)
		}
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	// 2024-01-15T00:00:00Z in seconds and milliseconds.
	const secs = int64(1705276800)
	want := time.Unix(secs, 0)

	if got := NormalizeTimestamp(secs); !got.Equal(want) {
		t.Errorf("seconds input: got %v, want %v", got, want)
	}
	if got := NormalizeTimestamp(secs * 1000); !got.Equal(want) {
		t.Errorf("milliseconds input: got %v, want %v", got, want)
	}
	if got := NormalizeTimestamp(0); !got.IsZero() {
		t.Errorf("zero input: got %v, want zero time", got)
	}
	if got := NormalizeTimestamp(-5); !got.IsZero() {
		t.Errorf("negative input: got %v, want zero time", got)
	}
}

func TestSnapshotChange(t *testing.T) {
	snap := &TokenSnapshot{
		Change5m:  fptr(1.5),
		Change24h: fptr(-3.25),
	}

	if v, ok := snap.Change(Timeframe5m); !ok || v != 1.5 {
		t.Errorf("Change(5m) = (%v, %v), want (1.5, true)", v, ok)
	}
	if v, ok := snap.Change(Timeframe24h); !ok || v != -3.25 {
		t.Errorf("Change(24h) = (%v, %v), want (-3.25, true)", v, ok)
	}
	if _, ok := snap.Change(Timeframe7d); ok {
		t.Error("Change(7d) reported data for an empty window")
	}
	if _, ok := snap.Change("2h"); ok {
		t.Error("Change with unknown timeframe reported data")
	}

	if got := snap.Change24hValue(); got != -3.25 {
		t.Errorf("Change24hValue() = %v, want -3.25", got)
	}
	empty := &TokenSnapshot{}
	if got := empty.Change24hValue(); got != 0 {
		t.Errorf("Change24hValue() on empty snapshot = %v, want 0", got)
	}
}
