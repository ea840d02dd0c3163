package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToCentsHalfUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"1.235", "1.24"},
		{"-1.005", "-1.01"},
	}

	for _, tt := range tests {
		got := RoundToCents(decimal.RequireFromString(tt.in))
		if got.String() != tt.want {
			t.Errorf("RoundToCents(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRoundDownToCentsTruncates(t *testing.T) {
	t.Parallel()

	got := RoundDownToCents(decimal.RequireFromString("1.239"))
	want := decimal.RequireFromString("1.23")
	if !got.Equal(want) {
		t.Errorf("RoundDownToCents(1.239) = %s, want %s", got, want)
	}
}

func TestRoundDownToMillisTruncates(t *testing.T) {
	t.Parallel()

	got := RoundDownToMillis(decimal.RequireFromString("0.123456"))
	want := decimal.RequireFromString("0.123")
	if !got.Equal(want) {
		t.Errorf("RoundDownToMillis(0.123456) = %s, want %s", got, want)
	}
}

func TestRoundToSatoshiHalfUp(t *testing.T) {
	t.Parallel()

	got := RoundToSatoshi(decimal.RequireFromString("0.123456785"))
	want := decimal.RequireFromString("0.12345679")
	if !got.Equal(want) {
		t.Errorf("RoundToSatoshi(0.123456785) = %s, want %s", got, want)
	}
}
