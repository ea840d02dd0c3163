package strategy

import (
	"testing"

	"arb-engine/internal/book"
	"arb-engine/pkg/types"
)

func TestEffectiveSellPriceScenario(t *testing.T) {
	t.Parallel()

	bids := book.NewSortedQuotes(types.BID)
	bids.SetQuote(dec(t, "20000"), dec(t, "5.0"))
	bids.SetQuote(dec(t, "1600"), dec(t, "5.0"))

	got, err := EffectiveSellPrice(bids, dec(t, "1.0"))
	if err != nil {
		t.Fatalf("EffectiveSellPrice() error = %v", err)
	}
	if !got.Equal(dec(t, "20000")) {
		t.Errorf("EffectiveSellPrice() = %s, want 20000", got)
	}
}

func TestEffectiveSellPriceWalksMultipleLevels(t *testing.T) {
	t.Parallel()

	bids := book.NewSortedQuotes(types.BID)
	bids.SetQuote(dec(t, "100"), dec(t, "1"))
	bids.SetQuote(dec(t, "90"), dec(t, "1"))

	got, err := EffectiveSellPrice(bids, dec(t, "2"))
	if err != nil {
		t.Fatalf("EffectiveSellPrice() error = %v", err)
	}
	// 0.5*100 + 0.5*90 = 95
	if !got.Equal(dec(t, "95")) {
		t.Errorf("EffectiveSellPrice() = %s, want 95", got)
	}
}

func TestEffectiveSellPriceInsufficientDepth(t *testing.T) {
	t.Parallel()

	bids := book.NewSortedQuotes(types.BID)
	bids.SetQuote(dec(t, "100"), dec(t, "0.5"))

	if _, err := EffectiveSellPrice(bids, dec(t, "1.0")); err != ErrInsufficientDepth {
		t.Errorf("EffectiveSellPrice() error = %v, want ErrInsufficientDepth", err)
	}
}

func TestEffectiveSellPriceRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	bids := book.NewSortedQuotes(types.BID)
	if _, err := EffectiveSellPrice(bids, dec(t, "0")); err == nil {
		t.Error("EffectiveSellPrice(0) = nil error, want error")
	}
}
