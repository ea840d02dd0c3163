package strategy

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// FeeFactor converts a fee rate expressed as a fraction of the gross into
// the post-fee multiplier: fee_factor(f) = 1 / (1 + f). A fee of 0.01
// (1%) yields approximately 0.990099.
func FeeFactor(rate decimal.Decimal) decimal.Decimal {
	return one.Div(one.Add(rate))
}

// CombinedFactor is the round-trip factor for a maker fill on the buy venue
// followed by a taker fill on the sell venue: F = fee_factor(maker) x
// fee_factor(taker).
func CombinedFactor(makerFee, takerFee decimal.Decimal) decimal.Decimal {
	return FeeFactor(makerFee).Mul(FeeFactor(takerFee))
}

// BidLimitPrice is the maximum bid price that realises profitFraction given
// effective sell price sellPrice and the combined fee factor F:
// bid = F x sellPrice / (1 + profitFraction).
func BidLimitPrice(combinedFactor, sellPrice, profitFraction decimal.Decimal) decimal.Decimal {
	return combinedFactor.Mul(sellPrice).Div(one.Add(profitFraction))
}

// ProfitFactor is the realised profit factor for a resting bid priced at
// bidPrice, given the current effective sell price: F x sellPrice / bidPrice.
// The strategy's target is 1 + profitFraction.
func ProfitFactor(combinedFactor, sellPrice, bidPrice decimal.Decimal) decimal.Decimal {
	return combinedFactor.Mul(sellPrice).Div(bidPrice)
}
