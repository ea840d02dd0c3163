package book

import (
	"strings"

	"github.com/shopspring/decimal"

	"arb-engine/pkg/types"
)

// Balance is a per-currency free/on-hold ledger. Lookup for an unknown
// currency returns a zero balance rather than an error, matching the
// domain's "never fails" lookup semantics. It is not safe for concurrent
// use on its own — ExchangeState's single RWMutex covers it, same as the
// order book and the orders map.
type Balance struct {
	funds map[string]types.Balance
}

// NewBalance returns an empty ledger.
func NewBalance() *Balance {
	return &Balance{funds: make(map[string]types.Balance)}
}

// Get returns the balance for currency, normalized to uppercase. Missing
// entries return the zero value.
func (b *Balance) Get(currency string) types.Balance {
	return b.funds[strings.ToUpper(currency)]
}

// Set replaces the balance for currency.
func (b *Balance) Set(currency string, bal types.Balance) {
	b.funds[strings.ToUpper(currency)] = bal
}

// Free is a convenience accessor for the free amount of one currency.
func (b *Balance) Free(currency string) decimal.Decimal {
	return b.Get(currency).Free
}
