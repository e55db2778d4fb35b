// Package exchange converts amounts between supported currencies using a
// bilateral rate table. The table is fixed and in-process today; RateSource
// keeps the lookup pluggable so a live feed can replace it without touching
// the transfer engine.
package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/domain/shared"
)

// RateSource resolves the rate for an ordered currency pair
type RateSource interface {
	Rate(from, to shared.Currency) (decimal.Decimal, error)
}

// ErrUnsupportedCurrencyPair indicates no rate exists for the ordered pair.
// Every pair of supported currencies has a rate, so hitting this is a
// programming error rather than a user-facing condition.
type ErrUnsupportedCurrencyPair struct {
	From shared.Currency
	To   shared.Currency
}

func (e ErrUnsupportedCurrencyPair) Error() string {
	return "no exchange rate for pair " + string(e.From) + "/" + string(e.To)
}

type pair struct {
	from shared.Currency
	to   shared.Currency
}

// FixedRateSource holds a static bilateral rate table
type FixedRateSource struct {
	rates map[pair]decimal.Decimal
}

// NewFixedRateSource builds the default USD/PEN table
func NewFixedRateSource() *FixedRateSource {
	return &FixedRateSource{
		rates: map[pair]decimal.Decimal{
			{shared.CurrencyUSD, shared.CurrencyPEN}: decimal.RequireFromString("3.75"),
			{shared.CurrencyPEN, shared.CurrencyUSD}: decimal.RequireFromString("0.2667"),
		},
	}
}

// Rate returns the rate for the ordered pair
func (s *FixedRateSource) Rate(from, to shared.Currency) (decimal.Decimal, error) {
	rate, ok := s.rates[pair{from, to}]
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrencyPair{From: from, To: to}
	}
	return rate, nil
}

// Converter converts amounts between currencies
type Converter struct {
	rates RateSource
}

// NewConverter creates a converter backed by the given rate source
func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert maps a source-currency amount to the destination currency. Equal
// currencies return the amount unchanged and a nil rate. Cross-currency
// amounts are multiplied by the bilateral rate and rounded half-up to two
// fraction digits; the rate used is returned at six fraction digits for the
// audit record.
func (c *Converter) Convert(amount decimal.Decimal, from, to shared.Currency) (decimal.Decimal, *decimal.Decimal, error) {
	if from == to {
		return amount, nil, nil
	}

	rate, err := c.rates.Rate(from, to)
	if err != nil {
		return decimal.Zero, nil, err
	}

	converted := amount.Mul(rate).Round(2)
	recorded := rate.Round(6)
	return converted, &recorded, nil
}
