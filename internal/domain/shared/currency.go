package shared

import "errors"

// ErrInvalidCurrency indicates a currency code outside the supported set
var ErrInvalidCurrency = errors.New("invalid currency")

// Currency is a supported account currency
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyPEN Currency = "PEN"
)

// ParseCurrency validates a currency code against the supported set
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case CurrencyUSD, CurrencyPEN:
		return Currency(code), nil
	default:
		return "", ErrInvalidCurrency
	}
}

func (c Currency) String() string {
	return string(c)
}
