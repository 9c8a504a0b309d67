package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied whenever a Money value is built without a currency.
const DefaultCurrency = "USD"

// Money is an amount in a given ISO-4217 currency. Amounts are kept at two
// decimal places.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount.RoundBank(2), Currency: currency}
}

// Zero returns a zero amount in currency (DefaultCurrency when empty).
func Zero(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

func MustParseMoney(amount, currency string) Money {
	return NewMoney(decimal.RequireFromString(amount), currency)
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
