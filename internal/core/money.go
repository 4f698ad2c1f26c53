// Package core holds the ledger domain: money, dates, donations, expenses,
// installments, validation rules and the settlement allocation plan.
//
// Amounts are kept as integer cents. Caller input is converted exactly once,
// rounding to two decimals half away from zero, so later arithmetic on
// balances is exact.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds a single amount to keep sums far from int64 overflow.
const MaxAmountCents int64 = 1_000_000_000_000_00

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// Cents is a shorthand constructor.
func Cents(c int64) Money { return Money{Cents: c} }

// MoneyFromDecimal rounds d to two decimal places (half away from zero) and
// converts it to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	r := d.Round(2)
	if r.Abs().GreaterThan(decimal.New(MaxAmountCents, -2)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: r.Shift(2).IntPart()}, nil
}

// ParseMoney parses a decimal string such as "12.34" or "12,34".
//
// Examples:
//
//	ParseMoney("12.345") -> 1235 cents
//	ParseMoney("0.1")    -> 10 cents
//	ParseMoney("-2.005") -> -201 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units, for display and spreadsheets only.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a.Cents < b.Cents {
		return a
	}
	return b
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*m = Money{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
