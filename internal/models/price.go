package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// Price is an album purchase price. The zero value is not usable; build one with [NewPrice] or [ParsePrice].
type Price struct {
	m *money.Money
}

// NewPrice creates a price from an amount in minor units (cents for USD).
func NewPrice(minor int64, currency string) *Price {
	return &Price{m: money.New(minor, strings.ToUpper(currency))}
}

// ParsePrice reads loosely formatted sheet values such as "$9.99", "12 NZD", "$1,000" or "4,50".
//
// An embedded three-letter currency code wins over fallbackCurrency. Empty input returns a nil price.
func ParsePrice(raw, fallbackCurrency string) (*Price, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	code := strings.ToUpper(fallbackCurrency)
	if money.GetCurrency(code) == nil {
		code = money.USD
	}
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len(field) == 3 && money.GetCurrency(strings.ToUpper(field)) != nil {
			code = strings.ToUpper(field)
			break
		}
	}

	var digits strings.Builder
	runes := []rune(raw)
	for i, r := range runes {
		switch {
		case unicode.IsDigit(r), r == '.':
			digits.WriteRune(r)
		case r == ',' && !groupsThousands(runes[i+1:]):
			digits.WriteRune('.')
		}
	}

	number := digits.String()
	if strings.Count(number, ".") > 1 {
		last := strings.LastIndex(number, ".")
		number = strings.ReplaceAll(number[:last], ".", "") + number[last:]
	}

	amount, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	scale := math.Pow10(money.GetCurrency(code).Fraction)
	return &Price{m: money.New(int64(math.Round(amount*scale)), code)}, nil
}

// groupsThousands reports whether the text after a comma is a three digit group,
// as in "1,000" or "1,250.00", rather than a decimal part like "4,50".
func groupsThousands(rest []rune) bool {
	n := 0
	for n < len(rest) && unicode.IsDigit(rest[n]) {
		n++
	}
	if n != 3 {
		return false
	}
	return n == len(rest) || !unicode.IsDigit(rest[n])
}

// Minor returns the amount in minor units.
func (p *Price) Minor() int64 { return p.m.Amount() }

// Currency returns the ISO 4217 code.
func (p *Price) Currency() string { return p.m.Currency().Code }

// IsZero reports a free price.
func (p *Price) IsZero() bool { return p == nil || p.m == nil || p.m.IsZero() }

// Display formats the price with its currency symbol, e.g. "$9.99".
func (p *Price) Display() string {
	if p == nil || p.m == nil {
		return ""
	}
	return p.m.Display()
}

// Sheet formats the price the way a sheet cell carries it, e.g. "9.99 USD". [ParsePrice] reads it back.
func (p *Price) Sheet() string {
	if p == nil || p.m == nil {
		return ""
	}
	minor, fraction := p.Minor(), p.m.Currency().Fraction
	if fraction == 0 {
		return fmt.Sprintf("%d %s", minor, p.Currency())
	}
	scale := int64(math.Pow10(fraction))
	return fmt.Sprintf("%d.%0*d %s", minor/scale, fraction, minor%scale, p.Currency())
}

// String implements [fmt.Stringer].
func (p *Price) String() string { return p.Display() }

type priceJSON struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display,omitempty"`
}

// MarshalJSON encodes the amount in minor units along with a display string.
func (p *Price) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(priceJSON{Amount: p.Minor(), Currency: p.Currency(), Display: p.Display()})
}

// UnmarshalJSON decodes the form written by [Price.MarshalJSON].
func (p *Price) UnmarshalJSON(data []byte) error {
	var v priceJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency == "" {
		v.Currency = money.USD
	}
	p.m = money.New(v.Amount, v.Currency)
	return nil
}
