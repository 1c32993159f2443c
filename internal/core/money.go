package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of fractional digits kept for every stored amount.
const moneyPlaces = 2

// Money is an exact base-10 amount with two fractional digits.
// Stored and serialized in its canonical text form, e.g. "1250.50".
type Money struct {
	d decimal.Decimal
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{d: decimal.Zero}

// NewMoney rounds d to two places.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.RoundBank(moneyPlaces)}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -moneyPlaces)}
}

// ParseMoney never fails: malformed or empty input yields ZeroMoney so that read
// paths aggregating stored amounts keep working.
func ParseMoney(v any) Money {
	m, err := ParseMoneyStrict(v)
	if err != nil {
		return ZeroMoney
	}
	return m
}

// ParseMoneyStrict accepts strings (thousands separators allowed), decimals,
// integers, floats and json.Number.
func ParseMoneyStrict(v any) (Money, error) {
	switch t := v.(type) {
	case nil:
		return ZeroMoney, fmt.Errorf("empty amount")
	case Money:
		return t, nil
	case *Money:
		if t == nil {
			return ZeroMoney, fmt.Errorf("empty amount")
		}
		return *t, nil
	case decimal.Decimal:
		return NewMoney(t), nil
	case int:
		return NewMoney(decimal.NewFromInt(int64(t))), nil
	case int64:
		return NewMoney(decimal.NewFromInt(t)), nil
	case float64:
		// Go through the shortest decimal representation rather than the binary value.
		return parseMoneyText(decimal.NewFromFloat(t).String())
	case json.Number:
		return parseMoneyText(t.String())
	case string:
		return parseMoneyText(t)
	case []byte:
		return parseMoneyText(string(t))
	default:
		return parseMoneyText(fmt.Sprint(t))
	}
}

func parseMoneyText(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return ZeroMoney, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d), nil
}

// Mul returns m × qty.
func (m Money) Mul(qty int) Money {
	return NewMoney(m.d.Mul(decimal.NewFromInt(int64(qty))))
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return NewMoney(m.d.Add(o.d))
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsZero() bool { return m.d.IsZero() }

// Decimal exposes the underlying exact value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the canonical two-decimal form.
func (m Money) String() string { return m.d.StringFixed(moneyPlaces) }

// Value stores Money as canonical text.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads a TEXT (or numeric) column. Unreadable values scan as zero.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = ZeroMoney
		return nil
	}
	*m = ParseMoney(src)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseMoneyStrict(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
