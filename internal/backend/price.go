package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price keeps the literal the backend sent ("19.99" or 19.99) so values
// round-trip without float coercion. Arithmetic goes through Decimal.
type Price struct {
	literal string
	quoted  bool
}

// NewPrice builds a price from a decimal, rendered with two places.
func NewPrice(d decimal.Decimal) Price {
	return Price{literal: d.StringFixed(2)}
}

// ParsePrice validates s as a non-negative decimal. Literals that are not
// valid JSON numbers (".5", "05", "+5") are stored in canonical form.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("backend: invalid price %q: %w", s, err)
	}
	if d.IsNegative() {
		return Price{}, fmt.Errorf("backend: price %q must not be negative", s)
	}
	if !json.Valid([]byte(s)) {
		s = d.String()
	}
	return Price{literal: s}, nil
}

// Valid reports whether the price carries a value.
func (p Price) Valid() bool {
	return p.literal != ""
}

// String returns the literal as received.
func (p Price) String() string {
	return p.literal
}

// Decimal returns the numeric value, or zero when unset or malformed.
func (p Price) Decimal() decimal.Decimal {
	if !p.Valid() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.literal)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders the price with two decimal places.
func (p Price) Format() string {
	if !p.Valid() {
		return ""
	}
	return p.Decimal().StringFixed(2)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price{literal: s, quoted: true}
		return nil
	}
	if _, err := decimal.NewFromString(string(data)); err != nil {
		return fmt.Errorf("backend: invalid price %s: %w", data, err)
	}
	*p = Price{literal: string(data)}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	if p.quoted {
		return json.Marshal(p.literal)
	}
	if !json.Valid([]byte(p.literal)) {
		return []byte(p.Decimal().String()), nil
	}
	return []byte(p.literal), nil
}
