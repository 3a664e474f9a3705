package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Money is an amount stored in minor units (two decimal places).
type Money int64

// ParseMoney parses a decimal amount with at most two decimal places.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, errors.New("empty amount")
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	units, fraction := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		units, fraction = s[:i], s[i+1:]
	}
	if units == "" || len(fraction) > 2 {
		return 0, errors.Errorf("invalid amount %q", s)
	}
	fraction += strings.Repeat("0", 2-len(fraction))

	n, err := strconv.ParseInt(units+fraction, 10, 64)
	if err != nil || strings.ContainsAny(units+fraction, "+-") {
		return 0, errors.Errorf("invalid amount %q", s)
	}

	if negative {
		n = -n
	}
	return Money(n), nil
}

// String implements fmt.Stringer.
func (m Money) String() string {
	sign := ""
	n := int64(m)
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
// Both JSON strings and numbers are accepted.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}

	s := string(data)
	if strings.HasPrefix(s, `"`) {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return errors.Wrap(err, "invalid amount")
		}
	}

	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
