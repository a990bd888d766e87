package payment

import (
	"strconv"
	"strings"
	"time"

	clierrors "github.com/codestack/cli/pkg/errors"
)

// Card is what the membership form collects.
type Card struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// digits strips spaces and dashes from a card number.
func digits(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// luhn reports whether number passes the mod-10 check.
func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Validate checks the card locally. now is the reference time for the
// expiry check.
func (c Card) Validate(now time.Time) error {
	number := digits(c.Number)
	if len(number) < 12 || len(number) > 19 || !luhn(number) {
		return clierrors.ValidationError("card number", "is invalid")
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		return clierrors.ValidationError("expiry month", "must be between 1 and 12")
	}
	year := c.ExpYear
	if year < 100 {
		year += 2000
	}
	if year < now.Year() || (year == now.Year() && c.ExpMonth < int(now.Month())) {
		return clierrors.ValidationError("expiry", "card has expired")
	}
	if _, err := strconv.Atoi(c.CVC); err != nil || len(c.CVC) < 3 || len(c.CVC) > 4 {
		return clierrors.ValidationError("cvc", "must be 3 or 4 digits")
	}
	return nil
}

// fullYear expands a two-digit year.
func (c Card) fullYear() int {
	if c.ExpYear < 100 {
		return c.ExpYear + 2000
	}
	return c.ExpYear
}
