// Package money implements the fixed-point currency representation used for
// unit prices and quote totals. Values are held as integer minor units
// (cents) so repeated sums never accumulate floating-point drift.
package money

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quotesapp/backend-quotes/internal/common"
)

// Pattern accepted from user input: a whole number optionally followed by
// exactly two decimal digits. No sign, no thousands separators.
var textPattern = regexp.MustCompile(`^\d+(\.\d{2})?$`)

// Money is a monetary amount in minor units (cents).
type Money int64

// Zero is the default amount.
const Zero Money = 0

// Parse converts user-entered text into an exact amount. A mismatch fails
// with a validation error naming the offending field; callers must surface
// that error, never substitute zero.
func Parse(field, text string) (Money, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, common.NewValidationError(field, "can't be blank")
	}
	if !textPattern.MatchString(trimmed) {
		return 0, common.NewValidationError(field, "must be a valid amount")
	}
	whole := trimmed
	cents := int64(0)
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		whole = trimmed[:i]
		frac, err := strconv.ParseInt(trimmed[i+1:], 10, 64)
		if err != nil {
			return 0, common.NewValidationError(field, "must be a valid amount")
		}
		cents = frac
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > math.MaxInt64/100-1 {
		return 0, common.NewValidationError(field, "is out of range")
	}
	return Money(units*100 + cents), nil
}

// FromFloat seeds an amount from a float. Only used for zero/default values;
// user input always goes through Parse.
func FromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

// MulQty multiplies the unit amount by a line-item quantity.
func (m Money) MulQty(qty int) Money {
	return m * Money(qty)
}

// Add returns the exact sum of two amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sum folds amounts without intermediate rounding.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}

// String renders the plain numeric round-trip form used by edit forms,
// always with two decimal places: 2550 -> "25.50".
func (m Money) String() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v/100, 10) + "." + pad2(v%100)
	if neg {
		return "-" + s
	}
	return s
}

// Display renders the short display form with a currency symbol and
// thousands separators: 123456 -> "$1,234.56".
func (m Money) Display() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	units := strconv.FormatInt(v/100, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(units) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(units[:lead])
	for i := lead; i < len(units); i += 3 {
		b.WriteByte(',')
		b.WriteString(units[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(pad2(v % 100))
	return b.String()
}

// Cents exposes the raw minor-unit value for persistence.
func (m Money) Cents() int64 {
	return int64(m)
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
