// Package format holds the display helpers shared by the page templates:
// currency, dates and rich-text overview cleanup.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidAmount is returned for prices that are not non-negative decimals.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxDollars bounds a price so its value in cents fits an int64 exactly.
const MaxDollars = 1_000_000_000_000

var amountRe = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// Cents renders an amount in cents as US dollars, e.g. "$1,234.50".
func Cents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := cents / 100
	rest := cents % 100
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(dollars), rest)
}

// Price renders "Free" for zero and the dollar amount otherwise.
func Price(cents int64) string {
	if cents == 0 {
		return "Free"
	}
	return Cents(cents)
}

// DollarsToCents converts a decimal dollar amount to integer cents,
// rounding to the nearest cent.
func DollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// CentsToDollars is the inverse used to prefill edit forms.
func CentsToDollars(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

// ParseDollars parses user input such as "15", "15.5" or "$1,500.00".
// Only plain decimal notation up to MaxDollars is accepted.
func ParseDollars(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if !amountRe.MatchString(s) {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f > MaxDollars {
		return 0, ErrInvalidAmount
	}
	return DollarsToCents(f), nil
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// LongDate renders "Tuesday, November 4th, 2023".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday, January ") + Ordinal(t.Day()) + t.Format(", 2006")
}

// ShortDate renders "Tuesday, November 4th".
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday, January ") + Ordinal(t.Day())
}

// Clock renders "9:00 AM EST".
func Clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("3:04 PM MST")
}

// DateTimeLocalLayout is the <input type="datetime-local"> value format.
const DateTimeLocalLayout = "2006-01-02T15:04"

// DateTimeLocal renders the value expected by <input type="datetime-local">.
func DateTimeLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLocalLayout)
}

// Ordinal renders 1st, 2nd, 3rd, 4th, 11th, 21st...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Plural returns word or word+"s" depending on n.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
