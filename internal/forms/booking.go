package forms

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"pulse/internal/models"
)

// BookingForm is the ticket purchase form. Max and Bounded are filled from
// the event before validation; Units is set once Quantity parses.
type BookingForm struct {
	Quantity string `form:"ticketQuantity" validate:"required"`
	Units    int    `form:"-" validate:"-"`
	Max      int    `form:"-" validate:"-"`
	Bounded  bool   `form:"-" validate:"-"`

	Payment PaymentForm `form:"-" validate:"-"`
}

// PaymentForm is only validated for priced events. Card data never leaves
// this process.
type PaymentForm struct {
	CardNumber      string `form:"cardNumber" validate:"required,cardnumber"`
	ExpirationMonth string `form:"expirationMonth" validate:"required,expmonth"`
	ExpirationYear  string `form:"expirationYear" validate:"required,len=4,numeric"`
	CVV             string `form:"cvv" validate:"required,cvv"`
}

var bookingMessages = map[string]string{
	"ticketQuantity.required": "Ticket quantity is required",
	"ticketQuantity.positive": "Ticket quantity must be positive",
	"ticketQuantity.integer":  "Ticket quantity must be a whole number",
	"ticketQuantity.toolarge": "Ticket quantity is too large",
}

// maxUnits caps a single booking so the count always fits the backend's
// 32-bit integer.
const maxUnits = math.MaxInt32

var (
	decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
	wholeRe   = regexp.MustCompile(`^\+?\d+$`)
)

var paymentMessages = map[string]string{
	"cardNumber.required":      "Card number is required",
	"cardNumber.cardnumber":    "Card number must be 16 digits",
	"expirationMonth.required": "Expiration month is required",
	"expirationMonth.expmonth": "Expiration month must be between 01 and 12",
	"expirationYear.required":  "Expiration year is required",
	"expirationYear.len":       "Expiration year must be 4 digits",
	"expirationYear.numeric":   "Expiration year must be 4 digits",
	"cvv.required":             "CVV is required",
	"cvv.cvv":                  "CVV must be 3 or 4 digits",
}

func ParseBooking(v url.Values) BookingForm {
	return BookingForm{
		Quantity: strings.TrimSpace(v.Get("ticketQuantity")),
		Payment: PaymentForm{
			CardNumber:      strings.TrimSpace(v.Get("cardNumber")),
			ExpirationMonth: strings.TrimSpace(v.Get("expirationMonth")),
			ExpirationYear:  strings.TrimSpace(v.Get("expirationYear")),
			CVV:             strings.TrimSpace(v.Get("cvv")),
		},
	}
}

// Validate checks the form against event. Payment fields are skipped for
// free events.
func (f *BookingForm) Validate(event *models.Event) Errors {
	f.Max, f.Bounded = event.MaxUnits()

	messages := make(map[string]string, len(bookingMessages)+1)
	for k, v := range bookingMessages {
		messages[k] = v
	}
	messages["ticketQuantity.max"] = fmt.Sprintf("Only %d tickets available", f.Max)

	errs := check(f, messages)
	if !errs.Any() {
		f.Units, _ = parseUnits(f.Quantity)
	}
	if !event.IsFree() {
		for field, msg := range check(&f.Payment, paymentMessages) {
			errs.Add(field, msg)
		}
	}
	return errs
}

// Total is the price of the requested units in cents.
func (f *BookingForm) Total(event *models.Event) int64 {
	return int64(f.Units) * event.Price
}

func (f *BookingForm) Input(event *models.Event) models.BookingInput {
	return models.BookingInput{Units: f.Units, Event: event.IRIOrPath()}
}

// bookingStructLevel checks the quantity in the same order the messages are
// ranked: positive, within stock, whole.
func bookingStructLevel(sl validator.StructLevel) {
	f := sl.Current().Interface().(BookingForm)
	if f.Quantity == "" {
		return
	}

	if !decimalRe.MatchString(f.Quantity) {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "integer", "")
		return
	}
	q, err := strconv.ParseFloat(f.Quantity, 64)
	if err != nil {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "toolarge", "")
		return
	}
	if q <= 0 {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "positive", "")
		return
	}
	if f.Bounded && q > float64(f.Max) {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "max", strconv.Itoa(f.Max))
		return
	}
	if !wholeRe.MatchString(f.Quantity) {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "integer", "")
		return
	}
	if _, ok := parseUnits(f.Quantity); !ok {
		sl.ReportError(f.Quantity, "ticketQuantity", "Quantity", "toolarge", "")
	}
}

// parseUnits reads a whole, positive quantity no larger than maxUnits.
func parseUnits(raw string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(raw, "+"), 10, 64)
	if err != nil || n <= 0 || n > maxUnits {
		return 0, false
	}
	return int(n), true
}
