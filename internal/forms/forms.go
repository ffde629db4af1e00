// Package forms decodes posted page forms and validates them with
// go-playground/validator, turning failures into per-field messages.
package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"pulse/internal/format"
	"pulse/internal/models"
)

// Errors maps a form field name to the first message reported for it.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Get(field string) string { return e[field] }

func (e Errors) Any() bool { return len(e) > 0 }

var (
	cardNumberRe = regexp.MustCompile(`^[0-9]{16}$`)
	cvvRe        = regexp.MustCompile(`^[0-9]{3,4}$`)
	monthRe      = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return cardNumberRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool {
		return cvvRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("expmonth", func(fl validator.FieldLevel) bool {
		return monthRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("eventtag", func(fl validator.FieldLevel) bool {
		return models.Tag(strings.ToLower(fl.Field().String())).Valid()
	}))
	must(v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := format.ParseDollars(fl.Field().String())
		return err == nil
	}))

	v.RegisterStructValidation(bookingStructLevel, BookingForm{})
	v.RegisterStructValidation(eventStructLevel, EventForm{})

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// check runs the validator over s. messages is keyed "field.tag"; unknown
// pairs fall back to a generic message per tag.
func check(s interface{}, messages map[string]string) Errors {
	errs := Errors{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("_form", err.Error())
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = defaultMessage(fe)
		}
		errs.Add(field, msg)
	}
	return errs
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "Required"
	case "email":
		return "Invalid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "Values must match"
	default:
		return "Invalid value"
	}
}
