// Package validate wires the shared go-playground validator instance with the
// domain's textual input rules. Validation runs eagerly at the HTTP boundary
// before any store mutation begins.
package validate

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/quotesapp/backend-quotes/internal/common"
)

var (
	moneyPattern    = regexp.MustCompile(`^\d+(\.\d{2})?$`)
	quantityPattern = regexp.MustCompile(`^\d+$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// DateLayout is the calendar date wire format.
const DateLayout = "2006-01-02"

// New builds a validator with the domain rules registered. Field names in
// errors come from json tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("money_text", func(fl validator.FieldLevel) bool {
		return moneyPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("quantity_text", func(fl validator.FieldLevel) bool {
		text := fl.Field().String()
		if !quantityPattern.MatchString(text) {
			return false
		}
		qty, err := strconv.Atoi(text)
		return err == nil && qty > 0
	})
	_ = v.RegisterValidation("quote_date", func(fl validator.FieldLevel) bool {
		text := fl.Field().String()
		if !datePattern.MatchString(text) {
			return false
		}
		_, err := time.Parse(DateLayout, text)
		return err == nil
	})
	return v
}

// Struct validates the payload and converts the first failure into the API
// validation error naming the offending field.
func Struct(v *validator.Validate, payload any) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return common.NewValidationError("payload", "is invalid")
	}
	first := errs[0]
	return common.NewValidationError(first.Field(), reasonFor(first.Tag()))
}

func reasonFor(tag string) string {
	switch tag {
	case "required":
		return "can't be blank"
	case "money_text":
		return "must be a valid amount"
	case "quantity_text":
		return "must be a positive integer"
	case "quote_date":
		return "must be a valid date (YYYY-MM-DD)"
	default:
		return "is invalid"
	}
}
