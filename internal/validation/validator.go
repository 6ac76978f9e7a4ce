package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "carservice/internal/errors"
)

// New returns a validator with the field checks registered as struct tags:
// vin, modelyear, email_simple, password, mileage, cost, date.
// It panics if a tag cannot be registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register adds the custom tags to an existing validator.
func Register(v *validator.Validate) error {
	return registerTags(v, map[string]func(string) error{
		"vin":          VIN,
		"modelyear":    Year,
		"email_simple": Email,
		"password":     Password,
		"date":         Date,
		"mileage": func(s string) error {
			_, err := ParseMileage(s)
			return err
		},
		"cost": func(s string) error {
			_, err := ParseCost(s)
			return err
		},
	})
}

func registerTags(v *validator.Validate, tags map[string]func(string) error) error {
	for tag, check := range tags {
		check := check
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		})
		if err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

// Humanize turns a validator error into a single ValidationFailed error with a readable message.
// The first failing field wins, matching how the forms show one message at a time.
func Humanize(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := verrs[0]
	field := fe.Field()
	value := fmt.Sprint(fe.Value())

	switch fe.Tag() {
	case "required":
		return apperrors.Validation(field + " is required.")
	case "oneof":
		return apperrors.Validation(field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + ".")
	case "vin":
		return VIN(value)
	case "modelyear":
		return Year(value)
	case "email_simple", "email":
		return Email(value)
	case "password":
		return Password(value)
	case "date":
		return Date(value)
	case "mileage":
		_, err := ParseMileage(value)
		return err
	case "cost":
		_, err := ParseCost(value)
		return err
	default:
		return apperrors.Validation(field + " is invalid.")
	}
}
