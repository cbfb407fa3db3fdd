package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator with the domain tags
// "username" and "password" registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return ValidateUsername(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

// Struct validates a request DTO and renders the first failure as a readable message.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "dive":
		return field + " contains an invalid value"
	case "username":
		if err := ValidateUsername(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	case "password":
		if err := ValidatePassword(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
	}
	return fmt.Sprintf("%s is invalid", field)
}
