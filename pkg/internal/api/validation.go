package api

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// checkForm runs struct-tag validation and folds the failures into a single
// user-facing validation error. Called before any request is built, so a bad
// form never reaches the network.
func checkForm(form any) *Error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return validationErr(err.Error())
	}

	messages := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return formatFieldError(fe)
	})
	return validationErr(strings.Join(messages, ", "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
