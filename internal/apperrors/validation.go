package apperrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FromValidator converts the first failure of a validator run into a validation error.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return Wrap(err, KindValidation, CodeInvalidInput, "invalid input")
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return MissingField(fe.Field())
	}
	if fe.Param() != "" {
		return Validation(fe.Field(), fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param()))
	}
	return Validation(fe.Field(), fmt.Sprintf("failed %s", fe.Tag()))
}
