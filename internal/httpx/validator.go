package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct checks the `validate` tags on s and returns one detail per
// failing field, or nil.
func ValidateStruct(s interface{}) []ErrorDetail {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDetail{{Field: "", Message: err.Error()}}
	}

	details := make([]ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		field, param := fe.Field(), fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", field)
		case "email":
			msg = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("%s must be at least %s characters", field, param)
			} else {
				msg = fmt.Sprintf("%s must be at least %s", field, param)
			}
		case "max":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("%s must be at most %s characters", field, param)
			} else {
				msg = fmt.Sprintf("%s must be at most %s", field, param)
			}
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, ErrorDetail{Field: field, Message: msg})
	}
	return details
}
