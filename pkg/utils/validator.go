// Package utils provides small shared helpers.
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/crowdlens/crowdlens/pkg/errors"
)

var defaultValidator = validator.New()

// ValidateStruct validates a struct against its `validate` tags and returns
// a validation failure naming the offending fields.
func ValidateStruct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeValidation, "invalid request")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return errors.Newf(errors.CodeValidation, "invalid fields: %s", strings.Join(fields, ", "))
}
