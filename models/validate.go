package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func reportValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return Category(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return Severity(fl.Field().String()).Valid()
		})
	})
	return validate
}

// ValidateReport checks the citizen-supplied fields of a report before it is stored.
// The returned error message is safe to show to the submitter.
func ValidateReport(r Report) error {
	// whitespace-only text counts as missing
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	err := reportValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s %q", strings.ToLower(fe.Field()), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
