package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
)

var fields = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("compid", isCompID); err != nil {
		panic(err)
	}
	return v
}

// isCompID accepts a non-empty code without whitespace or control characters.
func isCompID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}

// HeaderFieldsRule checks the struct tags of the header: required fields,
// the component id shape, a non-negative weight and recognized constants.
func HeaderFieldsRule() Rule {
	return NewRule("header_fields", func(rec *chemcomp.Record) Result {
		var res Result
		err := fields.Struct(rec.Header)
		if err == nil {
			return res
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			res.errorf(CodeInvalidHeaderField, TableHeader, 0, "%v", err)
			return res
		}
		for _, fe := range verrs {
			res.errorf(CodeInvalidHeaderField, TableHeader, 0, "%s", formatFieldError(fe))
		}
		return res
	})
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "compid":
		return fmt.Sprintf("%s must be a code without whitespace, got %q", field, e.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
