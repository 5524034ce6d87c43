package validator

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"villastay/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their JSON name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(domain.DateLayout, fl.Field().String())
		return err == nil
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}

	out := make(map[string]string)
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// AsDomainError folds the first failing field into a *domain.ValidationError.
func AsDomainError(v interface{}) error {
	fields := Validate(v)
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	first := names[0]
	for _, n := range names[1:] {
		if n < first {
			first = n
		}
	}
	return domain.NewValidationError(lowerFirst(first), "failed '"+fields[first]+"' check")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
