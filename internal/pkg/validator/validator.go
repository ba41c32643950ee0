package validator

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"coworking/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// Validate struct fields. Returns field -> failed tag, or nil when valid.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string)
	for _, fe := range verrs {
		errs[fe.Field()] = fe.Tag()
	}
	return errs
}

// Check is Validate for service code: it folds failures into one validation error.
func Check(v interface{}) error {
	errs := Validate(v)
	if errs == nil {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for f, tag := range errs {
		fields = append(fields, f+" ("+tag+")")
	}
	sort.Strings(fields)
	return domain.Validationf("invalid fields: %s", strings.Join(fields, ", "))
}
