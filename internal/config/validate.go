package config

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("basename", validateBasename)
	return v
}

// validateBasename accepts a plain file name with no directory part.
func validateBasename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && name != "." && name != ".." &&
		filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// Validate checks cfg and reports the first invalid key as E_INVALID_CONFIG.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.EInvalidConfig, "invalid config", err)
	}
	fe := verrs[0]
	key := fieldKey(fe.Namespace())
	return errors.NewWithDetails(errors.EInvalidConfig,
		fmt.Sprintf("invalid config: %s %s", key, describe(fe)),
		map[string]string{"key": key})
}

// fieldKey turns "Config.documents.settings[0]" into "documents.settings[0]".
func fieldKey(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "unique":
		return "must not repeat a name"
	case "basename":
		return fmt.Sprintf("must be a file name without directories, got %q", fmt.Sprint(fe.Value()))
	default:
		return "failed " + fe.Tag()
	}
}
