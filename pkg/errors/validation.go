package errors

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every caller; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks v against its `validate` struct tags and reports the
// first violation as an *Error with the given code. A nil v is reported with
// the same code rather than panicking inside the validator.
//
// Messages name the field and the violated bound, e.g.
// "EvaporationRate: must be less than 1 (got 1.5)".
func ValidateStruct(code Code, v any) error {
	if v == nil {
		return New(code, "value cannot be nil")
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return Wrap(code, err, "validation failed")
	}

	e := fieldErrs[0]
	field, param, got := e.Field(), e.Param(), e.Value()
	switch e.Tag() {
	case "required":
		return New(code, "%s: field is required", field)
	case "gt":
		return New(code, "%s: must be greater than %s (got %v)", field, param, got)
	case "gte", "min":
		return New(code, "%s: must be at least %s (got %v)", field, param, got)
	case "lt":
		return New(code, "%s: must be less than %s (got %v)", field, param, got)
	case "lte", "max":
		return New(code, "%s: must not exceed %s (got %v)", field, param, got)
	case "oneof":
		return New(code, "%s: must be one of [%s] (got %v)", field, param, got)
	default:
		return New(code, "%s: validation failed (%s)", field, e.Tag())
	}
}

// ValidatePath validates a user supplied output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
