package types

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a request. It matches
// ErrValidation, and Cause when set, with errors.Is.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
	Cause  error        `json:"-"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Invalid reports err as a rejection of field.
func Invalid(field string, err error) *ValidationError {
	return &ValidationError{
		Fields: []FieldError{{Field: field, Message: err.Error()}},
		Cause:  err,
	}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	messages := make([]string, len(e.Fields))
	for i, field := range e.Fields {
		messages[i] = field.Message
	}
	return strings.Join(messages, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

const passwordSpecials = "!@#$%^&*"

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		_ = validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("15:04", fl.Field().String())
			return err == nil && len(fl.Field().String()) == 5
		})
	})
	return validate
}

// StrongPassword requires an upper case letter, a lower case letter, a digit
// and one of !@#$%^&*.
func StrongPassword(password string) bool {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	result := &ValidationError{}
	for _, fieldErr := range fieldErrors {
		result.Fields = append(result.Fields, FieldError{
			Field:   fieldErr.Field(),
			Message: describe(fieldErr),
		})
	}
	return result
}

func describe(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fieldErr.Param())
	case "strongpassword":
		return field + " must contain an upper case letter, a lower case letter, a digit and one of " + passwordSpecials
	case "phone":
		return field + " must contain 10 to 15 digits"
	case "clock":
		return field + " must be a time formatted HH:mm"
	case "datetime":
		return field + " must be a date formatted YYYY-MM-DD"
	case "latitude", "longitude":
		return field + " is out of range"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fieldErr.Tag())
	}
}
