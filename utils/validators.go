package utils

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 6

var (
	Validate      *validator.Validate
	validatorOnce sync.Once
)

// InitValidator registers the custom rules on both the standalone validator
// and the one gin uses for ShouldBindJSON. Safe to call more than once.
func InitValidator() {
	validatorOnce.Do(func() {
		Validate = validator.New()
		RegisterCustomValidators(Validate)
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterCustomValidators(v)
		}
	})
}

// ValidateStruct runs the validate tags of s.
func ValidateStruct(s interface{}) error {
	InitValidator()
	return Validate.Struct(s)
}

// ValidationMessage turns validator errors into one readable sentence per
// failing field, e.g. "email must be a valid email".
func ValidationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "password":
			msgs = append(msgs, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func RegisterCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("password", ValidatePasswordRule)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func ValidatePasswordRule(fl validator.FieldLevel) bool {
	return ValidatePassword(fl.Field().String())
}

// ValidatePassword requires at least MinPasswordLength characters, no
// surrounding whitespace and at least one non-space character.
func ValidatePassword(password string) bool {
	if len([]rune(password)) < MinPasswordLength {
		return false
	}
	if strings.TrimSpace(password) != password {
		return false
	}
	for _, char := range password {
		if !unicode.IsSpace(char) {
			return true
		}
	}
	return false
}
