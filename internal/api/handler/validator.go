package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medora/hospital-system/internal/core/domain"
)

var (
	personNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z\s\.'-]{0,49}$`)
	phoneRe      = regexp.MustCompile(`^[0-9\-\+\(\)\s]{7,20}$`)
)

const dobLayout = "2006-01-02"

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator with the custom tags used by request
// structs: personname, phone, slot, dob and objectid.
func NewValidator() *echoValidator {
	v := validator.New()
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(domain.SlotLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		t, err := time.Parse(dobLayout, fl.Field().String())
		return err == nil && !t.After(time.Now())
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures come back as
// domain input errors so the central error handler answers 400.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return domain.InvalidInput(strings.Join(msgs, "; "))
		}
		return domain.InvalidInput("Invalid input")
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "personname":
		return field + " must be 1-50 letters, spaces, periods, apostrophes or hyphens"
	case "phone":
		return field + " must be 7-20 digits, spaces, +, -, ( or )"
	case "slot":
		return field + " must be formatted as YYYY-MM-DD HH:MM"
	case "dob":
		return field + " must be a past date formatted as YYYY-MM-DD"
	case "objectid":
		return field + " must be a valid id"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
