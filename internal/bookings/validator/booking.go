package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"marea/pkg/logger"
	"marea/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	start := model.Midnight(req.StartDate)
	end := model.Midnight(req.EndDate)

	// Same-day rentals are one calendar day, so equality is allowed.
	if end.Before(start) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date must not be before start_date",
			},
		}
	}

	if start.Before(model.Midnight(time.Now())) {
		return ValidationErrors{
			ValidationError{
				Field:   "StartDate",
				Message: "start_date cannot be in the past",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidatePayment(req *model.PaymentRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateSignature(req *model.SignatureRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateRefund(req *model.RefundRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateLink(req *model.LinkRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
