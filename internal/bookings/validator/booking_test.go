package validator

import (
	"testing"
	"time"

	"marea/pkg/logger"
	"marea/pkg/model"
)

func newValidator() *BookingValidator {
	return NewBookingValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON}))
}

func baseRequest() *model.BookingRequest {
	start := model.Midnight(time.Now()).AddDate(0, 0, 7)
	return &model.BookingRequest{
		ClientName:  "Laura Sanz",
		ClientPhone: "+34600111222",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 1),
		Items: []model.BookingItemRequest{
			{ProductID: "p1", Quantity: 1, RentalType: model.RentalTypeDay, Duration: 2},
		},
	}
}

func TestValidate(t *testing.T) {
	v := newValidator()

	t.Run("accepts a well-formed request", func(t *testing.T) {
		if err := v.Validate(baseRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("accepts same-day rentals", func(t *testing.T) {
		req := baseRequest()
		req.EndDate = req.StartDate
		if err := v.Validate(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects an end date before the start", func(t *testing.T) {
		req := baseRequest()
		req.EndDate = req.StartDate.AddDate(0, 0, -1)
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects past start dates", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = model.Midnight(time.Now()).AddDate(0, 0, -1)
		req.EndDate = req.StartDate
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("same-day start with a time component is not past", func(t *testing.T) {
		req := baseRequest()
		req.StartDate = time.Now().UTC()
		req.EndDate = req.StartDate
		if err := v.Validate(req); err != nil {
			t.Fatalf("today must be bookable: %v", err)
		}
	})

	t.Run("rejects empty items", func(t *testing.T) {
		req := baseRequest()
		req.Items = nil
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects unknown rental types", func(t *testing.T) {
		req := baseRequest()
		req.Items[0].RentalType = "week"
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects quantities above the cap", func(t *testing.T) {
		req := baseRequest()
		req.Items[0].Quantity = 51
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects malformed emails", func(t *testing.T) {
		req := baseRequest()
		req.ClientEmail = "not-an-email"
		if err := v.Validate(req); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestValidateSignature(t *testing.T) {
	v := newValidator()

	if err := v.ValidateSignature(&model.SignatureRequest{SignatureData: "data", TermsAccepted: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateSignature(&model.SignatureRequest{SignatureData: "data"}); err == nil {
		t.Fatal("terms must be accepted")
	}
	if err := v.ValidateSignature(&model.SignatureRequest{TermsAccepted: true}); err == nil {
		t.Fatal("signature data is required")
	}
}

func TestValidateRefund(t *testing.T) {
	v := newValidator()

	if err := v.ValidateRefund(&model.RefundRequest{Amount: 50, Method: "cash"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateRefund(&model.RefundRequest{Amount: 0, Method: "cash"}); err == nil {
		t.Fatal("zero refunds must be rejected")
	}
	if err := v.ValidateRefund(&model.RefundRequest{Amount: 50, Method: "crypto"}); err == nil {
		t.Fatal("unknown methods must be rejected")
	}
}
