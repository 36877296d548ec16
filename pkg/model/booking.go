package model

import (
	"time"
)

// Booking statuses. Values match the operator-facing vocabulary used across
// the rental desk (Spanish), so they appear verbatim in exports and the UI.
const (
	StatusPending   = "pendiente"
	StatusConfirmed = "confirmada"
	StatusCompleted = "completada"
	StatusCancelled = "cancelada"
	StatusExpired   = "expirada"
)

// Rental types for a booking line item.
const (
	RentalTypeDay  = "day"
	RentalTypeHour = "hour"
)

// Booking channels (where the reservation originated).
const (
	ChannelStaff      = "staff"
	ChannelPublicLink = "public_link"
)

type BookingItem struct {
	ProductID     string  `json:"product_id" bson:"product_id" validate:"required"`
	ProductName   string  `json:"product_name" bson:"product_name"`
	Quantity      int     `json:"quantity" bson:"quantity" validate:"required,min=1,max=50"`
	RentalType    string  `json:"rental_type" bson:"rental_type" validate:"required,oneof=day hour"`
	Duration      int     `json:"duration" bson:"duration" validate:"required,min=1"`
	UnitPrice     float64 `json:"unit_price" bson:"unit_price"`
	CommissionPct float64 `json:"commission_pct" bson:"commission_pct"`
}

type Booking struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	ClientName  string `json:"client_name" bson:"client_name"`
	ClientPhone string `json:"client_phone" bson:"client_phone"`
	ClientEmail string `json:"client_email,omitempty" bson:"client_email,omitempty"`

	StartDate time.Time     `json:"start_date" bson:"start_date"`
	EndDate   time.Time     `json:"end_date" bson:"end_date"`
	Items     []BookingItem `json:"items" bson:"items"`

	TotalPrice float64 `json:"total_price" bson:"total_price"`
	Status     string  `json:"status" bson:"status"`

	Channel   string `json:"channel" bson:"channel"`
	CreatedBy string `json:"created_by" bson:"created_by"`
	PartnerID string `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	LinkToken string `json:"link_token,omitempty" bson:"link_token,omitempty"`

	// AccessToken grants read access to the public contract page for this
	// booking and allows a one-time signature submission.
	AccessToken string `json:"access_token,omitempty" bson:"access_token"`

	// HoldExpiresAt is nil when staff bypassed the payment requirement; such
	// bookings are confirmed immediately and never expire automatically.
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty" bson:"hold_expires_at,omitempty"`
	Expired       bool       `json:"expired" bson:"expired"`

	// StockReleased guards stock return: it transitions false->true exactly
	// once, and every release path short-circuits when it is already set.
	StockReleased   bool       `json:"stock_released" bson:"stock_released"`
	StockReleasedAt *time.Time `json:"stock_released_at,omitempty" bson:"stock_released_at,omitempty"`
	StockReleasedBy string     `json:"stock_released_by,omitempty" bson:"stock_released_by,omitempty"`

	Paid             bool       `json:"paid" bson:"paid"`
	PaymentMethod    string     `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentReference string     `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`

	Signed        bool       `json:"signed" bson:"signed"`
	SignatureData string     `json:"-" bson:"signature_data,omitempty"`
	TermsAccepted bool       `json:"terms_accepted" bson:"terms_accepted"`
	SignedAt      *time.Time `json:"signed_at,omitempty" bson:"signed_at,omitempty"`

	Refunded        bool       `json:"refunded" bson:"refunded"`
	RefundAmount    float64    `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	RefundMethod    string     `json:"refund_method,omitempty" bson:"refund_method,omitempty"`
	RefundReference string     `json:"refund_reference,omitempty" bson:"refund_reference,omitempty"`
	RefundReason    string     `json:"refund_reason,omitempty" bson:"refund_reason,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`

	CommissionTotal float64 `json:"commission_total" bson:"commission_total"`
	CommissionPaid  float64 `json:"commission_paid" bson:"commission_paid"`

	CancelReason string    `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Days returns the inclusive list of calendar days the booking occupies,
// normalized to midnight UTC.
func (b *Booking) Days() []time.Time {
	return DaysBetween(b.StartDate, b.EndDate)
}

// RentalDays is the inclusive day count of the booking's date range.
func (b *Booking) RentalDays() int {
	return len(b.Days())
}

// DaysBetween expands an inclusive date range into its calendar days.
func DaysBetween(start, end time.Time) []time.Time {
	first := Midnight(start)
	last := Midnight(end)

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Midnight normalizes any timestamp to its calendar day at 00:00 UTC. All
// stock ledger keys and booking date ranges use this normal form, so inputs
// arriving as local times or with time-of-day components cannot split one
// rental day across two cells.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BookingRequest is the input to the reservation transaction. Channel-specific
// adapters (staff panel, public link) fill in attribution and leave the rest
// to the service.
type BookingRequest struct {
	ClientName  string    `json:"client_name" validate:"required,min=2,max=100"`
	ClientPhone string    `json:"client_phone" validate:"required"`
	ClientEmail string    `json:"client_email" validate:"omitempty,email"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`

	Items []BookingItemRequest `json:"items" validate:"required,min=1,max=20,dive"`

	Channel   string `json:"-"`
	CreatedBy string `json:"-"`
	PartnerID string `json:"partner_id,omitempty"`
	LinkToken string `json:"-"`

	// BypassPayment is a staff-only switch: the booking is confirmed
	// immediately and gets no hold expiry.
	BypassPayment bool `json:"bypass_payment,omitempty"`
}

type BookingItemRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=50"`
	RentalType string `json:"rental_type" validate:"required,oneof=day hour"`
	Duration   int    `json:"duration" validate:"required,min=1"`
}

// PaymentRequest marks a booking as paid out-of-band (staff action).
type PaymentRequest struct {
	Method    string `json:"method" validate:"required,oneof=cash card transfer stripe"`
	Reference string `json:"reference" validate:"omitempty,max=200"`
}

// SignatureRequest is the one-time contract signature submitted with a
// booking access token. TermsAccepted must be true.
type SignatureRequest struct {
	SignatureData string `json:"signature_data" validate:"required"`
	TermsAccepted bool   `json:"terms_accepted" validate:"required"`
}

// RefundRequest records a refund; Stripe-paid bookings also hit the gateway.
type RefundRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card transfer stripe"`
	Reason string  `json:"reason" validate:"omitempty,max=500"`
}

// LinkRequest creates a shareable booking link.
type LinkRequest struct {
	PartnerID string `json:"partner_id" validate:"omitempty,max=100"`
	SingleUse bool   `json:"single_use"`
}
