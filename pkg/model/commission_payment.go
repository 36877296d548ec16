package model

import "time"

// CommissionPayment records one partner payout and how it was distributed
// across bookings' pending commission.
type CommissionPayment struct {
	ID          string                 `json:"id,omitempty" bson:"_id,omitempty"`
	PartnerID   string                 `json:"partner_id" bson:"partner_id"`
	Amount      float64                `json:"amount" bson:"amount"`
	Method      string                 `json:"method" bson:"method"`
	Reference   string                 `json:"reference,omitempty" bson:"reference,omitempty"`
	BookingIDs  []string               `json:"booking_ids" bson:"booking_ids"`
	Allocations []CommissionAllocation `json:"allocations" bson:"allocations"`
	Unallocated float64                `json:"unallocated,omitempty" bson:"unallocated,omitempty"`
	CreatedBy   string                 `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
}

// CommissionAllocation is the slice of a payment applied to one booking.
type CommissionAllocation struct {
	BookingID string  `json:"booking_id" bson:"booking_id"`
	Amount    float64 `json:"amount" bson:"amount"`
}

// CommissionPaymentRequest records a partner payout to distribute across the
// listed bookings, first-listed first.
type CommissionPaymentRequest struct {
	PartnerID  string   `json:"partner_id" validate:"required"`
	Amount     float64  `json:"amount" validate:"required,gt=0"`
	Method     string   `json:"method" validate:"required,oneof=cash card transfer stripe"`
	Reference  string   `json:"reference" validate:"omitempty,max=200"`
	BookingIDs []string `json:"booking_ids" validate:"required,min=1,dive,required"`
}
