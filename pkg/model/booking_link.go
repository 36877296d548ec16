package model

import "time"

// BookingLink is a shareable, token-bearing record that lets a partner or
// client create a booking without staff involvement. Single-use links are
// consumed atomically inside the reservation transaction.
type BookingLink struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty"`
	Token               string    `json:"token" bson:"token"`
	PartnerID           string    `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	Active              bool      `json:"active" bson:"active"`
	SingleUse           bool      `json:"single_use" bson:"single_use"`
	Used                bool      `json:"used" bson:"used"`
	Visits              int       `json:"visits" bson:"visits"`
	ReservationsCreated int       `json:"reservations_created" bson:"reservations_created"`
	CreatedBy           string    `json:"created_by" bson:"created_by"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
}
