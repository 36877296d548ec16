package model

import "time"

// Product is a rentable unit type (SeaBob model). Prices are snapshotted onto
// booking items at reservation time.
type Product struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	PricePerDay  float64   `json:"price_per_day" bson:"price_per_day" validate:"min=0"`
	PricePerHour float64   `json:"price_per_hour" bson:"price_per_hour" validate:"min=0"`
	// CommissionPct is the partner commission percentage snapshotted onto
	// booking items at reservation time.
	CommissionPct float64   `json:"commission_pct" bson:"commission_pct" validate:"min=0,max=100"`
	Active        bool      `json:"active" bson:"active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
