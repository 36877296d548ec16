package model

import (
	"fmt"
	"time"
)

// DayFormat is the calendar-day key format used in stock cell IDs.
const DayFormat = "2006-01-02"

// StockCell tracks inventory for one (calendar day, product) pair. Cells are
// created lazily on first write and never deleted.
type StockCell struct {
	// ID is the composite key "{date}_{productId}".
	ID        string    `json:"id" bson:"_id"`
	Date      string    `json:"date" bson:"date"`
	ProductID string    `json:"product_id" bson:"product_id"`
	Available int       `json:"available" bson:"available"`
	Reserved  int       `json:"reserved" bson:"reserved"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// FreeUnits can go negative only through manual capacity edits; the
// reservation transaction never commits past zero.
func (c *StockCell) FreeUnits() int {
	return c.Available - c.Reserved
}

// StockCellID builds the composite document key for a day/product pair.
func StockCellID(day time.Time, productID string) string {
	return fmt.Sprintf("%s_%s", Midnight(day).Format(DayFormat), productID)
}

// StockUpdateRequest sets the capacity of a single cell.
type StockUpdateRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	ProductID string `json:"product_id" validate:"required"`
	Available int    `json:"available" validate:"min=0"`
}

// ProvisionRequest seeds capacity across an inclusive date range for a set of
// products. The cell count (days x products) is capped by configuration.
type ProvisionRequest struct {
	StartDate  string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
	Available  int      `json:"available" validate:"min=0"`
}

// ProvisionResult reports how far a bulk provisioning run got. Attempted and
// Succeeded differ only when the run aborted partway through.
type ProvisionResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}
