package errors

import "errors"

var (
	ErrInvalidDateRange = errors.New("end date must not be before start date")

	ErrBatchTooLarge = errors.New("provisioning request exceeds the atomic batch ceiling")
)
