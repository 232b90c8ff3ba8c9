package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrVehicleConflict = errors.New("vehicle is already booked for an overlapping window")

	ErrSlotLocked = errors.New("vehicle and date are being booked by another request")
)
