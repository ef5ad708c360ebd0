package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingRequest is the complete field set handed to the BookingSink.
type BookingRequest struct {
	Reference uuid.UUID
	Email     string
	Community string
	Amenity   string
	Slot      string
}

// Complete reports whether every field is filled.
func (r BookingRequest) Complete() bool {
	return r.Reference != uuid.Nil && r.Email != "" && r.Community != "" && r.Amenity != "" && r.Slot != ""
}

type Booking struct {
	ID        int64     `json:"id"`
	Reference uuid.UUID `json:"reference"`
	Email     string    `json:"email"`
	Community string    `json:"community"`
	Amenity   string    `json:"amenity"`
	Slot      string    `json:"slot"`
	CreatedAt time.Time `json:"created_at"`
}
