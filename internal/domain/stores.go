package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore owns conversation state. Access to a single session is
// serialized: Acquire blocks until the caller holds that session's lock and
// the returned release func gives it back. Save and Remove must only be
// called while holding the lock.
type SessionStore interface {
	// Acquire returns the session for id, creating it at StageGreet if absent.
	Acquire(ctx context.Context, id string) (*Session, func(), error)
	Save(ctx context.Context, s *Session) error
	Remove(ctx context.Context, id string) error
	// Get returns a snapshot of the session without creating it.
	Get(ctx context.Context, id string) (*Session, error)
	// DeleteIdle drops sessions not updated since cutoff.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

type BookingStore interface {
	// Create inserts b, or loads the existing row when b.Reference was
	// already stored. ID and CreatedAt are set on return.
	Create(ctx context.Context, b *Booking) error
	GetByReference(ctx context.Context, ref uuid.UUID) (*Booking, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]Booking, error)
	Ping(ctx context.Context) error
}

// Notifier delivers the booking confirmation to the customer.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *Booking) error
}

// BookingSink persists a completed booking and notifies the customer.
type BookingSink interface {
	Confirm(ctx context.Context, req BookingRequest) (*Booking, error)
}
