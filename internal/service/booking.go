package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSinkTimeout = 10 * time.Second
	// DefaultRetryDelay is the pause between sink attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

var (
	ErrIncompleteBooking = errors.New("booking request is missing fields")
	ErrBookingNotFound   = errors.New("booking not found")
)

// BookingService is the booking sink: it stores the booking, then emails the
// confirmation. Each step gets a per-attempt timeout and a bounded number of
// retries.
type BookingService struct {
	store    domain.BookingStore
	notifier domain.Notifier
	logger   *zap.Logger

	timeout    time.Duration
	retries    int
	retryDelay time.Duration
}

func NewBookingService(bs domain.BookingStore, n domain.Notifier, logger *zap.Logger) *BookingService {
	return &BookingService{
		store:      bs,
		notifier:   n,
		logger:     logger,
		timeout:    defaultSinkTimeout,
		retries:    1,
		retryDelay: DefaultRetryDelay,
	}
}

// ConfirmBudget is the longest one Confirm can run under a retry policy:
// persist and notify each get retries+1 attempts with a delay in between.
func ConfirmBudget(timeout time.Duration, retries int, delay time.Duration) time.Duration {
	if retries < 0 {
		retries = 0
	}
	perStep := time.Duration(retries+1)*timeout + time.Duration(retries)*delay
	return 2 * perStep
}

// SetRetryPolicy overrides the per-attempt timeout and the number of retries
// after a failed attempt.
func (s *BookingService) SetRetryPolicy(timeout time.Duration, retries int) {
	if timeout > 0 {
		s.timeout = timeout
	}
	if retries >= 0 {
		s.retries = retries
	}
}

func (s *BookingService) SetRetryDelay(d time.Duration) {
	s.retryDelay = d
}

// Confirm persists req and notifies the customer. Persisting is idempotent on
// req.Reference, so calling Confirm again after a failure does not duplicate
// the booking.
func (s *BookingService) Confirm(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	if !req.Complete() {
		return nil, ErrIncompleteBooking
	}

	b := &domain.Booking{
		Reference: req.Reference,
		Email:     req.Email,
		Community: req.Community,
		Amenity:   req.Amenity,
		Slot:      req.Slot,
	}

	if err := s.attempt(ctx, "persist", b.Reference, func(ctx context.Context) error {
		return s.store.Create(ctx, b)
	}); err != nil {
		return nil, fmt.Errorf("%w: persist: %v", ErrBookingFailed, err)
	}

	if err := s.attempt(ctx, "notify", b.Reference, func(ctx context.Context) error {
		return s.notifier.SendBookingConfirmation(ctx, b)
	}); err != nil {
		return nil, fmt.Errorf("%w: notify: %v", ErrBookingFailed, err)
	}

	return b, nil
}

func (s *BookingService) GetByReference(ctx context.Context, ref uuid.UUID) (*domain.Booking, error) {
	b, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListByEmail returns up to limit bookings for email, newest first.
func (s *BookingService) ListByEmail(ctx context.Context, email string, limit int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByEmail(ctx, email, limit)
}

func (s *BookingService) attempt(ctx context.Context, step string, ref uuid.UUID, fn func(context.Context) error) error {
	var err error
	for i := 0; i <= s.retries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(s.retryDelay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}

		s.logger.Warn("booking step failed",
			zap.String("step", step),
			zap.String("reference", ref.String()),
			zap.Int("attempt", i+1),
			zap.Error(err))
	}
	return err
}
