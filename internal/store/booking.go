package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingsDDL = `
CREATE TABLE IF NOT EXISTS bookings (
	id         BIGSERIAL PRIMARY KEY,
	reference  UUID NOT NULL UNIQUE,
	email      TEXT NOT NULL,
	community  TEXT NOT NULL,
	amenity    TEXT NOT NULL,
	slot       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bookings_email_idx ON bookings (email);
`

// BookingStore persists bookings in Postgres.
type BookingStore struct {
	db *pgxpool.Pool
}

func NewBookingStore(db *pgxpool.Pool) *BookingStore {
	return &BookingStore{db: db}
}

// EnsureSchema creates the bookings table if it does not exist.
func (s *BookingStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, bookingsDDL)
	return err
}

// Create is idempotent on reference: a repeated insert keeps the stored row
// and only takes the new email, so a retry can correct the address.
func (s *BookingStore) Create(ctx context.Context, b *domain.Booking) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO bookings (reference, email, community, amenity, slot)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (reference) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, email, community, amenity, slot, created_at`,
		b.Reference, b.Email, b.Community, b.Amenity, b.Slot,
	).Scan(&b.ID, &b.Email, &b.Community, &b.Amenity, &b.Slot, &b.CreatedAt)
}

func (s *BookingStore) GetByReference(ctx context.Context, ref uuid.UUID) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := s.db.QueryRow(ctx,
		`SELECT id, reference, email, community, amenity, slot, created_at
		 FROM bookings WHERE reference = $1`,
		ref,
	).Scan(&b.ID, &b.Reference, &b.Email, &b.Community, &b.Amenity, &b.Slot, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BookingStore) ListByEmail(ctx context.Context, email string, limit int) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, reference, email, community, amenity, slot, created_at
		 FROM bookings WHERE email = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		email, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.Email, &b.Community, &b.Amenity, &b.Slot, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *BookingStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
