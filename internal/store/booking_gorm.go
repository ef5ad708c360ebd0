package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// bookingRecord is the GORM row for the bookings table.
type bookingRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Reference string `gorm:"size:36;not null;uniqueIndex"`
	Email     string `gorm:"not null;index"`
	Community string `gorm:"not null"`
	Amenity   string `gorm:"not null"`
	Slot      string `gorm:"not null"`
	CreatedAt time.Time
}

func (bookingRecord) TableName() string { return "bookings" }

func (r bookingRecord) toDomain() (domain.Booking, error) {
	ref, err := uuid.Parse(r.Reference)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("store: booking %d has invalid reference: %w", r.ID, err)
	}
	return domain.Booking{
		ID:        r.ID,
		Reference: ref,
		Email:     r.Email,
		Community: r.Community,
		Amenity:   r.Amenity,
		Slot:      r.Slot,
		CreatedAt: r.CreatedAt,
	}, nil
}

// GormBookingStore persists bookings through GORM (SQLite or MySQL).
type GormBookingStore struct {
	db *gorm.DB
}

func NewGormBookingStore(db *gorm.DB) *GormBookingStore {
	return &GormBookingStore{db: db}
}

// EnsureSchema auto-migrates the bookings table.
func (s *GormBookingStore) EnsureSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&bookingRecord{})
}

// Create is idempotent on reference: a repeated insert keeps the stored row
// and only takes the new email, so a retry can correct the address.
func (s *GormBookingStore) Create(ctx context.Context, b *domain.Booking) error {
	rec := bookingRecord{
		Reference: b.Reference.String(),
		Email:     b.Email,
		Community: b.Community,
		Amenity:   b.Amenity,
		Slot:      b.Slot,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"email"}),
		}).
		Create(&rec).Error
	if err != nil {
		return err
	}

	// The generated id is unreliable after an update, so read the row back.
	var stored bookingRecord
	if err := s.db.WithContext(ctx).Where("reference = ?", rec.Reference).First(&stored).Error; err != nil {
		return err
	}
	booking, err := stored.toDomain()
	if err != nil {
		return err
	}
	*b = booking
	return nil
}

func (s *GormBookingStore) GetByReference(ctx context.Context, ref uuid.UUID) (*domain.Booking, error) {
	var rec bookingRecord
	err := s.db.WithContext(ctx).Where("reference = ?", ref.String()).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *GormBookingStore) ListByEmail(ctx context.Context, email string, limit int) ([]domain.Booking, error) {
	var recs []bookingRecord
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(recs))
	for _, rec := range recs {
		b, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (s *GormBookingStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
