package notify

import (
	"context"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"go.uber.org/zap"
)

// LogNotifier writes the confirmation to the log instead of sending mail.
// Used when SMTP is not configured and by the local CLI.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, b *domain.Booking) error {
	n.logger.Info("booking confirmation (not emailed)",
		zap.String("reference", b.Reference.String()),
		zap.String("email", b.Email),
		zap.String("subject", Subject(b)),
		zap.String("community", b.Community),
		zap.String("amenity", b.Amenity),
		zap.String("slot", b.Slot))
	return nil
}
