package notify

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends the confirmation as an HTML email over STARTTLS.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

func NewSMTPNotifier(cfg SMTPConfig, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" || cfg.From == "" {
		return nil, fmt.Errorf("notify: smtp host, username, password and from address are required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("notify: invalid smtp port %d", cfg.Port)
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}, nil
}

func (n *SMTPNotifier) SendBookingConfirmation(ctx context.Context, b *domain.Booking) error {
	msg, err := n.buildMessage(b)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation to %s: %w", b.Email, err)
	}

	n.logger.Info("booking confirmation sent",
		zap.String("reference", b.Reference.String()),
		zap.String("email", b.Email))
	return nil
}

func (n *SMTPNotifier) buildMessage(b *domain.Booking) (*mail.Msg, error) {
	body, err := RenderHTML(b)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: from address: %w", err)
	}
	if err := msg.To(b.Email); err != nil {
		return nil, fmt.Errorf("notify: recipient %q: %w", b.Email, err)
	}
	msg.Subject(Subject(b))
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain, RenderText(b))
	return msg, nil
}
