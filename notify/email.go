package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/config"
	"streeteasy-monitor/models"
	"streeteasy-monitor/utils"
)

const defaultSMTPTimeout = 30 * time.Second

// sendFunc delivers msg to the configured mail server.
type sendFunc func(ctx context.Context, cfg config.SMTPConfig, msg *mail.Msg) error

// EmailNotifier sends one plain-text email per batch over SMTP with
// STARTTLS and PLAIN auth.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	logger *utils.Logger
	send   sendFunc
	now    func() time.Time
}

func NewEmailNotifier(cfg config.SMTPConfig, logger *utils.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
		send:   sendSMTP,
		now:    time.Now,
	}
}

// Notify reports true only when the server accepted the message.
func (n *EmailNotifier) Notify(ctx context.Context, listings []*models.Listing) bool {
	if len(listings) == 0 {
		return true
	}
	if err := n.validate(); err != nil {
		n.logger.Error("[notify] Error sending email: %v", err)
		return false
	}

	msg, err := n.message(Subject(listings), Body(listings))
	if err != nil {
		n.logger.Error("[notify] Error building email: %v", err)
		return false
	}
	if err := n.send(ctx, n.cfg, msg); err != nil {
		n.logger.Error("[notify] Error sending email: %v", apperrors.Notification("smtp delivery", err))
		return false
	}

	n.logger.Info("[notify] Email sent successfully to %s", n.cfg.Recipient)
	return true
}

func (n *EmailNotifier) validate() error {
	switch {
	case n.cfg.Server == "":
		return apperrors.Notification("SMTP_SERVER is not set", nil)
	case n.cfg.Username == "":
		return apperrors.Notification("SMTP_USERNAME is not set", nil)
	case n.cfg.Recipient == "":
		return apperrors.Notification("EMAIL_RECIPIENT is not set", nil)
	}
	return nil
}

func (n *EmailNotifier) message(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.Username); err != nil {
		return nil, apperrors.Notification("invalid sender address", err)
	}
	if err := msg.To(n.cfg.Recipient); err != nil {
		return nil, apperrors.Notification("invalid recipient address", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(n.now())
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Subject names the single listing, or counts the batch.
func Subject(listings []*models.Listing) string {
	if len(listings) == 1 {
		l := listings[0]
		return fmt.Sprintf("New Listing: %s - $%d", oneLine(l.Address), l.Price)
	}
	return fmt.Sprintf("%d New Listings", len(listings))
}

// Body renders the plain-text email body for listings.
func Body(listings []*models.Listing) string {
	var b strings.Builder
	if len(listings) == 1 {
		b.WriteString("New rental listing found!\n")
	} else {
		b.WriteString(strconv.Itoa(len(listings)) + " new rental listings found!\n")
	}

	for _, l := range listings {
		b.WriteString("\n")
		b.WriteString("Address: " + oneLine(l.Address) + "\n")
		b.WriteString("Price: $" + strconv.Itoa(l.Price) + "\n")
		b.WriteString("Neighborhood: " + oneLine(l.Neighborhood) + "\n")
		b.WriteString("Listed by: " + oneLine(l.ListedBy) + "\n")
		b.WriteString("Listing URL: " + oneLine(l.URL) + "\n")
	}

	b.WriteString("\n---\nStreetEasy Monitor\n")
	return b.String()
}

// oneLine collapses runs of whitespace, including newlines and
// non-breaking spaces, into single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sendSMTP(ctx context.Context, cfg config.SMTPConfig, msg *mail.Msg) error {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	client, err := mail.NewClient(cfg.Server,
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
