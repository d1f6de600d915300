// Package notify delivers user-facing emails over SMTP. Callers treat
// delivery as best-effort.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inbucket/html2text"
	mail "github.com/wneessen/go-mail"

	"room-reservation/internal/config"
	"room-reservation/internal/storage"
)

type Mailer struct {
	cfg    config.EmailConfig
	logger *slog.Logger
}

// NewMailer returns nil when SMTP is not configured; a nil Mailer simply
// disables notices.
func NewMailer(cfg config.EmailConfig) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &Mailer{
		cfg:    cfg,
		logger: slog.With("component", "notify"),
	}
}

func (m *Mailer) send(ctx context.Context, to, subject, htmlBody string) error {
	text, err := html2text.FromString(htmlBody, html2text.Options{PrettyTables: false})
	if err != nil {
		return fmt.Errorf("convert HTML to text: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Debug("Notice sent", "to", to, "subject", subject)
	return nil
}

// ReservationAutocancelled emails the owner that their unused booking was
// released.
func (m *Mailer) ReservationAutocancelled(ctx context.Context, user *storage.User, room *storage.Room, r storage.Reservation) error {
	subject := fmt.Sprintf("Your reservation of %s was cancelled", room.Name)
	htmlBody := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Your reservation of room <b>%s</b> from %s to %s was cancelled automatically
because no activity was detected in the room after it started.</p>
<p>If you still need the room, please book it again.</p>`,
		user.FullName, room.Name,
		r.Start.Format(time.RFC1123), r.End.Format(time.RFC1123))

	return m.send(ctx, user.Email, subject, htmlBody)
}
