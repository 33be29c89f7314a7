package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mail "github.com/wneessen/go-mail"
)

// SMTPConfig carries the transport settings for the mail notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Sender   string
}

// SMTPNotifier sends notifications over one lazily-dialed SMTP connection.
// The connection is established on the first Send, reused for the rest of
// the session and closed at session end, never re-dialed per message.
type SMTPNotifier struct {
	cfg    SMTPConfig
	mu     sync.Mutex
	client *mail.Client
	dialed bool
}

func NewSMTP(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("smtp: sender is required")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

func (s *SMTPNotifier) Send(ctx context.Context, n Notification) error {
	if len(n.Recipients) == 0 {
		return fmt.Errorf("smtp: no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.Sender); err != nil {
		return fmt.Errorf("smtp: sender %q: %w", s.cfg.Sender, err)
	}
	if err := msg.To(n.Recipients...); err != nil {
		return fmt.Errorf("smtp: recipients: %w", err)
	}
	msg.Subject(n.Subject)

	if n.HTML {
		msg.SetBodyString(mail.TypeTextHTML, buildHTMLBody(n.Subject, n.Body, n.Link))
	} else {
		msg.SetBodyString(mail.TypeTextPlain, buildTextBody(n.Body, n.Link))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDialed(ctx); err != nil {
		return err
	}

	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("smtp: send to %v: %w", n.Recipients, err)
	}

	slog.Debug("notification sent", "recipients", n.Recipients, "subject", n.Subject)
	return nil
}

func (s *SMTPNotifier) ensureDialed(ctx context.Context) error {
	if s.dialed {
		return nil
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}
	if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp: client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp: dial %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}

	s.client = client
	s.dialed = true
	return nil
}

func (s *SMTPNotifier) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dialed {
		return nil
	}
	s.dialed = false
	return s.client.Close()
}
