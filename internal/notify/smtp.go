package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig configures the email notifier. Port 465 uses implicit TLS
// (the Gmail app-password setup); other ports negotiate STARTTLS.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier sends reports as email attachments over SMTP.
type SMTPNotifier struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	return &SMTPNotifier{cfg: cfg, dialer: d}
}

func (n *SMTPNotifier) Configured() bool {
	return n.cfg.Host != "" && n.cfg.Username != "" && n.cfg.Password != ""
}

// Send delivers the message, bounded by the configured timeout and the
// caller's context so a hung SMTP server cannot wedge a worker.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if !n.Configured() {
		return errors.New("smtp notifier not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", msg.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if len(msg.Attachment) > 0 {
		m.Attach(msg.AttachmentName,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(msg.Attachment))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {msg.ContentType}}),
		)
	}

	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(m) }()

	timer := time.NewTimer(n.cfg.Timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("smtp send timed out")
	}
}
