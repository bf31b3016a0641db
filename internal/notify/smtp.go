package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// MailConfig holds the outbound SMTP settings.
type MailConfig struct {
	Host     string
	Port     int
	SSL      bool
	AuthType string
	Username string
	Password string
	From     string
}

// Validate reports missing required settings.
func (m MailConfig) Validate() error {
	if m.Host == "" {
		return errors.New("host is required")
	}
	if m.From == "" {
		return errors.New("from address is required")
	}
	return nil
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends reset PINs by email.
type SMTPNotifier struct {
	client  sender
	from    string
	appName string
}

// NewSMTPNotifier builds a go-mail client from cfg.
func NewSMTPNotifier(cfg MailConfig, appName string) (*SMTPNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mail config: %w", err)
	}

	var options []mail.Option
	if cfg.SSL {
		options = append(options, mail.WithSSLPort(true))
	}
	if cfg.Port != 0 {
		options = append(options, mail.WithPort(cfg.Port))
	}
	if cfg.AuthType != "" {
		options = append(options, mail.WithSMTPAuth(mail.SMTPAuthType(strings.ToUpper(cfg.AuthType))))
	}
	if cfg.Username != "" {
		options = append(options, mail.WithUsername(cfg.Username))
	}
	if cfg.Password != "" {
		options = append(options, mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}

	return &SMTPNotifier{client: client, from: cfg.From, appName: appName}, nil
}

// SendResetPin mails pin to the given address.
func (n *SMTPNotifier) SendResetPin(ctx context.Context, email, pin string) error {
	msg, err := n.compose(email, pin)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) compose(email, pin string) (*mail.Msg, error) {
	subject, body, err := renderReset(resetVars{AppName: n.appName, Email: email, Pin: pin})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}
