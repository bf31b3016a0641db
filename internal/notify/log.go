package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes reset PINs to the log instead of mailing them.
// Intended for local development when no SMTP host is configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a LogNotifier writing to log.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// SendResetPin logs the PIN for email.
func (n *LogNotifier) SendResetPin(_ context.Context, email, pin string) error {
	n.log.Warn("reset pin issued (mail delivery disabled)",
		zap.String("email", email),
		zap.String("pin", pin),
	)
	return nil
}
