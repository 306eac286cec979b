package email

import (
	"context"
	"log/slog"
)

// LogSender implements EmailSender for local development: messages are
// logged instead of delivered.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a development email sender that logs messages.
// A nil logger falls back to slog.Default().
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

// SendEmail validates the parameters and logs the message.
func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "email not sent (development mode)",
		"send_to", params.SendTo,
		"subject", params.Subject,
		"tag", params.Tag,
	)
	return nil
}
