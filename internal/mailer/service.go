package mailer

import (
	"context"
	"log/slog"
)

// Sender submits a rendered message for delivery.
type Sender interface {
	Send(ctx context.Context, from, to, subject, html string) error
}

// Service delivers email and records every attempt. A failed send is logged,
// not retried; a failed log write is logged and swallowed so it can never
// block the caller.
type Service struct {
	sender Sender
	logs   LogRepository
	logger *slog.Logger
	from   string
}

// NewService constructs a Service.
func NewService(sender Sender, logs LogRepository, logger *slog.Logger, from string) *Service {
	return &Service{sender: sender, logs: logs, logger: logger, from: from}
}

// Deliver sends the email and appends an email_logs row reflecting the
// outcome.
func (s *Service) Deliver(ctx context.Context, email Email) {
	sendErr := s.sender.Send(ctx, s.from, email.To, email.Subject, email.HTML)

	log := &EmailLog{
		ToEmail:          email.To,
		FromEmail:        s.from,
		Subject:          email.Subject,
		Body:             email.HTML,
		Type:             email.Type,
		SentSuccessfully: sendErr == nil,
		SentBy:           email.SentBy,
	}
	if sendErr != nil {
		log.ErrorMessage = sendErr.Error()
		s.logger.Warn("email send failed", slog.String("to", email.To), slog.Any("error", sendErr))
	}
	if err := s.logs.InsertLog(ctx, log); err != nil {
		s.logger.Warn("email log write failed", slog.Any("error", err))
	}
}

// RecentLogs lists the latest delivery attempts for the admin screen.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]EmailLog, error) {
	return s.logs.ListLogs(ctx, limit)
}
