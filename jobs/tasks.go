// Package jobs wires background email delivery through Asynq.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/anempire/anempire-web/internal/mailer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// NewSendEmailTask constructs an Asynq task from a rendered email.
func NewSendEmailTask(email mailer.Email) (*asynq.Task, error) {
	data, err := json.Marshal(email)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler returns the processor for TaskTypeSendEmail tasks.
// Delivery failures are recorded in the email log by the mailer and are not
// retried.
func NewSendEmailHandler(svc *mailer.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var email mailer.Email
		if err := json.Unmarshal(t.Payload(), &email); err != nil {
			return asynq.SkipRetry
		}
		svc.Deliver(ctx, email)
		return nil
	}
}
