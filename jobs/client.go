package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/anempire/anempire-web/internal/mailer"
)

// Client submits email jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueEmail queues one rendered email for background delivery.
func (c *Client) EnqueueEmail(ctx context.Context, email mailer.Email) error {
	task, err := NewSendEmailTask(email)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// SendPasswordReset renders and queues a reset (or set-password) link.
// Satisfies the auth module's ResetMailer collaborator.
func (c *Client) SendPasswordReset(ctx context.Context, email, link string, newAccount bool) error {
	subject, body := mailer.PasswordResetEmail(link, newAccount)
	return c.EnqueueEmail(ctx, mailer.Email{
		To:      email,
		Subject: subject,
		HTML:    body,
		Type:    mailer.TypePasswordReset,
	})
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
