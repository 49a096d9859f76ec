// Package mailer delivers transactional email through the Resend API and
// records every attempt in the email log.
package mailer

import (
	"time"

	"github.com/google/uuid"
)

// EmailType categorizes outbound email for the admin log.
type EmailType string

const (
	TypeAdminNotification EmailType = "admin_notification"
	TypeSaveReminder      EmailType = "save_reminder"
	TypePasswordReset     EmailType = "password_reset"
	TypeManual            EmailType = "manual"
)

// Email is a fully rendered outbound message.
type Email struct {
	To      string     `json:"to"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html"`
	Type    EmailType  `json:"type"`
	SentBy  *uuid.UUID `json:"sent_by,omitempty"`
}

// EmailLog records one delivery attempt, success or failure.
type EmailLog struct {
	ID               uuid.UUID
	ToEmail          string
	FromEmail        string
	Subject          string
	Body             string
	Type             EmailType
	SentSuccessfully bool
	ErrorMessage     string
	SentBy           *uuid.UUID
	CreatedAt        time.Time
}
