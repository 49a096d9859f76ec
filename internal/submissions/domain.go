// Package submissions captures and reviews the site's lead forms.
package submissions

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a submission table.
type Kind string

const (
	KindQuestion     Kind = "question"
	KindConversation Kind = "conversation"
	KindSave         Kind = "save"
)

// Review carries the shared moderation fields.
type Review struct {
	Reviewed   bool
	ReviewedAt *time.Time
	ReviewedBy *uuid.UUID
	Notes      string
}

// Question is a free-form question from the ask page.
type Question struct {
	ID        uuid.UUID
	Question  string
	Name      string
	Email     string
	Phone     string
	Review
	CreatedAt time.Time
}

// Conversation is a qualified conversation request.
type Conversation struct {
	ID                uuid.UUID
	BusinessName      string
	Role              string
	RevenueModel      string
	RevenueRange      string
	TeamSize          string
	Limitation        string
	Responsibility    string
	Willingness       string
	AdditionalContext string
	Review
	CreatedAt time.Time
}

// SaveForLater is an email captured for a later reminder.
type SaveForLater struct {
	ID             uuid.UUID
	Email          string
	ReminderSent   bool
	ReminderSentAt *time.Time
	Review
	CreatedAt time.Time
}

// KindStats pairs totals with the unreviewed backlog.
type KindStats struct {
	Total      int `json:"total"`
	Unreviewed int `json:"unreviewed"`
}

// Stats feeds the admin dashboard.
type Stats struct {
	Questions     KindStats `json:"questions"`
	Conversations KindStats `json:"conversations"`
	SaveForLater  KindStats `json:"save_for_later"`
}
