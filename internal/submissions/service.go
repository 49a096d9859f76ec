package submissions

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anempire/anempire-web/internal/mailer"
)

// EmailQueue hands rendered notifications to the background worker.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, email mailer.Email) error
}

// Service coordinates submission persistence and admin notifications.
type Service struct {
	repo        Repository
	queue       EmailQueue
	stats       *StatsCache
	logger      *slog.Logger
	notifyEmail string
}

// NewService builds Service instance.
func NewService(repo Repository, queue EmailQueue, stats *StatsCache, logger *slog.Logger, notifyEmail string) *Service {
	return &Service{repo: repo, queue: queue, stats: stats, logger: logger, notifyEmail: notifyEmail}
}

// QuestionInput is the ask form payload.
type QuestionInput struct {
	Question string `validate:"required,max=4000"`
	Name     string `validate:"max=200"`
	Email    string `validate:"omitempty,email"`
	Phone    string `validate:"max=50"`
}

// ConversationInput is the conversation request payload.
type ConversationInput struct {
	BusinessName      string `validate:"required,max=200"`
	Role              string `validate:"required,max=200"`
	RevenueModel      string `validate:"required,max=200"`
	RevenueRange      string `validate:"required,max=100"`
	TeamSize          string `validate:"required,max=100"`
	Limitation        string `validate:"required,max=4000"`
	Responsibility    string `validate:"required,max=4000"`
	Willingness       string `validate:"required,max=200"`
	AdditionalContext string `validate:"max=4000"`
}

// SaveInput is the save-for-later payload.
type SaveInput struct {
	Email string `validate:"required,email"`
}

// SubmitQuestion stores the question and notifies the admin inbox.
func (s *Service) SubmitQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	q := &Question{Question: in.Question, Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.repo.InsertQuestion(ctx, q); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)

	subject, body := mailer.QuestionAdminEmail(in.Question, in.Name, in.Email, in.Phone, q.CreatedAt)
	s.notify(ctx, subject, body)
	return q, nil
}

// SubmitConversation stores the request and notifies the admin inbox.
func (s *Service) SubmitConversation(ctx context.Context, in ConversationInput) (*Conversation, error) {
	c := &Conversation{
		BusinessName:      in.BusinessName,
		Role:              in.Role,
		RevenueModel:      in.RevenueModel,
		RevenueRange:      in.RevenueRange,
		TeamSize:          in.TeamSize,
		Limitation:        in.Limitation,
		Responsibility:    in.Responsibility,
		Willingness:       in.Willingness,
		AdditionalContext: in.AdditionalContext,
	}
	if err := s.repo.InsertConversation(ctx, c); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)

	subject, body := mailer.ConversationAdminEmail(map[string]string{
		"Business":           in.BusinessName,
		"Role":               in.Role,
		"Revenue model":      in.RevenueModel,
		"Revenue range":      in.RevenueRange,
		"Team size":          in.TeamSize,
		"Limitation":         in.Limitation,
		"Responsibility":     in.Responsibility,
		"Willingness":        in.Willingness,
		"Additional context": in.AdditionalContext,
	}, c.CreatedAt)
	s.notify(ctx, subject, body)
	return c, nil
}

// SubmitSaveForLater stores the email, notifies the admin inbox and queues
// the visitor's reminder.
func (s *Service) SubmitSaveForLater(ctx context.Context, in SaveInput) (*SaveForLater, error) {
	row := &SaveForLater{Email: in.Email}
	if err := s.repo.InsertSaveForLater(ctx, row); err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx)

	subject, body := mailer.SaveForLaterAdminEmail(in.Email, row.CreatedAt)
	s.notify(ctx, subject, body)

	reminderSubject, reminderBody := mailer.SaveForLaterReminderEmail()
	err := s.queue.EnqueueEmail(ctx, mailer.Email{
		To:      in.Email,
		Subject: reminderSubject,
		HTML:    reminderBody,
		Type:    mailer.TypeSaveReminder,
	})
	if err != nil {
		s.logger.Warn("queue save reminder", slog.String("email", in.Email), slog.Any("error", err))
		return row, nil
	}
	if err := s.repo.MarkReminderSent(ctx, row.ID); err != nil {
		s.logger.Warn("mark reminder sent", slog.Any("error", err))
	}
	return row, nil
}

// ListQuestions returns all question submissions.
func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.repo.ListQuestions(ctx)
}

// ListConversations returns all conversation requests.
func (s *Service) ListConversations(ctx context.Context) ([]Conversation, error) {
	return s.repo.ListConversations(ctx)
}

// ListSaveForLater returns all captured emails.
func (s *Service) ListSaveForLater(ctx context.Context) ([]SaveForLater, error) {
	return s.repo.ListSaveForLater(ctx)
}

// MarkReviewed records the reviewer's decision on a submission.
func (s *Service) MarkReviewed(ctx context.Context, kind Kind, id, reviewerID uuid.UUID, notes string) error {
	if err := s.repo.MarkReviewed(ctx, kind, id, reviewerID, notes); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// DashboardStats returns cached submission counts for the admin dashboard.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	return s.stats.Get(ctx, func(ctx context.Context) (Stats, error) {
		return s.repo.Counts(ctx)
	})
}

// notify queues an admin notification. Failures are logged and swallowed so
// the public form never fails on mail trouble.
func (s *Service) notify(ctx context.Context, subject, body string) {
	err := s.queue.EnqueueEmail(ctx, mailer.Email{
		To:      s.notifyEmail,
		Subject: subject,
		HTML:    body,
		Type:    mailer.TypeAdminNotification,
	})
	if err != nil {
		s.logger.Warn("queue admin notification", slog.Any("error", err))
	}
}
