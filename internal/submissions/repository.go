package submissions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anempire/anempire-web/internal/shared"
)

// Repository persists lead form submissions.
type Repository interface {
	InsertQuestion(ctx context.Context, q *Question) error
	InsertConversation(ctx context.Context, c *Conversation) error
	InsertSaveForLater(ctx context.Context, s *SaveForLater) error
	ListQuestions(ctx context.Context) ([]Question, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	ListSaveForLater(ctx context.Context) ([]SaveForLater, error)
	MarkReviewed(ctx context.Context, kind Kind, id, reviewerID uuid.UUID, notes string) error
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (Stats, error)
}

// PGRepository is the PostgreSQL-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds PGRepository instance.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func tableFor(kind Kind) (string, bool) {
	switch kind {
	case KindQuestion:
		return "question_submissions", true
	case KindConversation:
		return "conversation_submissions", true
	case KindSave:
		return "save_for_later_submissions", true
	default:
		return "", false
	}
}

// InsertQuestion stores a new question submission.
func (r *PGRepository) InsertQuestion(ctx context.Context, q *Question) error {
	const query = `
		INSERT INTO question_submissions (question, name, email, phone)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, q.Question, q.Name, q.Email, q.Phone).
		Scan(&q.ID, &q.CreatedAt)
}

// InsertConversation stores a new conversation request.
func (r *PGRepository) InsertConversation(ctx context.Context, c *Conversation) error {
	const query = `
		INSERT INTO conversation_submissions (
			business_name, role, revenue_model, revenue_range, team_size,
			limitation, responsibility, willingness, additional_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		c.BusinessName, c.Role, c.RevenueModel, c.RevenueRange, c.TeamSize,
		c.Limitation, c.Responsibility, c.Willingness, c.AdditionalContext).
		Scan(&c.ID, &c.CreatedAt)
}

// InsertSaveForLater stores a captured email.
func (r *PGRepository) InsertSaveForLater(ctx context.Context, s *SaveForLater) error {
	const query = `
		INSERT INTO save_for_later_submissions (email)
		VALUES ($1)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, s.Email).Scan(&s.ID, &s.CreatedAt)
}

// ListQuestions returns question submissions newest first.
func (r *PGRepository) ListQuestions(ctx context.Context) ([]Question, error) {
	const query = `
		SELECT id, question, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       reviewed, reviewed_at, reviewed_by, COALESCE(notes, ''), created_at
		FROM question_submissions
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Name, &q.Email, &q.Phone,
			&q.Reviewed, &q.ReviewedAt, &q.ReviewedBy, &q.Notes, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListConversations returns conversation requests newest first.
func (r *PGRepository) ListConversations(ctx context.Context) ([]Conversation, error) {
	const query = `
		SELECT id, business_name, role, revenue_model, revenue_range, team_size,
		       limitation, responsibility, willingness, COALESCE(additional_context, ''),
		       reviewed, reviewed_at, reviewed_by, COALESCE(notes, ''), created_at
		FROM conversation_submissions
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.BusinessName, &c.Role, &c.RevenueModel, &c.RevenueRange,
			&c.TeamSize, &c.Limitation, &c.Responsibility, &c.Willingness, &c.AdditionalContext,
			&c.Reviewed, &c.ReviewedAt, &c.ReviewedBy, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSaveForLater returns captured emails newest first.
func (r *PGRepository) ListSaveForLater(ctx context.Context) ([]SaveForLater, error) {
	const query = `
		SELECT id, email, reminder_sent, reminder_sent_at,
		       reviewed, reviewed_at, reviewed_by, COALESCE(notes, ''), created_at
		FROM save_for_later_submissions
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaveForLater
	for rows.Next() {
		var s SaveForLater
		if err := rows.Scan(&s.ID, &s.Email, &s.ReminderSent, &s.ReminderSentAt,
			&s.Reviewed, &s.ReviewedAt, &s.ReviewedBy, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkReviewed records a moderation decision on any submission kind.
func (r *PGRepository) MarkReviewed(ctx context.Context, kind Kind, id, reviewerID uuid.UUID, notes string) error {
	table, ok := tableFor(kind)
	if !ok {
		return errors.New("submissions: unknown kind")
	}
	query := `
		UPDATE ` + table + `
		SET reviewed = TRUE, reviewed_at = $2, reviewed_by = $3, notes = NULLIF($4, '')
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC(), reviewerID, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkReminderSent flags a save-for-later row once its reminder is queued.
func (r *PGRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE save_for_later_submissions
		SET reminder_sent = TRUE, reminder_sent_at = $2
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Counts aggregates totals and unreviewed backlog per submission kind.
func (r *PGRepository) Counts(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM question_submissions),
			(SELECT COUNT(*) FROM question_submissions WHERE NOT reviewed),
			(SELECT COUNT(*) FROM conversation_submissions),
			(SELECT COUNT(*) FROM conversation_submissions WHERE NOT reviewed),
			(SELECT COUNT(*) FROM save_for_later_submissions),
			(SELECT COUNT(*) FROM save_for_later_submissions WHERE NOT reviewed)`
	var s Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.Questions.Total, &s.Questions.Unreviewed,
		&s.Conversations.Total, &s.Conversations.Unreviewed,
		&s.SaveForLater.Total, &s.SaveForLater.Unreviewed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, shared.ErrNotFound
		}
		return Stats{}, err
	}
	return s, nil
}
