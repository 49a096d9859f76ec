package mailer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LogRepository persists email delivery attempts.
type LogRepository interface {
	InsertLog(ctx context.Context, log *EmailLog) error
	ListLogs(ctx context.Context, limit int) ([]EmailLog, error)
}

// PGLogRepository implements LogRepository using PostgreSQL.
type PGLogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository constructs a PostgreSQL log repository.
func NewLogRepository(pool *pgxpool.Pool) *PGLogRepository {
	return &PGLogRepository{pool: pool}
}

// InsertLog appends one delivery attempt.
func (r *PGLogRepository) InsertLog(ctx context.Context, log *EmailLog) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO email_logs (to_email, from_email, subject, body, email_type, sent_successfully, error_message, sent_by)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		 RETURNING id, created_at`,
		log.ToEmail, log.FromEmail, log.Subject, log.Body, log.Type, log.SentSuccessfully, log.ErrorMessage, log.SentBy,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListLogs returns the most recent delivery attempts.
func (r *PGLogRepository) ListLogs(ctx context.Context, limit int) ([]EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, to_email, from_email, subject, body, email_type, sent_successfully, COALESCE(error_message, ''), sent_by, created_at
		 FROM email_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []EmailLog
	for rows.Next() {
		var log EmailLog
		if err := rows.Scan(&log.ID, &log.ToEmail, &log.FromEmail, &log.Subject, &log.Body, &log.Type, &log.SentSuccessfully, &log.ErrorMessage, &log.SentBy, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

var _ LogRepository = (*PGLogRepository)(nil)
