package submissions_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anempire/anempire-web/internal/mailer"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/submissions"
	_ "github.com/anempire/anempire-web/testing"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepo struct {
	mu            sync.Mutex
	questions     map[uuid.UUID]*submissions.Question
	conversations map[uuid.UUID]*submissions.Conversation
	saves         map[uuid.UUID]*submissions.SaveForLater

	countsCalls int
	insertError error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		questions:     make(map[uuid.UUID]*submissions.Question),
		conversations: make(map[uuid.UUID]*submissions.Conversation),
		saves:         make(map[uuid.UUID]*submissions.SaveForLater),
	}
}

func (m *mockRepo) InsertQuestion(ctx context.Context, q *submissions.Question) error {
	if m.insertError != nil {
		return m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	copied := *q
	m.questions[q.ID] = &copied
	return nil
}

func (m *mockRepo) InsertConversation(ctx context.Context, c *submissions.Conversation) error {
	if m.insertError != nil {
		return m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	copied := *c
	m.conversations[c.ID] = &copied
	return nil
}

func (m *mockRepo) InsertSaveForLater(ctx context.Context, s *submissions.SaveForLater) error {
	if m.insertError != nil {
		return m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	copied := *s
	m.saves[s.ID] = &copied
	return nil
}

func (m *mockRepo) ListQuestions(ctx context.Context) ([]submissions.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]submissions.Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, *q)
	}
	return out, nil
}

func (m *mockRepo) ListConversations(ctx context.Context) ([]submissions.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]submissions.Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepo) ListSaveForLater(ctx context.Context) ([]submissions.SaveForLater, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]submissions.SaveForLater, 0, len(m.saves))
	for _, s := range m.saves {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockRepo) MarkReviewed(ctx context.Context, kind submissions.Kind, id, reviewerID uuid.UUID, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	switch kind {
	case submissions.KindQuestion:
		q, ok := m.questions[id]
		if !ok {
			return shared.ErrNotFound
		}
		q.Reviewed, q.ReviewedAt, q.ReviewedBy, q.Notes = true, &now, &reviewerID, notes
	case submissions.KindConversation:
		c, ok := m.conversations[id]
		if !ok {
			return shared.ErrNotFound
		}
		c.Reviewed, c.ReviewedAt, c.ReviewedBy, c.Notes = true, &now, &reviewerID, notes
	case submissions.KindSave:
		s, ok := m.saves[id]
		if !ok {
			return shared.ErrNotFound
		}
		s.Reviewed, s.ReviewedAt, s.ReviewedBy, s.Notes = true, &now, &reviewerID, notes
	default:
		return errors.New("unknown kind")
	}
	return nil
}

func (m *mockRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saves[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	s.ReminderSent, s.ReminderSentAt = true, &now
	return nil
}

func (m *mockRepo) Counts(ctx context.Context) (submissions.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countsCalls++
	stats := submissions.Stats{}
	stats.Questions.Total = len(m.questions)
	for _, q := range m.questions {
		if !q.Reviewed {
			stats.Questions.Unreviewed++
		}
	}
	stats.Conversations.Total = len(m.conversations)
	for _, c := range m.conversations {
		if !c.Reviewed {
			stats.Conversations.Unreviewed++
		}
	}
	stats.SaveForLater.Total = len(m.saves)
	for _, s := range m.saves {
		if !s.Reviewed {
			stats.SaveForLater.Unreviewed++
		}
	}
	return stats, nil
}

var _ submissions.Repository = (*mockRepo)(nil)

type mockQueue struct {
	mu     sync.Mutex
	emails []mailer.Email
	err    error
}

func (m *mockQueue) EnqueueEmail(ctx context.Context, email mailer.Email) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
	return nil
}

func (m *mockQueue) byType(t mailer.EmailType) []mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mailer.Email
	for _, e := range m.emails {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, repo submissions.Repository, queue submissions.EmailQueue) *submissions.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := submissions.NewStatsCache(client, time.Minute)
	return submissions.NewService(repo, queue, cache, testLogger(), "admin@test.local")
}

// ============================================================================
// SUBMISSION FLOWS
// ============================================================================

func TestSubmitQuestionNotifiesAdmin(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	svc := newTestService(t, repo, queue)

	q, err := svc.SubmitQuestion(context.Background(), submissions.QuestionInput{
		Question: "How do I leave the middle of everything?",
		Name:     "Jo",
		Email:    "jo@test.local",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, q.ID)

	notifications := queue.byType(mailer.TypeAdminNotification)
	require.Len(t, notifications, 1)
	assert.Equal(t, "admin@test.local", notifications[0].To)
	assert.Contains(t, notifications[0].HTML, "How do I leave the middle of everything?")
}

func TestSubmitQuestionQueueFailureStillPersists(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{err: errors.New("redis down")}
	svc := newTestService(t, repo, queue)

	_, err := svc.SubmitQuestion(context.Background(), submissions.QuestionInput{Question: "q"})
	require.NoError(t, err)

	stored, err := repo.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitConversationNotifiesAdmin(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	svc := newTestService(t, repo, queue)

	_, err := svc.SubmitConversation(context.Background(), submissions.ConversationInput{
		BusinessName:   "Acme Joinery",
		Role:           "Owner",
		RevenueModel:   "Project work",
		RevenueRange:   "$1M - $5M",
		TeamSize:       "12",
		Limitation:     "Everything routes through me",
		Responsibility: "Quoting",
		Willingness:    "Very",
	})
	require.NoError(t, err)

	notifications := queue.byType(mailer.TypeAdminNotification)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].HTML, "Acme Joinery")
}

func TestSubmitSaveForLaterQueuesReminder(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	svc := newTestService(t, repo, queue)

	row, err := svc.SubmitSaveForLater(context.Background(), submissions.SaveInput{Email: "later@test.local"})
	require.NoError(t, err)

	reminders := queue.byType(mailer.TypeSaveReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, "later@test.local", reminders[0].To)

	saves, err := repo.ListSaveForLater(context.Background())
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, row.ID, saves[0].ID)
	assert.True(t, saves[0].ReminderSent)
}

func TestSubmitSaveForLaterQueueFailureLeavesReminderPending(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{err: errors.New("redis down")}
	svc := newTestService(t, repo, queue)

	_, err := svc.SubmitSaveForLater(context.Background(), submissions.SaveInput{Email: "later@test.local"})
	require.NoError(t, err)

	saves, err := repo.ListSaveForLater(context.Background())
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.False(t, saves[0].ReminderSent)
}

func TestMarkReviewedUnknownID(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &mockQueue{})

	err := svc.MarkReviewed(context.Background(), submissions.KindQuestion, uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ============================================================================
// DASHBOARD STATS
// ============================================================================

func TestDashboardStatsCaches(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	svc := newTestService(t, repo, queue)

	_, err := svc.SubmitQuestion(context.Background(), submissions.QuestionInput{Question: "q1"})
	require.NoError(t, err)

	first, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Questions.Total)
	assert.Equal(t, 1, first.Questions.Unreviewed)

	// Second read is served from cache, not the repository.
	callsAfterFirst := repo.countsCalls
	second, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, repo.countsCalls)
}

func TestDashboardStatsInvalidatedByWrites(t *testing.T) {
	repo := newMockRepo()
	queue := &mockQueue{}
	svc := newTestService(t, repo, queue)

	q, err := svc.SubmitQuestion(context.Background(), submissions.QuestionInput{Question: "q1"})
	require.NoError(t, err)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Questions.Unreviewed)

	require.NoError(t, svc.MarkReviewed(context.Background(), submissions.KindQuestion, q.ID, uuid.New(), "done"))

	stats, err = svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Questions.Total)
	assert.Equal(t, 0, stats.Questions.Unreviewed)
}

func TestDashboardStatsWithoutRedis(t *testing.T) {
	repo := newMockRepo()
	cache := submissions.NewStatsCache(nil, time.Minute)
	svc := submissions.NewService(repo, &mockQueue{}, cache, testLogger(), "admin@test.local")

	_, err := svc.SubmitQuestion(context.Background(), submissions.QuestionInput{Question: "q1"})
	require.NoError(t, err)

	stats, err := svc.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Questions.Total)
}
