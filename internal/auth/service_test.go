package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/shared"
	_ "github.com/anempire/anempire-web/testing"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*auth.User
	tokens map[string]*auth.ResetToken

	// Error injection
	findByEmailError error
	insertError      error
	countError       error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[uuid.UUID]*auth.User),
		tokens: make(map[string]*auth.ResetToken),
	}
}

func (m *mockRepository) addUser(email, password string, role auth.Role, status auth.Status) *auth.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := &auth.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return user
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if m.findByEmailError != nil {
		return nil, m.findByEmailError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Insert(ctx context.Context, user *auth.User) error {
	if m.insertError != nil {
		return m.insertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lowered := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == lowered {
			return shared.ErrAlreadyExists
		}
	}
	user.ID = uuid.New()
	user.Email = lowered
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m *mockRepository) List(ctx context.Context) ([]auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	if m.countError != nil {
		return 0, m.countError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, u := range m.users {
		if u.Role == auth.RoleAdmin && u.Status == auth.StatusActive {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) InsertResetToken(ctx context.Context, token *auth.ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	copied := *token
	m.tokens[token.Token] = &copied
	return nil
}

// RedeemResetToken mirrors the single-use conditional update: under the lock
// only one caller observes an unused, unexpired token.
func (m *mockRepository) RedeemResetToken(ctx context.Context, token, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.tokens[token]
	if !ok || row.UsedAt != nil || time.Now().After(row.ExpiresAt) {
		return uuid.Nil, shared.ErrInvalidOrExpiredToken
	}
	now := time.Now()
	row.UsedAt = &now
	u, ok := m.users[row.UserID]
	if !ok {
		return uuid.Nil, shared.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return row.UserID, nil
}

var _ auth.Repository = (*mockRepository)(nil)

func newService(repo auth.Repository) *auth.Service {
	return auth.NewService(repo, auth.NewTokenIssuer("test-secret", time.Hour))
}

// ============================================================================
// CREDENTIAL VERIFICATION
// ============================================================================

func TestVerifyCredentialsUnknownEmail(t *testing.T) {
	svc := newService(newMockRepository())

	_, err := svc.VerifyCredentials(context.Background(), "nobody@test.local", "whatever123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyCredentialsWrongPassword(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, err := svc.VerifyCredentials(context.Background(), "owner@test.local", "wrong-password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

// Unknown email and wrong password must be indistinguishable to the caller.
func TestVerifyCredentialsNoEnumeration(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, errUnknown := svc.VerifyCredentials(context.Background(), "nobody@test.local", "whatever123")
	_, errWrong := svc.VerifyCredentials(context.Background(), "owner@test.local", "wrong-password")
	assert.Equal(t, errUnknown, errWrong)
}

func TestVerifyCredentialsDisabledBeatsValidPassword(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusDisabled)
	svc := newService(repo)

	_, err := svc.VerifyCredentials(context.Background(), "owner@test.local", "correct-password")
	assert.ErrorIs(t, err, shared.ErrAccessRestricted)
}

func TestVerifyCredentialsSuccess(t *testing.T) {
	repo := newMockRepository()
	seeded := repo.addUser("Owner@Test.Local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	user, err := svc.VerifyCredentials(context.Background(), "owner@test.local", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
}

// ============================================================================
// SESSIONS
// ============================================================================

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := newMockRepository()
	seeded := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, token, err := svc.Login(context.Background(), "owner@test.local", "correct-password")
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
}

func TestCurrentUserRejectsDisabledAfterIssue(t *testing.T) {
	repo := newMockRepository()
	seeded := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, token, err := svc.Login(context.Background(), "owner@test.local", "correct-password")
	require.NoError(t, err)

	// Disable after the token was issued. The signature is still valid but the
	// fresh row read must win.
	require.NoError(t, repo.UpdateStatus(context.Background(), seeded.ID, auth.StatusDisabled))

	_, err = svc.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCurrentUserRejectsDeletedRow(t *testing.T) {
	repo := newMockRepository()
	seeded := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, token, err := svc.Login(context.Background(), "owner@test.local", "correct-password")
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.users, seeded.ID)
	repo.mu.Unlock()

	_, err = svc.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

// ============================================================================
// ACCOUNT MANAGEMENT
// ============================================================================

func TestCreateUserRejectsShortPassword(t *testing.T) {
	svc := newService(newMockRepository())

	_, err := svc.CreateUser(context.Background(), "new@test.local", "seven77", "New", auth.RoleSystemUser)
	assert.ErrorIs(t, err, shared.ErrWeakPassword)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	_, err := svc.CreateUser(context.Background(), "Owner@Test.Local", "long-enough", "Dup", auth.RoleSystemUser)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestInviteUserMintsSetPasswordToken(t *testing.T) {
	repo := newMockRepository()
	svc := newService(repo)

	user, token, err := svc.InviteUser(context.Background(), "invitee@test.local", "Invitee", auth.RoleSystemUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, auth.StatusActive, user.Status)

	// The invite token must be redeemable for a first password.
	require.NoError(t, svc.ResetPassword(context.Background(), token, "chosen-password"))

	_, err = svc.VerifyCredentials(context.Background(), "invitee@test.local", "chosen-password")
	assert.NoError(t, err)
}

func TestSetPasswordPolicy(t *testing.T) {
	repo := newMockRepository()
	seeded := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	assert.ErrorIs(t, svc.SetPassword(context.Background(), seeded.ID, "short"), shared.ErrWeakPassword)
	assert.NoError(t, svc.SetPassword(context.Background(), seeded.ID, "exactly8"))
}

func TestSetRoleSelfDemotionRefused(t *testing.T) {
	repo := newMockRepository()
	admin := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	err := svc.SetRole(context.Background(), admin.ID, admin.ID, auth.RoleSystemUser)
	assert.ErrorIs(t, err, shared.ErrSelfAction)

	// Reaffirming your own admin role is a no-op, not a lockout.
	assert.NoError(t, svc.SetRole(context.Background(), admin.ID, admin.ID, auth.RoleAdmin))
}

func TestToggleStatusSelfRefused(t *testing.T) {
	repo := newMockRepository()
	admin := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	other := repo.addUser("other@test.local", "correct-password", auth.RoleSystemUser, auth.StatusActive)
	svc := newService(repo)

	_, err := svc.ToggleStatus(context.Background(), admin.ID, admin.ID)
	assert.ErrorIs(t, err, shared.ErrSelfAction)

	next, err := svc.ToggleStatus(context.Background(), admin.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusDisabled, next)

	next, err = svc.ToggleStatus(context.Background(), admin.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusActive, next)
}

// ============================================================================
// PASSWORD RESET
// ============================================================================

func TestRequestPasswordResetUnknownEmailSilent(t *testing.T) {
	svc := newService(newMockRepository())

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@test.local")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRequestPasswordResetMintsFreshTokens(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	first, err := svc.RequestPasswordReset(context.Background(), "owner@test.local")
	require.NoError(t, err)
	second, err := svc.RequestPasswordReset(context.Background(), "owner@test.local")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestResetPasswordUnknownToken(t *testing.T) {
	svc := newService(newMockRepository())

	err := svc.ResetPassword(context.Background(), "no-such-token", "long-enough")
	assert.ErrorIs(t, err, shared.ErrInvalidOrExpiredToken)
}

func TestResetPasswordShortPasswordBeforeRedemption(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	token, err := svc.RequestPasswordReset(context.Background(), "owner@test.local")
	require.NoError(t, err)

	// Policy violation must not consume the token.
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), token, "short"), shared.ErrWeakPassword)
	assert.NoError(t, svc.ResetPassword(context.Background(), token, "long-enough"))
}

func TestResetPasswordSingleUse(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	token, err := svc.RequestPasswordReset(context.Background(), "owner@test.local")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "first-new-pass"))
	err = svc.ResetPassword(context.Background(), token, "second-new-pass")
	assert.ErrorIs(t, err, shared.ErrInvalidOrExpiredToken)

	// The first redemption's password survives.
	_, err = svc.VerifyCredentials(context.Background(), "owner@test.local", "first-new-pass")
	assert.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newMockRepository()
	user := repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	expired := &auth.ResetToken{
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.InsertResetToken(context.Background(), expired))

	err := svc.ResetPassword(context.Background(), "expired-token", "long-enough")
	assert.ErrorIs(t, err, shared.ErrInvalidOrExpiredToken)
}

func TestResetPasswordConcurrentRedemption(t *testing.T) {
	repo := newMockRepository()
	repo.addUser("owner@test.local", "correct-password", auth.RoleAdmin, auth.StatusActive)
	svc := newService(repo)

	token, err := svc.RequestPasswordReset(context.Background(), "owner@test.local")
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.ResetPassword(context.Background(), token, "concurrent-pass")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, shared.ErrInvalidOrExpiredToken)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent redemption may win")
}
