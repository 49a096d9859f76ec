package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/anempire/anempire-web/internal/shared"
)

// Service wraps credential-store and reset-token business rules.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// VerifyCredentials validates email/password credentials. Unknown email and
// wrong password both yield ErrInvalidCredentials; a disabled account with
// correct credentials yields ErrAccessRestricted.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status == StatusDisabled {
		return nil, shared.ErrAccessRestricted
	}
	// bcrypt's comparison is the constant-time check; never compare hashes
	// manually.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials and mints a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("auth: issue token: %w", err)
	}
	return user, token, nil
}

// CurrentUser resolves a session token to a live user. The user row is
// re-fetched so an account disabled after the token was issued is rejected
// even though the signature is still valid.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	session, err := s.tokens.Verify(token)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	if user.Status != StatusActive {
		return nil, shared.ErrUnauthorized
	}
	return user, nil
}

// CreateUser hashes the password and inserts a new active user. The minimum
// password length is a credential-store invariant enforced here for every
// call path.
func (s *Service) CreateUser(ctx context.Context, email, password, name string, role Role) (*User, error) {
	if len(password) < MinPasswordLength {
		return nil, shared.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       StatusActive,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// InviteUser creates an account with an unguessable temporary password and
// mints a 7-day set-password token the caller emails out-of-band.
func (s *Service) InviteUser(ctx context.Context, email, name string, role Role) (*User, string, error) {
	tempPassword, err := randomToken()
	if err != nil {
		return nil, "", fmt.Errorf("auth: temp password: %w", err)
	}
	user, err := s.CreateUser(ctx, email, tempPassword, name, role)
	if err != nil {
		return nil, "", err
	}
	token, err := s.mintResetToken(ctx, user.ID, SetPasswordTokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SetPassword rehashes and overwrites the stored secret.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return shared.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// SetRole changes the target's role. An admin may not demote their own
// account away from admin; locking yourself out is not an available action.
func (s *Service) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role Role) error {
	if actorID == targetID && role != RoleAdmin {
		return shared.ErrSelfAction
	}
	return s.repo.UpdateRole(ctx, targetID, role)
}

// ToggleStatus flips active/disabled on the target. Self-toggles are refused.
func (s *Service) ToggleStatus(ctx context.Context, actorID, targetID uuid.UUID) (Status, error) {
	if actorID == targetID {
		return "", shared.ErrSelfAction
	}
	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	next := StatusDisabled
	if user.Status == StatusDisabled {
		next = StatusActive
	}
	if err := s.repo.UpdateStatus(ctx, targetID, next); err != nil {
		return "", err
	}
	return next, nil
}

// ListUsers returns all accounts for the management screen.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// RequestPasswordReset mints a fresh one-hour token for the account matching
// the email. When no account matches it reports success with an empty token;
// callers must not leak whether the email existed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return s.mintResetToken(ctx, user.ID, ResetTokenTTL)
}

// ResetPassword redeems a token and overwrites the password. The token
// mark-used and password writes commit as one transaction; a redeemed,
// expired or unknown token yields ErrInvalidOrExpiredToken.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return shared.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	_, err = s.repo.RedeemResetToken(ctx, token, string(hash))
	return err
}

func (s *Service) mintResetToken(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("auth: mint reset token: %w", err)
	}
	reset := &ResetToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repo.InsertResetToken(ctx, reset); err != nil {
		return "", err
	}
	return token, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
