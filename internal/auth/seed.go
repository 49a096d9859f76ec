package auth

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Seeder creates the initial admin account on a fresh store. It runs at most
// once per process, checked on first privileged-route access. This is a
// deployment-bootstrap convenience, not a security boundary: failures are
// logged and retried on the next process start, never surfaced to requests.
type Seeder struct {
	service  *Service
	logger   *slog.Logger
	email    string
	password string
	seeded   atomic.Bool
}

// NewSeeder constructs a Seeder for the well-known bootstrap account.
func NewSeeder(service *Service, logger *slog.Logger, email, password string) *Seeder {
	return &Seeder{service: service, logger: logger, email: email, password: password}
}

// EnsureInitialAdmin checks for an active admin and creates one when none
// exists and a valid bootstrap password is configured. The atomic flag makes
// the check safe under concurrent cold-start requests.
func (s *Seeder) EnsureInitialAdmin(ctx context.Context) {
	if s == nil || !s.seeded.CompareAndSwap(false, true) {
		return
	}

	count, err := s.service.repo.CountActiveAdmins(ctx)
	if err != nil {
		s.logger.Error("admin seed: count admins", slog.Any("error", err))
		return
	}
	if count > 0 {
		return
	}

	if s.password == "" {
		s.logger.Warn("admin seed: bootstrap password not set, skipping")
		return
	}
	if len(s.password) < MinPasswordLength {
		s.logger.Warn("admin seed: bootstrap password too short, skipping")
		return
	}

	if _, err := s.service.CreateUser(ctx, s.email, s.password, "Admin User", RoleAdmin); err != nil {
		s.logger.Error("admin seed: create admin", slog.Any("error", err))
		return
	}
	s.logger.Info("admin seed: initial admin created", slog.String("email", s.email))
}

// Reset clears the once-only flag. Test harness use only.
func (s *Seeder) Reset() {
	s.seeded.Store(false)
}
