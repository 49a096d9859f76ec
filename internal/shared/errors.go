package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password collapse into this one error on purpose (anti-enumeration).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessRestricted indicates valid credentials on a disabled account.
	ErrAccessRestricted = errors.New("access restricted")
	// ErrInvalidOrExpiredToken covers missing, used and expired reset tokens
	// without distinguishing which (anti-enumeration).
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrAlreadyExists indicates a duplicate user on creation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates a request without a valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated request lacking the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfAction indicates an admin acting on their own role or status.
	ErrSelfAction = errors.New("cannot perform this action on your own account")
	// ErrWeakPassword indicates a password below the minimum length policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to a message safe to render. Anything
// outside the known taxonomy becomes an undifferentiated failure notice.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrAccessRestricted):
		return "Access restricted"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "Invalid or expired reset link"
	case errors.Is(err, ErrAlreadyExists):
		return "User already exists"
	case errors.Is(err, ErrSelfAction):
		return "You cannot change your own role or status"
	case errors.Is(err, ErrWeakPassword):
		return "Password must be at least 8 characters"
	default:
		return "Something went wrong"
	}
}
