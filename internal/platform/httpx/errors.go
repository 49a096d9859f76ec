package httpx

import (
	"errors"
	"net/http"

	"github.com/anempire/anempire-web/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Internal
// failures surface as an undifferentiated 500 without detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrAlreadyExists):
		Problem(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrSelfAction):
		Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrAccessRestricted),
		errors.Is(err, shared.ErrInvalidOrExpiredToken),
		errors.Is(err, shared.ErrWeakPassword):
		Problem(w, http.StatusBadRequest, "Invalid Request", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
