package httpx_test

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anempire/anempire-web/internal/platform/httpx"
	"github.com/anempire/anempire-web/internal/shared"
	_ "github.com/anempire/anempire-web/testing"
)

func TestJSON(t *testing.T) {
	res := httptest.NewRecorder()
	httpx.JSON(res, 201, map[string]bool{"ok": true})

	assert.Equal(t, 201, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, res.Body.String())
}

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrNotFound, 404},
		{shared.ErrAlreadyExists, 409},
		{shared.ErrUnauthorized, 401},
		{shared.ErrSelfAction, 403},
		{shared.ErrInvalidCredentials, 400},
		{shared.ErrInvalidOrExpiredToken, 400},
		{errors.New("pq: connection reset"), 500},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		httpx.RespondError(res, fmt.Errorf("wrapped: %w", tc.err))
		assert.Equal(t, tc.status, res.Code, tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	res := httptest.NewRecorder()
	httpx.RespondError(res, errors.New("dial tcp 10.0.0.3:5432: connect refused"))

	assert.Equal(t, 500, res.Code)
	assert.NotContains(t, res.Body.String(), "10.0.0.3")
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@test.local"}`))
	var payload struct {
		Email string `json:"email"`
	}
	require.NoError(t, httpx.DecodeJSON(req, &payload))
	assert.Equal(t, "a@test.local", payload.Email)
}
