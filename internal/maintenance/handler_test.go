package maintenance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-serverless/internal/observability"
)

type stubReleaser struct {
	released int
	err      error
	limit    int
	calls    int
}

func (s *stubReleaser) ReleaseExpiredLocks(ctx context.Context, limit int) (int, error) {
	s.calls++
	s.limit = limit
	return s.released, s.err
}

func serve(h *UnlockHandler, method, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/internal/maintenance/unlock", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestUnlockHandlerDisabledWithoutSecret(t *testing.T) {
	releaser := &stubReleaser{}
	h := NewUnlockHandler(releaser, observability.NewNopLogger(), "", 10)

	rec := serve(h, http.MethodPost, "Bearer anything")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Zero(t, releaser.calls)
}

func TestUnlockHandlerRequiresSecret(t *testing.T) {
	releaser := &stubReleaser{}
	h := NewUnlockHandler(releaser, observability.NewNopLogger(), "cron-secret", 10)

	for _, header := range []string{"", "Bearer wrong", "Basic cron-secret", "cron-secret"} {
		rec := serve(h, http.MethodPost, header)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
	require.Zero(t, releaser.calls)

	rec := serve(h, http.MethodDelete, "Bearer cron-secret")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnlockHandlerReleases(t *testing.T) {
	releaser := &stubReleaser{released: 3}
	h := NewUnlockHandler(releaser, observability.NewNopLogger(), "cron-secret", 0)

	rec := serve(h, http.MethodGet, "Bearer cron-secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","released":3}`, rec.Body.String())
	assert.Equal(t, 500, releaser.limit)
}

func TestUnlockHandlerFailure(t *testing.T) {
	releaser := &stubReleaser{err: errors.New("db down")}
	h := NewUnlockHandler(releaser, observability.NewNopLogger(), "cron-secret", 10)

	rec := serve(h, http.MethodPost, "Bearer cron-secret")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
