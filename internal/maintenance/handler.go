package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"auth-serverless/internal/observability"
)

type LockReleaser interface {
	ReleaseExpiredLocks(ctx context.Context, limit int) (int, error)
}

// UnlockHandler is hit by a scheduler to clear account locks whose cooldown
// has passed. It is disabled (404) when no cron secret is configured.
type UnlockHandler struct {
	releaser   LockReleaser
	logger     *observability.Logger
	cronSecret string
	batchSize  int
}

func NewUnlockHandler(releaser LockReleaser, logger *observability.Logger, cronSecret string, batchSize int) *UnlockHandler {
	if batchSize <= 0 {
		batchSize = 500
	}

	return &UnlockHandler{
		releaser:   releaser,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		batchSize:  batchSize,
	}
}

func (h *UnlockHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, secret, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(secret) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	released, err := h.releaser.ReleaseExpiredLocks(r.Context(), h.batchSize)
	if err != nil {
		h.logger.Error("lock_release_failed", map[string]any{"error": err.Error(), "released": released})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lock release failed"})
		return
	}

	h.logger.Info("lock_release_completed", map[string]any{"released": released})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"released": released,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
