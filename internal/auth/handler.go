package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"auth-serverless/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type signupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(4, 20)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 20)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.UserID = strings.TrimSpace(body.UserID)
	body.Email = strings.TrimSpace(body.Email)
	if err := body.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	_, err := h.service.Signup(r.Context(), SignupInput{
		Identifier: body.UserID,
		Password:   body.Password,
		Email:      body.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateIdentifier):
			writeError(w, http.StatusBadRequest, "user id already exists")
		case errors.Is(err, ErrDuplicateContact):
			writeError(w, http.StatusBadRequest, "email already exists")
		default:
			h.internalError(w, r, "signup_failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user registered successfully"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.UserID = strings.TrimSpace(body.UserID)
	if err := body.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	issued, err := h.service.Login(r.Context(), body.UserID, body.Password)
	if err != nil {
		var lockErr LockError
		switch {
		case errors.As(err, &lockErr):
			setRetryAfter(w, lockErr.Until, h.service.clock.Now())
			if errors.Is(err, ErrLockedJustNow) {
				writeError(w, http.StatusUnauthorized, "account has been locked due to too many failed attempts")
			} else {
				writeError(w, http.StatusUnauthorized, "account is locked")
			}
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, ErrAccountDisabled):
			writeError(w, http.StatusUnauthorized, "account is disabled")
		default:
			h.internalError(w, r, "login_failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, issued)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request, _ Identity) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.internalError(w, r, "list_accounts_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, event string, err error) {
	sentry.CaptureException(err)
	h.logger.Error(event, map[string]any{
		"path":  r.URL.Path,
		"error": err.Error(),
	})
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func setRetryAfter(w http.ResponseWriter, until, now time.Time) {
	if until.IsZero() {
		return
	}
	retryAfter := int(until.Sub(now).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fieldErrs,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
