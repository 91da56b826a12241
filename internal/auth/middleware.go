package auth

import (
	"errors"
	"net/http"
	"strings"
)

// IdentityHandler serves a request on behalf of an authenticated subject.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, identity Identity)

// BearerToken extracts the token from an Authorization header value of the
// form "Bearer <token>".
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMalformedAuthorizationHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthorizationHeader
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMalformedAuthorizationHeader
	}

	return token, nil
}

func RequireToken(service *Service, next IdentityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		identity, err := service.ValidateRequestToken(header)
		if err != nil {
			switch {
			case errors.Is(err, ErrMalformedAuthorizationHeader):
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
			case errors.Is(err, ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, "token expired")
			default:
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		next(w, r, identity)
	})
}
