package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultAccessTTL = 24 * time.Hour

type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
	parser *jwt.Parser
}

func NewTokenService(secret string, ttl time.Duration, clock Clock) *TokenService {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject. The jti claim keeps two tokens minted in
// the same second distinct; both stay valid until their own expiry.
func (s *TokenService) Issue(subject string) (IssuedToken, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return IssuedToken{}, fmt.Errorf("generate token id: %w", err)
	}

	now := s.clock.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        jti.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign jwt: %w", err)
	}

	return IssuedToken{
		Token:     encoded,
		TokenType: "Bearer",
		ExpiresIn: int64(s.ttl.Seconds()),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Identity{}, ErrTokenInvalid
	}

	claims := &jwt.RegisteredClaims{}
	token, err := s.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) ExtractSubject(tokenStr string) (string, error) {
	identity, err := s.Validate(tokenStr)
	if err != nil {
		return "", err
	}
	return identity.Subject, nil
}
