package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ilfen-assessment/internal/domain"
)

// SessionTokenService emite y valida los tokens de participante que identifican una sesión de test.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	Variant   string `json:"variant"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
)

func NewSessionTokenService(secret string, ttl time.Duration) *SessionTokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "ilfen-assessment",
		now:    time.Now,
	}
}

// TTL is how long an issued token stays valid.
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token bound to the session and its registration.
func (s *SessionTokenService) Issue(session domain.Session) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokenInvalid
	}
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.RegistrationID) == "" {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	claims := SessionClaims{
		SessionID: session.ID,
		Variant:   session.Variant.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.RegistrationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates the token and returns its claims.
func (s *SessionTokenService) Parse(tokenString string) (SessionClaims, error) {
	if len(s.secret) == 0 {
		return SessionClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return SessionClaims{}, ErrTokenInvalid
	}
	var claims SessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, ErrTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return SessionClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *SessionTokenService) isValidClaims(claims SessionClaims) bool {
	if strings.TrimSpace(claims.SessionID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	if _, err := domain.ParseVariant(claims.Variant); err != nil {
		return false
	}
	return claims.Issuer == s.issuer
}
