package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boddenberg/cielo-gateway-go/internal/domain"
)

const tokenIssuer = "cielo-gateway"

// Claims identify the API client calling the gateway.
type Claims struct {
	Sub   string `json:"sub"`
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a token service. An empty secret disables
// issuing: Issue fails and Validate rejects everything.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether a signing secret is configured.
func (s *TokenService) Enabled() bool {
	return len(s.secret) > 0
}

// Issue signs a token for subject.
func (s *TokenService) Issue(subject, scope string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("token signing secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		Sub:   subject,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken parses and verifies a bearer token.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, &domain.ErrUnauthorized{Message: "authentication not configured"}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Sub == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	return claims, nil
}
