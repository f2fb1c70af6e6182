package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService verifies bearer tokens minted by the identity provider and
// keeps the logout list.
type TokenService struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	revocations repository.TokenRevocationRepository
	now         func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration, revocations repository.TokenRevocationRepository) *TokenService {
	return &TokenService{
		secret:      []byte(secret),
		issuer:      issuer,
		ttl:         ttl,
		revocations: revocations,
		now:         time.Now,
	}
}

// IssueToken signs a token for userID. The identity provider normally does
// this; the service uses it for development logins and tests.
func (s *TokenService) IssueToken(userID uuid.UUID, email string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken validates the signature, expiry and revocation state of a token.
func (s *TokenService) VerifyToken(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, hashToken(tokenString))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return &Identity{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *TokenService) Logout(ctx context.Context, tokenString string) error {
	identity, err := s.VerifyToken(ctx, tokenString)
	if errors.Is(err, domain.ErrTokenRevoked) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.revocations.Revoke(ctx, hashToken(tokenString), identity.ExpiresAt.Sub(s.now()))
}

// hashToken creates SHA256 hash of token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
