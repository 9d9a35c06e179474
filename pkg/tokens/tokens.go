// Package tokens issues, records, and revokes bearer session tokens.
//
// A token is a signed JWT embedding the account identity, but signature and
// expiry alone are not sufficient: a token must also be present in the
// account's live session set. Logout removes the set entry, so a structurally
// valid token fails to resolve afterwards.
package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskforge/taskforge/pkg/apperrors"
	"github.com/taskforge/taskforge/pkg/store"
)

const issuer = "taskforge"

// Service issues and resolves session tokens for accounts.
type Service struct {
	secret []byte
	ttl    time.Duration
	repo   *store.Repository
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// NewService creates a token service. The signing secret is passed in
// explicitly; the service never reads ambient process state.
func NewService(secret string, ttl time.Duration, repo *store.Repository) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		repo:   repo,
	}
}

// Issue generates a signed token for the account and appends it to the
// account's session set. Issuance is additive: prior sessions stay valid.
func (s *Service) Issue(ctx context.Context, accountID string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			// Timestamps have second precision, so the jti is what keeps two
			// tokens issued back to back distinct.
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   accountID,
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	record := &store.SessionToken{
		AccountID: accountID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}
	if _, err := s.repo.CreateSessionToken(ctx, record); err != nil {
		return "", err
	}

	return signed, nil
}

// Revoke removes exactly the matching token from the account's session set.
// Revoking an absent token is a no-op.
func (s *Service) Revoke(ctx context.Context, accountID, token string) error {
	return s.repo.DeleteSessionToken(ctx, accountID, token)
}

// RevokeAll clears the account's entire session set.
func (s *Service) RevokeAll(ctx context.Context, accountID string) error {
	return s.repo.DeleteAccountSessionTokens(ctx, accountID)
}

// Resolve verifies a token's signature and expiry, then requires the exact
// token string to be a live member of its account's session set. Every
// failure collapses to the same uniform auth error.
func (s *Service) Resolve(ctx context.Context, token string) (*store.Account, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, apperrors.NewAuthError()
	}

	record, err := s.repo.GetSessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil || record.AccountID != claims.AccountID || record.IsExpired() {
		return nil, apperrors.NewAuthError()
	}

	account, err := s.repo.GetAccount(ctx, record.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.NewAuthError()
	}

	return account, nil
}

// PurgeExpired removes session records whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.repo.PurgeExpiredSessionTokens(ctx)
}

// parse validates the token's signature and registered claims.
func (s *Service) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
