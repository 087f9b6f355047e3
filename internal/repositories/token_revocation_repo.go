package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
)

// TokenRevocationRepository is an in-memory blacklist of token JTIs
type TokenRevocationRepository struct {
	mu      sync.RWMutex
	revoked map[string]models.RevokedToken
	now     func() time.Time
}

func NewTokenRevocationRepository() *TokenRevocationRepository {
	return &TokenRevocationRepository{
		revoked: make(map[string]models.RevokedToken),
		now:     time.Now,
	}
}

// RevokeToken adds a token to the blacklist until it would have expired anyway
func (r *TokenRevocationRepository) RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[jti] = models.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		TokenType: tokenType,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	return nil
}

// IsTokenRevoked checks if a token is in the blacklist
func (r *TokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.revoked[jti]
	return ok, nil
}

// CleanupExpiredTokens removes entries whose tokens have expired (call periodically)
func (r *TokenRevocationRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int64
	for jti, t := range r.revoked {
		if t.ExpiresAt.Before(now) {
			delete(r.revoked, jti)
			removed++
		}
	}
	return removed, nil
}
