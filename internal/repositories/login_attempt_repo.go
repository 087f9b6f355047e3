package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
)

// LoginAttemptRepository keeps recent login outcomes in memory
type LoginAttemptRepository struct {
	mu       sync.Mutex
	attempts []models.LoginAttempt
	now      func() time.Time
}

func NewLoginAttemptRepository() *LoginAttemptRepository {
	return &LoginAttemptRepository{now: time.Now}
}

// RecordAttempt appends an attempt, stamping its ID and time
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := *attempt
	a.ID = uuid.New().String()
	if a.AttemptTime.IsZero() {
		a.AttemptTime = r.now()
	}
	a.Email = normalizeEmail(a.Email)
	r.attempts = append(r.attempts, a)
	return nil
}

// GetFailedAttemptCount counts failures for email since the given time that
// happened after the last success
func (r *LoginAttemptRepository) GetFailedAttemptCount(ctx context.Context, email string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = normalizeEmail(email)
	count := 0
	for _, a := range r.attempts {
		if a.Email != email || a.AttemptTime.Before(since) {
			continue
		}
		if a.Success {
			count = 0
			continue
		}
		count++
	}
	return count, nil
}

// GetRecentFailureTime returns the newest failure for email since the given
// time, or nil when there is none
func (r *LoginAttemptRepository) GetRecentFailureTime(ctx context.Context, email string, since time.Time) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = normalizeEmail(email)
	var latest *time.Time
	for i := range r.attempts {
		a := r.attempts[i]
		if a.Email != email || a.Success || a.AttemptTime.Before(since) {
			continue
		}
		if latest == nil || a.AttemptTime.After(*latest) {
			t := a.AttemptTime
			latest = &t
		}
	}
	return latest, nil
}

// GetFailedAttemptCountByIP counts failures from an IP since the given time
func (r *LoginAttemptRepository) GetFailedAttemptCountByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.attempts {
		if a.IPAddress == ipAddress && !a.Success && !a.AttemptTime.Before(since) {
			count++
		}
	}
	return count, nil
}

// DeleteExpiredAttempts drops attempts past their expiry and reports how many
func (r *LoginAttemptRepository) DeleteExpiredAttempts(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	kept := r.attempts[:0]
	var removed int64
	for _, a := range r.attempts {
		if !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	r.attempts = kept
	return removed, nil
}
