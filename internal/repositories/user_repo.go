package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/models"
)

// UserRepository keeps dashboard accounts in memory, indexed by ID and
// lowercased email.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

// Create stores a new user, assigning ID and timestamps. Emails are unique.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, models.ErrConflict
	}

	now := r.now()
	created := *user
	created.ID = uuid.New().String()
	created.Email = email
	if created.Status == "" {
		created.Status = models.StatusActive
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.byID[created.ID] = &created
	r.byEmail[email] = created.ID

	result := created
	return &result, nil
}

// TouchLastLogin records a successful login time.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	user.LastLoginAt = &at
	user.UpdatedAt = at
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
