package memory

import (
	"context"
	"sort"
	"sync"

	"prepcoach/domain/core/entities"
	pkgerrors "prepcoach/pkg/errors"
)

// UserRepository keeps accounts in memory
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entities.User
}

// NewUserRepository creates an empty repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entities.User)}
}

// Save stores a user with an optimistic version check
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.users[user.ID]
	if err := checkVersion(exists, stored.Version, user.Version, "user"); err != nil {
		return err
	}

	user.Version++
	cp := *user
	cp.MarkEventsAsCommitted()
	if user.BYOK != nil {
		byok := *user.BYOK
		cp.BYOK = &byok
	}
	r.users[user.ID] = cp
	return nil
}

// GetByID returns a user or NOT_FOUND
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return &u, nil
}

// GetByCustomerID returns the user linked to a billing customer or NOT_FOUND
func (r *UserRepository) GetByCustomerID(ctx context.Context, customerID string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.StripeCustomerID == customerID {
			u := u
			return &u, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("user")
}

// InterviewRepository keeps interviews in memory
type InterviewRepository struct {
	mu         sync.RWMutex
	interviews map[string]entities.Interview
}

// NewInterviewRepository creates an empty repository
func NewInterviewRepository() *InterviewRepository {
	return &InterviewRepository{interviews: make(map[string]entities.Interview)}
}

// Save stores an interview with an optimistic version check
func (r *InterviewRepository) Save(ctx context.Context, interview *entities.Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.interviews[interview.ID]
	if exists && stored.UserID != interview.UserID {
		return pkgerrors.NewNotFoundError("interview")
	}
	if err := checkVersion(exists, stored.Version, interview.Version, "interview"); err != nil {
		return err
	}

	interview.Version++
	cp := *interview
	cp.MarkEventsAsCommitted()
	r.interviews[interview.ID] = cp
	return nil
}

// Get returns an interview owned by userID. Other users' interviews are NOT_FOUND.
func (r *InterviewRepository) Get(ctx context.Context, userID, id string) (*entities.Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	iv, ok := r.interviews[id]
	if !ok || iv.UserID != userID {
		return nil, pkgerrors.NewNotFoundError("interview")
	}
	return &iv, nil
}

// ListByUser returns a user's interviews, newest first
func (r *InterviewRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Interview, error) {
	r.mu.RLock()
	var out []*entities.Interview
	for _, iv := range r.interviews {
		if iv.UserID == userID {
			iv := iv
			out = append(out, &iv)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
