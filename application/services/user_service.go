package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/core/entities"
	pkgerrors "prepcoach/pkg/errors"
)

type userMemoKey struct{}

// userMemo caches user lookups for the lifetime of one request
type userMemo struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

// WithUserMemo installs a per-request user cache in ctx
func WithUserMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(userMemoKey{}).(*userMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, userMemoKey{}, &userMemo{users: make(map[string]*entities.User)})
}

func memoFrom(ctx context.Context) *userMemo {
	m, _ := ctx.Value(userMemoKey{}).(*userMemo)
	return m
}

// UserService loads and persists accounts
type UserService struct {
	repo       ports.UserRepository
	dispatcher *EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewUserService creates a user service
func NewUserService(repo ports.UserRepository, dispatcher *EventDispatcher, logger *zap.Logger) *UserService {
	return &UserService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// GetOrCreate returns the account for an authenticated identity, creating a
// free-plan account on first sight. Within a request carrying a memo the
// store is consulted once per user.
func (s *UserService) GetOrCreate(ctx context.Context, actor ports.Actor) (*entities.User, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}

	memo := memoFrom(ctx)
	if memo != nil {
		memo.mu.Lock()
		defer memo.mu.Unlock()
		if u, ok := memo.users[actor.UserID]; ok {
			return u, nil
		}
	}

	user, err := s.repo.GetByID(ctx, actor.UserID)
	switch {
	case err == nil:
	case pkgerrors.IsNotFound(err):
		user, err = s.create(ctx, actor)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if memo != nil {
		memo.users[user.ID] = user
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, actor ports.Actor) (*entities.User, error) {
	user, err := entities.NewUser(actor.UserID, actor.Email, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		if pkgerrors.IsConflict(err) {
			return s.repo.GetByID(ctx, actor.UserID)
		}
		return nil, err
	}
	s.logger.Info("User created", zap.String("user_id", user.ID))
	return user, nil
}

// Save persists a user, dispatches its events and refreshes the request memo
func (s *UserService) Save(ctx context.Context, user *entities.User) error {
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, user.ID, user)
	}
	if memo := memoFrom(ctx); memo != nil {
		memo.mu.Lock()
		memo.users[user.ID] = user
		memo.mu.Unlock()
	}
	return nil
}

// Now returns the service clock
func (s *UserService) Now() time.Time {
	return s.now()
}
