package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/persistence/memory"
	pkgerrors "prepcoach/pkg/errors"
)

type countingUsers struct {
	*memory.UserRepository
	gets int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*entities.User, error) {
	c.gets++
	return c.UserRepository.GetByID(ctx, id)
}

func TestGetOrCreateMemoizesWithinRequest(t *testing.T) {
	repo := &countingUsers{UserRepository: memory.NewUserRepository()}
	svc := NewUserService(repo, nil, zap.NewNop())
	actor := ports.Actor{UserID: "u1", Email: "u1@example.com"}

	ctx := WithUserMemo(context.Background())
	first, err := svc.GetOrCreate(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanFree, first.Plan)

	second, err := svc.GetOrCreate(ctx, actor)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.gets)

	_, err = svc.GetOrCreate(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
}

func TestGetOrCreateRequiresUser(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), nil, zap.NewNop())
	_, err := svc.GetOrCreate(context.Background(), ports.Actor{})
	assert.True(t, pkgerrors.IsAuthentication(err))
}
