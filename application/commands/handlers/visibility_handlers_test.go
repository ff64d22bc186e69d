package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/validators"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
)

type mockVisibilityRepo struct {
	mock.Mock
}

func (m *mockVisibilityRepo) Get(ctx context.Context, entityType valueobjects.EntityType, entityID string) (*entities.VisibilitySetting, error) {
	args := m.Called(ctx, entityType, entityID)
	s, _ := args.Get(0).(*entities.VisibilitySetting)
	return s, args.Error(1)
}

func (m *mockVisibilityRepo) List(ctx context.Context, entityType valueobjects.EntityType) ([]entities.VisibilitySetting, error) {
	args := m.Called(ctx, entityType)
	return args.Get(0).([]entities.VisibilitySetting), args.Error(1)
}

func (m *mockVisibilityRepo) SaveBatch(ctx context.Context, settings []entities.VisibilitySetting) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *mockVisibilityRepo) SaveAudited(ctx context.Context, settings []entities.VisibilitySetting, entries []entities.AuditLogEntry) error {
	return m.Called(ctx, settings, entries).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

func newVisibilityHandler(repo *mockVisibilityRepo, publisher ports.EventPublisher) *VisibilityHandler {
	logger := zap.NewNop()
	h := NewVisibilityHandler(repo, validators.NewInputValidator(nil), services.NewEventDispatcher(publisher, nil, logger), logger)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func updates(n int) []commands.VisibilityUpdate {
	out := make([]commands.VisibilityUpdate, n)
	for i := range out {
		out[i] = commands.VisibilityUpdate{
			EntityType: valueobjects.EntityTypeMilestone,
			EntityID:   "milestone-" + string(rune('a'+i)),
			IsPublic:   i%2 == 0,
		}
	}
	return out
}

func TestVisibilityWritesRequireAdmin(t *testing.T) {
	repo := &mockVisibilityRepo{}
	h := newVisibilityHandler(repo, nil)
	ctx := context.Background()
	member := ports.Actor{UserID: "user-1"}

	_, err := h.HandleSetVisibility(ctx, commands.SetVisibilityCommand{Actor: member, Update: updates(1)[0]})
	assert.True(t, pkgerrors.IsUnauthorized(err))

	_, err = h.HandleBatchSetVisibility(ctx, commands.BatchSetVisibilityCommand{Actor: member, Updates: updates(3)})
	assert.True(t, pkgerrors.IsUnauthorized(err))

	_, err = h.HandleBatchSetVisibility(ctx, commands.BatchSetVisibilityCommand{Updates: updates(3)})
	assert.True(t, pkgerrors.IsAuthentication(err))

	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SaveAudited", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchVisibilityWritesOneRecordAndAuditEntryPerUpdate(t *testing.T) {
	for _, n := range []int{1, 4, 10} {
		repo := &mockVisibilityRepo{}
		h := newVisibilityHandler(repo, nil)
		batch := updates(n)

		repo.On("Get", mock.Anything, valueobjects.EntityTypeMilestone, mock.Anything).Return(nil, nil)
		repo.On("SaveAudited", mock.Anything, mock.MatchedBy(func(s []entities.VisibilitySetting) bool {
			if len(s) != n {
				return false
			}
			for i := range s {
				if s[i].IsPublic != batch[i].IsPublic || s[i].EntityID != batch[i].EntityID || s[i].UpdatedBy != "admin-1" {
					return false
				}
			}
			return true
		}), mock.MatchedBy(func(e []entities.AuditLogEntry) bool {
			if len(e) != n {
				return false
			}
			for i := range e {
				if e[i].EntityID != batch[i].EntityID || e[i].After != batch[i].IsPublic {
					return false
				}
			}
			return true
		})).Return(nil).Once()

		result, err := h.HandleBatchSetVisibility(context.Background(), commands.BatchSetVisibilityCommand{
			Actor:   ports.Actor{UserID: "admin-1", IsAdmin: true},
			Updates: batch,
		})
		require.NoError(t, err)
		assert.Equal(t, n, result.Updated)

		repo.AssertExpectations(t)
	}
}

func TestEmptyBatchSkipsPersistence(t *testing.T) {
	repo := &mockVisibilityRepo{}
	h := newVisibilityHandler(repo, nil)

	result, err := h.HandleBatchSetVisibility(context.Background(), commands.BatchSetVisibilityCommand{
		Actor: ports.Actor{UserID: "admin-1", IsAdmin: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)

	repo.AssertNotCalled(t, "SaveAudited", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditEntryRecordsPreviousValue(t *testing.T) {
	repo := &mockVisibilityRepo{}
	h := newVisibilityHandler(repo, nil)

	previous := &entities.VisibilitySetting{EntityType: valueobjects.EntityTypeJourney, EntityID: "frontend", IsPublic: true}
	repo.On("Get", mock.Anything, valueobjects.EntityTypeJourney, "frontend").Return(previous, nil)
	var written []entities.AuditLogEntry
	repo.On("SaveAudited", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(2).([]entities.AuditLogEntry)
	}).Return(nil)

	_, err := h.HandleSetVisibility(context.Background(), commands.SetVisibilityCommand{
		Actor:  ports.Actor{UserID: "admin-1", IsAdmin: true},
		Update: commands.VisibilityUpdate{EntityType: valueobjects.EntityTypeJourney, EntityID: "frontend", IsPublic: false},
	})
	require.NoError(t, err)

	require.Len(t, written, 1)
	require.NotNil(t, written[0].Before)
	assert.True(t, *written[0].Before)
	assert.False(t, written[0].After)
	assert.Equal(t, "admin-1", written[0].ActorID)
}

func TestInvalidUpdateIsRejectedBeforeWrites(t *testing.T) {
	repo := &mockVisibilityRepo{}
	h := newVisibilityHandler(repo, nil)

	_, err := h.HandleSetVisibility(context.Background(), commands.SetVisibilityCommand{
		Actor:  ports.Actor{UserID: "admin-1", IsAdmin: true},
		Update: commands.VisibilityUpdate{EntityType: "course", EntityID: "x"},
	})
	assert.True(t, pkgerrors.IsValidation(err))
	repo.AssertNotCalled(t, "SaveAudited", mock.Anything, mock.Anything, mock.Anything)
}

func TestFailedAuditedWritePublishesNothing(t *testing.T) {
	repo := &mockVisibilityRepo{}
	publisher := &mockPublisher{}
	h := newVisibilityHandler(repo, publisher)

	repo.On("Get", mock.Anything, valueobjects.EntityTypeMilestone, mock.Anything).Return(nil, nil)
	repo.On("SaveAudited", mock.Anything, mock.Anything, mock.Anything).
		Return(pkgerrors.NewDatabaseError("transact write visibility", errors.New("canceled")))

	_, err := h.HandleBatchSetVisibility(context.Background(), commands.BatchSetVisibilityCommand{
		Actor:   ports.Actor{UserID: "admin-1", IsAdmin: true},
		Updates: updates(3),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	repo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSuccessfulWritePublishesOneEventPerUpdate(t *testing.T) {
	repo := &mockVisibilityRepo{}
	publisher := &mockPublisher{}
	h := newVisibilityHandler(repo, publisher)

	repo.On("Get", mock.Anything, valueobjects.EntityTypeMilestone, mock.Anything).Return(nil, nil)
	repo.On("SaveAudited", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(evts []events.DomainEvent) bool {
		return len(evts) == 2
	})).Return(nil).Once()

	_, err := h.HandleBatchSetVisibility(context.Background(), commands.BatchSetVisibilityCommand{
		Actor:   ports.Actor{UserID: "admin-1", IsAdmin: true},
		Updates: updates(2),
	})
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}
