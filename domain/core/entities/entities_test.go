package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestConsumeIterationsEnforcesQuota(t *testing.T) {
	u, err := NewUser("user-1", "a@example.com", now)
	require.NoError(t, err)
	require.Equal(t, 10, u.IterationLimit)

	require.NoError(t, u.ConsumeIterations(9, now))
	err = u.ConsumeIterations(2, now)
	assert.True(t, pkgerrors.IsRateLimit(err))
	assert.Equal(t, 9, u.IterationsUsed, "failed consumption leaves the counter untouched")

	require.NoError(t, u.ConsumeIterations(1, now))
	assert.Equal(t, 0, u.Usage(now).Remaining)
}

func TestConsumeIterationsResetsMonthly(t *testing.T) {
	u, err := NewUser("user-1", "a@example.com", now)
	require.NoError(t, err)
	require.NoError(t, u.ConsumeIterations(10, now))

	later := time.Date(2025, time.April, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, 0, u.Usage(later).Used)

	require.NoError(t, u.ConsumeIterations(3, later))
	assert.Equal(t, 3, u.IterationsUsed)
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), u.UsageResetAt)
}

func TestBYOKBypassesQuota(t *testing.T) {
	u, err := NewUser("user-1", "a@example.com", now)
	require.NoError(t, err)
	u.SetBYOK("openai", "sealed", "********abcd", now)

	require.NoError(t, u.ConsumeIterations(50, now))
	assert.Equal(t, 50, u.IterationsUsed)
	assert.True(t, u.Usage(now).BYOK)

	u.RemoveBYOK(now)
	assert.True(t, pkgerrors.IsRateLimit(u.ConsumeIterations(1, now)))
}

func TestApplyAndCancelSubscription(t *testing.T) {
	u, err := NewUser("user-1", "a@example.com", now)
	require.NoError(t, err)

	require.NoError(t, u.ApplySubscription(valueobjects.PlanPro, "sub_1", "active", now))
	assert.Equal(t, 100, u.IterationLimit)
	assert.Len(t, u.GetUncommittedEvents(), 1)

	u.CancelSubscription(now)
	assert.Equal(t, valueobjects.PlanFree, u.Plan)
	assert.Equal(t, 10, u.IterationLimit)
	assert.Empty(t, u.SubscriptionID)

	assert.True(t, pkgerrors.IsValidation(u.ApplySubscription("gold", "sub_2", "active", now)))
}

func TestInterviewProgressDrivesStatus(t *testing.T) {
	iv, err := NewInterview("user-1", InterviewDetails{JobTitle: "Frontend Engineer"}, nil, now)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.InterviewStatusUpcoming, iv.Status)

	tests := []struct {
		percent  int
		progress int
		status   valueobjects.InterviewStatus
	}{
		{0, 0, valueobjects.InterviewStatusUpcoming},
		{1, 1, valueobjects.InterviewStatusActive},
		{99, 99, valueobjects.InterviewStatusActive},
		{100, 100, valueobjects.InterviewStatusCompleted},
		{150, 100, valueobjects.InterviewStatusCompleted},
		{-5, 0, valueobjects.InterviewStatusUpcoming},
	}
	for _, tt := range tests {
		iv.UpdateProgress(tt.percent, now)
		assert.Equal(t, tt.progress, iv.Progress, "percent %d", tt.percent)
		assert.Equal(t, tt.status, iv.Status, "percent %d", tt.percent)
	}
}

func TestInterviewUpdateStatus(t *testing.T) {
	iv, err := NewInterview("user-1", InterviewDetails{JobTitle: "SRE"}, nil, now)
	require.NoError(t, err)

	require.NoError(t, iv.UpdateStatus(valueobjects.InterviewStatusActive, now))
	assert.Equal(t, 1, iv.Progress)

	require.NoError(t, iv.UpdateStatus(valueobjects.InterviewStatusCompleted, now))
	assert.Equal(t, 100, iv.Progress)

	require.NoError(t, iv.UpdateStatus(valueobjects.InterviewStatusActive, now))
	assert.Equal(t, 99, iv.Progress)
	assert.Equal(t, iv.Status, valueobjects.InterviewStatusForProgress(iv.Progress))

	iv.UpdateProgress(40, now)
	require.NoError(t, iv.UpdateStatus(valueobjects.InterviewStatusUpcoming, now))
	require.NoError(t, iv.UpdateStatus(valueobjects.InterviewStatusActive, now))
	assert.Equal(t, 1, iv.Progress)

	assert.True(t, pkgerrors.IsValidation(iv.UpdateStatus("cancelled", now)))

	_, err = NewInterview("user-1", InterviewDetails{JobTitle: "  "}, nil, now)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestVisibilityAuditEntry(t *testing.T) {
	before := &VisibilitySetting{EntityType: valueobjects.EntityTypeJourney, EntityID: "j1", IsPublic: true}
	after := VisibilitySetting{EntityType: valueobjects.EntityTypeJourney, EntityID: "j1", IsPublic: false, UpdatedAt: now}

	entry := NewVisibilityAuditEntry("admin-1", before, after)
	require.NotNil(t, entry.Before)
	assert.True(t, *entry.Before)
	assert.False(t, entry.After)
	assert.Equal(t, AuditActionSetVisibility, entry.Action)

	first := NewVisibilityAuditEntry("admin-1", nil, after)
	assert.Nil(t, first.Before)
}
