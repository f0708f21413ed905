package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"collabtrack/internal/apperr"
	"collabtrack/internal/model"
	"collabtrack/internal/service"
)

func newTimerService(ss *fakeSessionStore, ms *fakeMilestoneStore, comp *fakeCompensationSource) *service.TimeTrackingService {
	return service.NewTimeTrackingService(ss, ms, comp, zap.NewNop())
}

func TestStart(t *testing.T) {
	ss := newFakeSessionStore(7)
	svc := newTimerService(ss, newFakeMilestoneStore(), &fakeCompensationSource{})

	session, err := svc.Start(context.Background(), 3, 1, "drafting captions")
	require.NoError(t, err)

	assert.Equal(t, 3, session.ActorID)
	assert.Equal(t, 1, session.MilestoneID)
	assert.True(t, session.IsActive)
}

func TestStart_Validation(t *testing.T) {
	svc := newTimerService(newFakeSessionStore(7), newFakeMilestoneStore(), &fakeCompensationSource{})

	_, err := svc.Start(context.Background(), 0, 1, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Start(context.Background(), 3, 0, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// 同一 actor 的第二个计时器被拒，换里程碑也一样
func TestStart_SecondTimerConflicts(t *testing.T) {
	ss := newFakeSessionStore(7)
	svc := newTimerService(ss, newFakeMilestoneStore(), &fakeCompensationSource{})

	_, err := svc.Start(context.Background(), 3, 1, "")
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), 3, 2, "")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestStart_DifferentActorsAllowed(t *testing.T) {
	ss := newFakeSessionStore(7)
	svc := newTimerService(ss, newFakeMilestoneStore(), &fakeCompensationSource{})

	_, err := svc.Start(context.Background(), 3, 1, "")
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), 4, 1, "")
	assert.NoError(t, err)
}

func TestStop_ReturnsSessionAndSnapshot(t *testing.T) {
	ss := newFakeSessionStore(7)
	ms := newFakeMilestoneStore()
	svc := newTimerService(ss, ms, &fakeCompensationSource{
		comp: &model.ProposalCompensation{ProposalID: 7, Compensation: 360, Currency: "USD"},
	})

	started, err := svc.Start(context.Background(), 3, 1, "")
	require.NoError(t, err)

	session, snapshot, err := svc.Stop(context.Background(), started.ID)
	require.NoError(t, err)

	assert.False(t, session.IsActive)
	require.NotNil(t, session.DurationSeconds)
	assert.Equal(t, int64(3600), *session.DurationSeconds)

	require.NotNil(t, snapshot)
	assert.Equal(t, int64(3600), snapshot.TotalTimeSpentSeconds)
	assert.InDelta(t, 360.0, snapshot.HourlyRate, 1e-9)
}

func TestStop_AlreadyStopped(t *testing.T) {
	ss := newFakeSessionStore(7)
	svc := newTimerService(ss, newFakeMilestoneStore(), &fakeCompensationSource{})

	started, err := svc.Start(context.Background(), 3, 1, "")
	require.NoError(t, err)

	_, _, err = svc.Stop(context.Background(), started.ID)
	require.NoError(t, err)

	_, _, err = svc.Stop(context.Background(), started.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestStop_NotFound(t *testing.T) {
	svc := newTimerService(newFakeSessionStore(7), newFakeMilestoneStore(), &fakeCompensationSource{})

	_, _, err := svc.Stop(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// 没有活跃会话不是错误，返回 nil
func TestGetActive_NoneIsNil(t *testing.T) {
	svc := newTimerService(newFakeSessionStore(7), newFakeMilestoneStore(), &fakeCompensationSource{})

	session, err := svc.GetActive(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGetActive(t *testing.T) {
	ss := newFakeSessionStore(7)
	svc := newTimerService(ss, newFakeMilestoneStore(), &fakeCompensationSource{})

	started, err := svc.Start(context.Background(), 3, 1, "")
	require.NoError(t, err)

	session, err := svc.GetActive(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, started.ID, session.ID)
	assert.True(t, session.IsActive)
}
