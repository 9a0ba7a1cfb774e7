package service

import (
	"testing"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) goalDraft(target, current float64) domain.GoalDraft {
	return domain.GoalDraft{
		Name:     "Squat 100kg",
		ClientID: f.client.ID,
		Target:   target,
		Current:  current,
		Unit:     "kg",
		Deadline: f.clock.AddDate(0, 3, 0),
	}
}

func TestGoalService_ProgressCompletesOnce(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.base(), f.goals)

	g, err := svc.Create(f.ctx, as(f.specialist), f.goalDraft(100, 60))
	require.NoError(t, err)
	assert.False(t, g.Completed)
	assert.Equal(t, f.specialist.ID, g.AssignedBy)

	f.advance(24 * time.Hour)
	g, err = svc.RecordProgress(f.ctx, as(f.client), g.ID, 80, "getting there")
	require.NoError(t, err)
	assert.False(t, g.Completed)
	assert.Nil(t, g.CompletedDate)

	f.advance(24 * time.Hour)
	reachedAt := f.clock
	g, err = svc.RecordProgress(f.ctx, as(f.client), g.ID, 100, "")
	require.NoError(t, err)
	assert.True(t, g.Completed)
	require.NotNil(t, g.CompletedDate)
	assert.True(t, reachedAt.Equal(*g.CompletedDate))
	assert.Len(t, g.ProgressHistory, 2)

	// dropping below target keeps the goal completed with the original date
	f.advance(24 * time.Hour)
	g, err = svc.RecordProgress(f.ctx, as(f.client), g.ID, 90, "")
	require.NoError(t, err)
	assert.True(t, g.Completed)
	assert.True(t, reachedAt.Equal(*g.CompletedDate))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterGoalsCompleted))
	completed := 0
	for _, typ := range f.notifier.Types() {
		if typ == notify.EventGoalCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestGoalService_CreateAlreadyReached(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.base(), f.goals)

	g, err := svc.Create(f.ctx, as(f.specialist), f.goalDraft(10, 10))
	require.NoError(t, err)
	assert.True(t, g.Completed)
	require.NotNil(t, g.CompletedDate)
	assert.True(t, f.clock.Equal(*g.CompletedDate))
}

func TestGoalService_ClientCannotChangeTarget(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.base(), f.goals)
	g, err := svc.Create(f.ctx, as(f.specialist), f.goalDraft(100, 0))
	require.NoError(t, err)

	_, err = svc.Update(f.ctx, as(f.client), g.ID, domain.GoalUpdate{Target: floatPtr(1)})
	assertKind(t, domain.KindForbidden, err)
	assertKind(t, domain.KindForbidden, svc.Delete(f.ctx, as(f.client), g.ID))

	stored, err := f.goals.GetByID(f.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Target)

	// lowering the target below current completes the goal
	_, err = svc.RecordProgress(f.ctx, as(f.client), g.ID, 50, "")
	require.NoError(t, err)
	g, err = svc.Update(f.ctx, as(f.specialist), g.ID, domain.GoalUpdate{Target: floatPtr(50)})
	require.NoError(t, err)
	assert.True(t, g.Completed)
}

func TestGoalService_Authorization(t *testing.T) {
	f := newFixture(t)
	svc := NewGoalService(f.base(), f.goals)

	_, err := svc.Create(f.ctx, as(f.client), f.goalDraft(100, 0))
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.Create(f.ctx, as(f.otherSpecialist), f.goalDraft(100, 0))
	assertKind(t, domain.KindForbidden, err)

	draft := f.goalDraft(100, 0)
	draft.Deadline = time.Time{}
	_, err = svc.Create(f.ctx, as(f.specialist), draft)
	assertKind(t, domain.KindValidation, err)

	g, err := svc.Create(f.ctx, as(f.specialist), f.goalDraft(100, 0))
	require.NoError(t, err)
	_, err = svc.RecordProgress(f.ctx, as(f.otherClient), g.ID, 10, "")
	assertKind(t, domain.KindForbidden, err)
	_, err = svc.Get(f.ctx, as(f.otherSpecialist), g.ID)
	assertKind(t, domain.KindForbidden, err)

	goals, err := svc.ListForClient(f.ctx, as(f.client), f.client.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	require.NoError(t, svc.Delete(f.ctx, as(f.specialist), g.ID))
	_, err = svc.Get(f.ctx, as(f.specialist), g.ID)
	assertKind(t, domain.KindNotFound, err)
}
