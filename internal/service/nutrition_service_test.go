package service

import (
	"testing"
	"time"

	"coastalfit/coach-app/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNutritionService_ClientLogsOwnPlan(t *testing.T) {
	f := newFixture(t)
	svc := NewNutritionService(f.base(), f.nutrition)

	plan, err := svc.CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{
		Protein: floatPtr(150), Carbs: floatPtr(200), Fat: floatPtr(60), Calories: floatPtr(2000),
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, plan.Protein.Target)

	f.advance(time.Hour)
	plan, err = svc.LogDay(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Protein: floatPtr(120), Calories: floatPtr(1800)}, "rest day", nil)
	require.NoError(t, err)
	require.Len(t, plan.DailyLogs, 1)
	assert.Equal(t, 120.0, plan.Protein.Current)
	assert.Equal(t, 30.0, plan.Protein.Remaining())
	assert.Equal(t, 0.0, plan.Carbs.Current)
	assert.Equal(t, f.client.ID, plan.DailyLogs[0].LoggedBy)
	assert.True(t, f.clock.Equal(plan.DailyLogs[0].Date))

	yesterday := f.clock.AddDate(0, 0, -1)
	plan, err = svc.LogDay(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Carbs: floatPtr(180)}, "", &yesterday)
	require.NoError(t, err)
	require.Len(t, plan.DailyLogs, 2)
	assert.Equal(t, 120.0, plan.Protein.Current)
	assert.Equal(t, 180.0, plan.Carbs.Current)
	assert.True(t, yesterday.Equal(plan.DailyLogs[1].Date))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.CounterNutritionLogs))
}

func TestNutritionService_ClientCannotChangeTargets(t *testing.T) {
	f := newFixture(t)
	svc := NewNutritionService(f.base(), f.nutrition)

	_, err := svc.CreatePlan(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Protein: floatPtr(100)})
	assertKind(t, domain.KindForbidden, err)

	_, err = svc.CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{Protein: floatPtr(100)})
	require.NoError(t, err)
	_, err = svc.UpdateTargets(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Protein: floatPtr(10)})
	assertKind(t, domain.KindForbidden, err)

	plan, err := svc.UpdateTargets(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{Fat: floatPtr(70)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, plan.Protein.Target)
	assert.Equal(t, 70.0, plan.Fat.Target)
}

func TestNutritionService_Errors(t *testing.T) {
	f := newFixture(t)
	svc := NewNutritionService(f.base(), f.nutrition)

	_, err := svc.LogDay(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Protein: floatPtr(10)}, "", nil)
	assertKind(t, domain.KindNotFound, err)

	_, err = svc.CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{})
	assertKind(t, domain.KindValidation, err)
	_, err = svc.CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{Calories: floatPtr(2000)})
	require.NoError(t, err)
	_, err = svc.CreatePlan(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{Calories: floatPtr(2000)})
	assertKind(t, domain.KindConflict, err)
	_, err = svc.UpdateTargets(f.ctx, as(f.specialist), f.client.ID, domain.MacroValues{})
	assertKind(t, domain.KindValidation, err)

	_, err = svc.LogDay(f.ctx, as(f.client), f.client.ID, domain.MacroValues{}, "", nil)
	assertKind(t, domain.KindValidation, err)
	_, err = svc.LogDay(f.ctx, as(f.client), f.client.ID, domain.MacroValues{Fat: floatPtr(-1)}, "", nil)
	assertKind(t, domain.KindValidation, err)
	_, err = svc.LogDay(f.ctx, as(f.otherClient), f.client.ID, domain.MacroValues{Fat: floatPtr(1)}, "", nil)
	assertKind(t, domain.KindForbidden, err)

	assertKind(t, domain.KindForbidden, svc.DeletePlan(f.ctx, as(f.client), f.client.ID))
	require.NoError(t, svc.DeletePlan(f.ctx, as(f.specialist), f.client.ID))
	_, err = svc.GetPlan(f.ctx, as(f.client), f.client.ID)
	assertKind(t, domain.KindNotFound, err)
}
