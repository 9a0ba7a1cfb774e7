package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_DomainCounters(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.WorkoutEvent("completed")
	m.WorkoutEvent("completed")
	m.GoalCompleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterWorkoutEvents.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterGoalsCompleted))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestManager_NilSafe(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.WorkoutEvent("started")
		m.GoalCompleted()
		m.NutritionLogged()
		m.NotifyFailed()
	})
}
