package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterWorkoutEvents      *prometheus.CounterVec // created, started, set_recorded, completed, cloned
	CounterGoalsCompleted     prometheus.Counter
	CounterNutritionLogs      prometheus.Counter
	CounterNotifyFailures     prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("coach", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("coach", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterWorkoutEvents := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_events",
		Help:      "Workout lifecycle transitions by kind",
	}, []string{"event"})
	counterGoalsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "goals_completed",
		Help:      "The total number of goals that reached their target",
	})
	counterNutritionLogs := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "nutrition_logs",
		Help:      "The total number of appended nutrition daily logs",
	})
	counterNotifyFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notify_failures",
		Help:      "Notifications that could not be published",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterWorkoutEvents:      counterWorkoutEvents,
		CounterGoalsCompleted:     counterGoalsCompleted,
		CounterNutritionLogs:      counterNutritionLogs,
		CounterNotifyFailures:     counterNotifyFailures,
		GaugeRequests:             gaugeRequests,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}

// WorkoutEvent counts a workout transition. Safe on a nil manager.
func (m *Manager) WorkoutEvent(event string) {
	if m == nil {
		return
	}
	m.CounterWorkoutEvents.WithLabelValues(event).Inc()
}

func (m *Manager) GoalCompleted() {
	if m == nil {
		return
	}
	m.CounterGoalsCompleted.Inc()
}

func (m *Manager) NutritionLogged() {
	if m == nil {
		return
	}
	m.CounterNutritionLogs.Inc()
}

func (m *Manager) NotifyFailed() {
	if m == nil {
		return
	}
	m.CounterNotifyFailures.Inc()
}
