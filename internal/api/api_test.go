package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/metrics"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/repository/memory"
	"coastalfit/coach-app/internal/service"
	"coastalfit/coach-app/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	metrics *metrics.Manager
	users   *memory.UserRepository

	specialistToken string
	clientToken     string
	adminToken      string
	client          *domain.User
	specialist      *domain.User
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepository()
	workouts := memory.NewWorkoutRepository()
	goals := memory.NewGoalRepository()
	measurements := memory.NewMeasurementRepository()
	nutrition := memory.NewNutritionRepository()
	m, reg := metrics.NewTestManagerAndRegistry()
	base := service.Base{Users: users, Notifier: notify.NewRecorder(), Metrics: m}
	auth := service.NewAuthService(users, nil, notify.NewRecorder(), "api-test-secret", time.Hour)

	s := &testServer{t: t, metrics: m, users: users}
	s.router = NewRouter(Services{
		Auth: auth,
		Users: service.NewUserService(base, service.ClientData{
			Workouts: workouts, Goals: goals, Measurements: measurements, Nutrition: nutrition,
		}, storage.NewMemoryStorage(), 0),
		Workouts:     service.NewWorkoutService(base, workouts),
		Goals:        service.NewGoalService(base, goals),
		Nutrition:    service.NewNutritionService(base, nutrition),
		Measurements: service.NewMeasurementService(base, measurements),
		Catalog:      service.NewCatalogService(base, memory.NewCatalogRepository()),
	}, RouterOptions{
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	add := func(email string, role domain.Role) (*domain.User, string) {
		u := &domain.User{Name: email, Email: email, PasswordHash: string(hash), Roles: domain.Roles{role}}
		_, err := users.Create(ctx, u)
		require.NoError(t, err)
		token, _, err := auth.Login(ctx, email, testPassword)
		require.NoError(t, err)
		return u, token
	}
	s.specialist, s.specialistToken = add("coach@example.com", domain.RoleSpecialist)
	s.client, s.clientToken = add("client@example.com", domain.RoleClient)
	_, s.adminToken = add("admin@example.com", domain.RoleAdmin)
	return s
}

type testResponse struct {
	Code    int             `json:"-"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

func (s *testServer) do(method, path, token string, body any) testResponse {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	resp := testResponse{Code: rr.Code}
	if rr.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	}
	return resp
}

func (r testResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

func (s *testServer) link() {
	resp := s.do(http.MethodPost, "/api/v1/clients/"+s.client.ID.Hex()+"/specialists/"+s.specialist.ID.Hex(), s.adminToken, nil)
	require.Equal(s.t, http.StatusOK, resp.Code)
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.KindUnauthorized, resp.Error.Kind)

	resp = s.do(http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do(http.MethodGet, "/api/v1/me", s.clientToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var me UserResponse
	resp.decode(t, &me)
	assert.Equal(t, s.client.ID.Hex(), me.ID)
	assert.Equal(t, []string{"client"}, me.Roles)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Name: "New", Email: "new@example.com", Password: testPassword})
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = s.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Name: "New", Email: "new@example.com", Password: testPassword})
	assert.Equal(t, http.StatusConflict, resp.Code)
	resp = s.do(http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Name: "New", Email: "broken", Password: testPassword})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, domain.KindValidation, resp.Error.Kind)

	resp = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "new@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, resp.Code)
	var login LoginResponse
	resp.decode(t, &login)
	assert.NotEmpty(t, login.Token)

	resp = s.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "new@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestWorkoutSessionOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.link()

	resp := s.do(http.MethodPost, "/api/v1/clients/"+s.client.ID.Hex()+"/workouts", s.specialistToken, map[string]any{
		"name": "Lower body",
		"exercises": []map[string]any{
			{"name": "Squat", "sets": 3, "reps": "8-12", "weight": 20},
			{"name": "Lunge", "sets": 2, "reps": 10},
		},
	})
	require.Equal(t, http.StatusCreated, resp.Code, string(resp.Data))
	var w WorkoutResponse
	resp.decode(t, &w)
	assert.Equal(t, 600.0, w.TotalVolume)
	assert.Equal(t, 2, w.ExerciseCount)
	assert.Equal(t, domain.WorkoutScheduled, w.Status)
	id := w.ID.Hex()

	resp = s.do(http.MethodPost, "/api/v1/workouts/"+id+"/start", s.clientToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(http.MethodPost, "/api/v1/workouts/"+id+"/exercises/0/sets", s.clientToken, RecordSetRequest{Reps: 10, Weight: 50, Difficulty: 3})
	require.Equal(t, http.StatusOK, resp.Code)
	resp.decode(t, &w)
	assert.True(t, w.Exercises[0].Completed)
	assert.False(t, w.Exercises[1].Completed)

	mood := 4
	resp = s.do(http.MethodPost, "/api/v1/workouts/"+id+"/complete", s.clientToken, CompleteWorkoutRequest{MoodFeedback: &mood})
	require.Equal(t, http.StatusOK, resp.Code)
	resp.decode(t, &w)
	assert.Equal(t, domain.WorkoutCompleted, w.Status)
	require.NotNil(t, w.MoodFeedback)
	assert.Equal(t, 4, *w.MoodFeedback)
	assert.NotNil(t, w.CompletedAt)

	resp = s.do(http.MethodPost, "/api/v1/workouts/"+id+"/exercises/0/sets", s.clientToken, RecordSetRequest{Reps: 10, Weight: 50, Difficulty: 3})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = s.do(http.MethodGet, "/api/v1/clients/"+s.client.ID.Hex()+"/workouts/stats", s.clientToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats domain.WorkoutStats
	resp.decode(t, &stats)
	assert.Equal(t, 100.0, stats.CompletionRate)

	resp = s.do(http.MethodPost, "/api/v1/workouts/"+id+"/clone", s.specialistToken, nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp.decode(t, &w)
	assert.Equal(t, domain.WorkoutScheduled, w.Status)

	resp = s.do(http.MethodPost, "/api/v1/workouts/not-an-id/start", s.clientToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestClientGoalAndNutritionRights(t *testing.T) {
	s := newTestServer(t)
	s.link()
	clientPath := "/api/v1/clients/" + s.client.ID.Hex()

	resp := s.do(http.MethodPost, clientPath+"/goals", s.specialistToken, map[string]any{
		"name": "Bench 80kg", "target": 80, "current": 60, "deadline": time.Now().AddDate(0, 2, 0),
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var goal GoalResponse
	resp.decode(t, &goal)

	resp = s.do(http.MethodPatch, "/api/v1/goals/"+goal.ID.Hex(), s.clientToken, map[string]any{"target": 10})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, domain.KindForbidden, resp.Error.Kind)

	resp = s.do(http.MethodPost, "/api/v1/goals/"+goal.ID.Hex()+"/progress", s.clientToken, map[string]any{"value": 80})
	require.Equal(t, http.StatusOK, resp.Code)
	resp.decode(t, &goal)
	assert.True(t, goal.Completed)
	assert.Equal(t, 100.0, goal.ProgressPercent)

	resp = s.do(http.MethodPost, clientPath+"/nutrition/logs", s.clientToken, map[string]any{"protein": 100})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(http.MethodPost, clientPath+"/nutrition", s.specialistToken, map[string]any{"protein": 150, "calories": 2200})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = s.do(http.MethodPost, clientPath+"/nutrition/logs", s.clientToken, map[string]any{"protein": 100, "notes": "ok"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var plan NutritionPlanResponse
	resp.decode(t, &plan)
	assert.Len(t, plan.DailyLogs, 1)
	assert.Equal(t, 50.0, plan.Remaining["protein"])

	resp = s.do(http.MethodPatch, clientPath+"/nutrition", s.clientToken, map[string]any{"protein": 1})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestMeasurementStatsWithoutData(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/api/v1/clients/"+s.client.ID.Hex()+"/measurements/stats", s.clientToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats MeasurementStatsResponse
	resp.decode(t, &stats)
	assert.False(t, stats.HasData)
	assert.Nil(t, stats.Stats)
}

func TestRelationsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/api/v1/clients/"+s.client.ID.Hex()+"/specialists/"+s.specialist.ID.Hex(), s.specialistToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	s.link()
	resp = s.do(http.MethodGet, "/api/v1/specialists/"+s.specialist.ID.Hex()+"/clients", s.specialistToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var clients []UserResponse
	resp.decode(t, &clients)
	require.Len(t, clients, 1)
	assert.Equal(t, []string{s.specialist.ID.Hex()}, clients[0].SpecialistIDs)

	resp = s.do(http.MethodDelete, "/api/v1/clients/"+s.client.ID.Hex()+"/specialists/"+s.specialist.ID.Hex(), s.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var client UserResponse
	resp.decode(t, &client)
	assert.Empty(t, client.SpecialistIDs)
}

func TestCatalogOverHTTP(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/api/v1/exercises", s.clientToken, CatalogExerciseRequest{Name: "Push-up"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = s.do(http.MethodPost, "/api/v1/exercises", s.specialistToken, CatalogExerciseRequest{Name: "Push-up", Category: "Chest"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = s.do(http.MethodGet, "/api/v1/exercises?category=chest", s.clientToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []ExerciseResponse
	resp.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, s.specialist.ID.Hex(), list[0].AuthorID)
}

func TestAdminListUsersRejectsUnknownRole(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/api/v1/admin/users?role=wizard", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = s.do(http.MethodGet, "/api/v1/admin/users?role=client", s.clientToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	resp = s.do(http.MethodGet, "/api/v1/admin/users?role=client", s.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var users []UserResponse
	resp.decode(t, &users)
	assert.Len(t, users, 1)
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	for _, debug := range []bool{false, true} {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
		c.Set(contextDebugErrorsKey, debug)

		respondError(c, errors.New("mongo: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		if debug {
			assert.Contains(t, rr.Body.String(), "connection refused")
		} else {
			assert.NotContains(t, rr.Body.String(), "connection refused")
			assert.Contains(t, rr.Body.String(), "internal server error")
		}
	}
}

func TestPanicRecoveryAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/boom", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterHandleRequestPanic))

	s.do(http.MethodGet, "/api/v1/me", s.clientToken, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterRequests.WithLabelValues(http.MethodGet, "200")))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "coach_test_server_request")
}
