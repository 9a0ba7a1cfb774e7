package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

// targetReps accepts either a JSON number (10) or a string ("8-12", "30s").
type targetReps string

func (r *targetReps) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*r = targetReps(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("reps must be a number or a string")
	}
	*r = targetReps(s)
	return nil
}

type PrescribedExerciseRequest struct {
	CatalogExerciseID string     `json:"catalogExerciseId" binding:"omitempty,len=24,hexadecimal"`
	Name              string     `json:"name" binding:"required"`
	Sets              int        `json:"sets" binding:"required,min=1"`
	Reps              targetReps `json:"reps" binding:"required"`
	Weight            float64    `json:"weight" binding:"min=0"`
	HoldTime          int        `json:"holdTime" binding:"min=0"`
	Notes             string     `json:"notes"`
	Grouping          string     `json:"grouping"`
	GroupID           string     `json:"groupId"`
}

func (r PrescribedExerciseRequest) toDomain() domain.PrescribedExercise {
	e := domain.PrescribedExercise{
		Name:     r.Name,
		Sets:     r.Sets,
		Reps:     string(r.Reps),
		Weight:   r.Weight,
		HoldTime: r.HoldTime,
		Notes:    r.Notes,
		Grouping: domain.Grouping(r.Grouping),
		GroupID:  r.GroupID,
	}
	if id, err := primitive.ObjectIDFromHex(r.CatalogExerciseID); err == nil {
		e.CatalogExerciseID = &id
	}
	return e
}

func exercisesToDomain(reqs []PrescribedExerciseRequest) []domain.PrescribedExercise {
	if reqs == nil {
		return nil
	}
	out := make([]domain.PrescribedExercise, len(reqs))
	for i, r := range reqs {
		out[i] = r.toDomain()
	}
	return out
}

type CreateWorkoutRequest struct {
	Name          string                      `json:"name" binding:"required"`
	ScheduledDate *time.Time                  `json:"scheduledDate"`
	Exercises     []PrescribedExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
	VideoLink     string                      `json:"videoLink"`
	RepeatWeekly  bool                        `json:"repeatWeekly"`
}

type UpdateWorkoutRequest struct {
	Name          *string                     `json:"name"`
	ScheduledDate *time.Time                  `json:"scheduledDate"`
	Exercises     []PrescribedExerciseRequest `json:"exercises" binding:"omitempty,min=1,dive"`
	VideoLink     *string                     `json:"videoLink"`
	RepeatWeekly  *bool                       `json:"repeatWeekly"`
}

type RecordSetRequest struct {
	Reps       int     `json:"reps" binding:"min=0"`
	Weight     float64 `json:"weight" binding:"min=0"`
	Difficulty int     `json:"difficulty" binding:"required,min=1,max=5"`
	PainLevel  *int    `json:"painLevel" binding:"omitempty,min=0,max=10"`
	Notes      string  `json:"notes"`
}

type CompleteWorkoutRequest struct {
	MoodFeedback     *int    `json:"moodFeedback" binding:"omitempty,min=1,max=5"`
	Notes            *string `json:"notes"`
	DurationMinutes  *int    `json:"duration" binding:"omitempty,min=0"`
	AveragePainLevel *int    `json:"averagePainLevel" binding:"omitempty,min=0,max=10"`
}

type CloneWorkoutRequest struct {
	ScheduledDate *time.Time `json:"scheduledDate"`
}

// WorkoutResponse is the stored workout plus its derived metrics.
type WorkoutResponse struct {
	*domain.Workout
	ExerciseCount int     `json:"exerciseCount"`
	TotalVolume   float64 `json:"totalVolume"`
	ActualVolume  float64 `json:"actualVolume"`
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		Workout:       w,
		ExerciseCount: w.ExerciseCount(),
		TotalVolume:   w.TotalVolume(),
		ActualVolume:  w.ActualVolume(),
	}
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	out := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		out[i] = MapWorkoutToResponse(&workouts[i])
	}
	return out
}

// --- Handlers ---

// CreateWorkout godoc
// @Summary Prescribe a workout for a client
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param workout body CreateWorkoutRequest true "Workout details"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} envelope "Validation error"
// @Failure 403 {object} envelope "Not the client's specialist"
// @Router /clients/{clientId}/workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req CreateWorkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	workout, err := h.workoutService.Create(c.Request.Context(), principal(c), domain.WorkoutDraft{
		Name:          req.Name,
		ClientID:      clientID,
		ScheduledDate: req.ScheduledDate,
		Exercises:     exercisesToDomain(req.Exercises),
		VideoLink:     req.VideoLink,
		RepeatWeekly:  req.RepeatWeekly,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapWorkoutToResponse(workout))
}

// @Router /clients/{clientId}/workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	workouts, err := h.workoutService.ListForClient(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutsToResponse(workouts))
}

// @Router /clients/{clientId}/workouts/stats [get]
func (h *WorkoutHandler) GetStats(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	stats, err := h.workoutService.Stats(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// @Router /workouts/{workoutId} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.workoutService.Get(c.Request.Context(), principal(c), workoutID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutToResponse(workout))
}

// @Router /workouts/{workoutId} [patch]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req UpdateWorkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	workout, err := h.workoutService.UpdatePrescription(c.Request.Context(), principal(c), workoutID, domain.PrescriptionUpdate{
		Name:          req.Name,
		ScheduledDate: req.ScheduledDate,
		Exercises:     exercisesToDomain(req.Exercises),
		VideoLink:     req.VideoLink,
		RepeatWeekly:  req.RepeatWeekly,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutToResponse(workout))
}

// @Router /workouts/{workoutId} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	if err := h.workoutService.Delete(c.Request.Context(), principal(c), workoutID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// @Router /workouts/{workoutId}/start [post]
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	workout, err := h.workoutService.Start(c.Request.Context(), principal(c), workoutID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutToResponse(workout))
}

// RecordSet godoc
// @Summary Record one performed set against an exercise of the workout
// @Description An exercise index outside the workout records nothing.
// @Tags Workouts
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param index path int true "Exercise index, zero based"
// @Param set body RecordSetRequest true "Performed set"
// @Success 200 {object} WorkoutResponse
// @Failure 409 {object} envelope "Workout already completed or modified concurrently"
// @Router /workouts/{workoutId}/exercises/{index}/sets [post]
func (h *WorkoutHandler) RecordSet(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, domain.KindValidation, "invalid exercise index")
		return
	}
	var req RecordSetRequest
	if !bindJSON(c, &req) {
		return
	}
	workout, err := h.workoutService.RecordSetProgress(c.Request.Context(), principal(c), workoutID, index, domain.ActualSet{
		Reps:       req.Reps,
		Weight:     req.Weight,
		Difficulty: req.Difficulty,
		PainLevel:  req.PainLevel,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutToResponse(workout))
}

// @Router /workouts/{workoutId}/complete [post]
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req CompleteWorkoutRequest
	// the body is optional
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	workout, err := h.workoutService.Complete(c.Request.Context(), principal(c), workoutID, domain.CompletionFeedback{
		MoodFeedback:     req.MoodFeedback,
		Notes:            req.Notes,
		DurationMinutes:  req.DurationMinutes,
		AveragePainLevel: req.AveragePainLevel,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapWorkoutToResponse(workout))
}

// @Router /workouts/{workoutId}/clone [post]
func (h *WorkoutHandler) CloneWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req CloneWorkoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	workout, err := h.workoutService.Clone(c.Request.Context(), principal(c), workoutID, req.ScheduledDate)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapWorkoutToResponse(workout))
}
