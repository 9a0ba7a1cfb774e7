package api

import (
	"net/http"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	goalService service.GoalService
	now         func() time.Time
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService, now: time.Now}
}

type CreateGoalRequest struct {
	Name     string    `json:"name" binding:"required"`
	Target   *float64  `json:"target" binding:"required"`
	Current  float64   `json:"current"`
	Unit     string    `json:"unit"`
	Deadline time.Time `json:"deadline" binding:"required"`
}

type UpdateGoalRequest struct {
	Name     *string    `json:"name"`
	Target   *float64   `json:"target"`
	Unit     *string    `json:"unit"`
	Deadline *time.Time `json:"deadline"`
}

type GoalProgressRequest struct {
	Value *float64 `json:"value" binding:"required"`
	Notes string   `json:"notes"`
}

type GoalResponse struct {
	*domain.Goal
	ProgressPercent float64 `json:"progressPercent"`
	Overdue         bool    `json:"overdue"`
}

func (h *GoalHandler) toResponse(g *domain.Goal) GoalResponse {
	return GoalResponse{Goal: g, ProgressPercent: g.ProgressPercent(), Overdue: g.IsOverdue(h.now())}
}

// @Router /clients/{clientId}/goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req CreateGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.goalService.Create(c.Request.Context(), principal(c), domain.GoalDraft{
		Name:     req.Name,
		ClientID: clientID,
		Target:   *req.Target,
		Current:  req.Current,
		Unit:     req.Unit,
		Deadline: req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, h.toResponse(goal))
}

// @Router /clients/{clientId}/goals [get]
func (h *GoalHandler) ListGoals(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	goals, err := h.goalService.ListForClient(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]GoalResponse, len(goals))
	for i := range goals {
		out[i] = h.toResponse(&goals[i])
	}
	respond(c, http.StatusOK, out)
}

// @Router /goals/{goalId} [get]
func (h *GoalHandler) GetGoal(c *gin.Context) {
	goalID, ok := objectIDParam(c, "goalId")
	if !ok {
		return
	}
	goal, err := h.goalService.Get(c.Request.Context(), principal(c), goalID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, h.toResponse(goal))
}

// UpdateGoal edits the specialist owned fields. Clients get 403.
// @Router /goals/{goalId} [patch]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	goalID, ok := objectIDParam(c, "goalId")
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.goalService.Update(c.Request.Context(), principal(c), goalID, domain.GoalUpdate{
		Name:     req.Name,
		Target:   req.Target,
		Unit:     req.Unit,
		Deadline: req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, h.toResponse(goal))
}

// @Router /goals/{goalId}/progress [post]
func (h *GoalHandler) RecordProgress(c *gin.Context) {
	goalID, ok := objectIDParam(c, "goalId")
	if !ok {
		return
	}
	var req GoalProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.goalService.RecordProgress(c.Request.Context(), principal(c), goalID, *req.Value, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, h.toResponse(goal))
}

// @Router /goals/{goalId} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	goalID, ok := objectIDParam(c, "goalId")
	if !ok {
		return
	}
	if err := h.goalService.Delete(c.Request.Context(), principal(c), goalID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
