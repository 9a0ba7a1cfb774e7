package api

import (
	"net/http"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

type NutritionHandler struct {
	nutritionService service.NutritionService
}

func NewNutritionHandler(nutritionService service.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService}
}

// LogDayRequest carries the logged macros. Absent macros keep their previous value.
type LogDayRequest struct {
	domain.MacroValues
	Notes string     `json:"notes"`
	Date  *time.Time `json:"date"`
}

type NutritionPlanResponse struct {
	*domain.NutritionPlan
	Remaining map[string]float64 `json:"remaining"`
}

func MapNutritionPlanToResponse(p *domain.NutritionPlan) NutritionPlanResponse {
	return NutritionPlanResponse{
		NutritionPlan: p,
		Remaining: map[string]float64{
			"protein":  p.Protein.Remaining(),
			"carbs":    p.Carbs.Remaining(),
			"fat":      p.Fat.Remaining(),
			"calories": p.Calories.Remaining(),
		},
	}
}

// @Router /clients/{clientId}/nutrition [post]
func (h *NutritionHandler) CreatePlan(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req domain.MacroValues
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.nutritionService.CreatePlan(c.Request.Context(), principal(c), clientID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapNutritionPlanToResponse(plan))
}

// @Router /clients/{clientId}/nutrition [get]
func (h *NutritionHandler) GetPlan(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	plan, err := h.nutritionService.GetPlan(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapNutritionPlanToResponse(plan))
}

// @Router /clients/{clientId}/nutrition [patch]
func (h *NutritionHandler) UpdateTargets(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req domain.MacroValues
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.nutritionService.UpdateTargets(c.Request.Context(), principal(c), clientID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapNutritionPlanToResponse(plan))
}

// LogDay godoc
// @Summary Append a daily nutrition log
// @Tags Nutrition
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param log body LogDayRequest true "Logged macros"
// @Success 201 {object} NutritionPlanResponse
// @Failure 404 {object} envelope "The client has no nutrition plan"
// @Router /clients/{clientId}/nutrition/logs [post]
func (h *NutritionHandler) LogDay(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req LogDayRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.nutritionService.LogDay(c.Request.Context(), principal(c), clientID, req.MacroValues, req.Notes, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapNutritionPlanToResponse(plan))
}

// @Router /clients/{clientId}/nutrition [delete]
func (h *NutritionHandler) DeletePlan(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	if err := h.nutritionService.DeletePlan(c.Request.Context(), principal(c), clientID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
