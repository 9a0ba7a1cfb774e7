package api

import (
	"net/http"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the shared exercise library.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

type CatalogExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`   // e.g., "Chest", "Legs"
	Equipment   string `json:"equipment"`  // e.g., "barbell", "none"
	Difficulty  string `json:"difficulty"` // beginner, intermediate, advanced
	VideoURL    string `json:"videoUrl" binding:"omitempty,url"`
}

func (r CatalogExerciseRequest) toInput() service.CatalogInput {
	return service.CatalogInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Equipment:   r.Equipment,
		Difficulty:  r.Difficulty,
		VideoURL:    r.VideoURL,
	}
}

// ExerciseResponse is the DTO for returning catalog entries.
type ExerciseResponse struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"createdBy"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Equipment   string    `json:"equipment,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.CatalogExercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.CatalogExercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:          ex.ID.Hex(),
		AuthorID:    ex.AuthorID.Hex(),
		Name:        ex.Name,
		Description: ex.Description,
		Category:    ex.Category,
		Equipment:   ex.Equipment,
		Difficulty:  ex.Difficulty,
		VideoURL:    ex.VideoURL,
		CreatedAt:   ex.CreatedAt,
		UpdatedAt:   ex.UpdatedAt,
	}
}

func MapExercisesToResponse(exercises []domain.CatalogExercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Add an exercise to the catalog
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body CatalogExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created successfully"
// @Failure 400 {object} envelope "Invalid input (validation error)"
// @Failure 403 {object} envelope "Forbidden (clients cannot edit the catalog)"
// @Router /exercises [post]
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	var req CatalogExerciseRequest
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), principal(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises godoc
// @Summary Search the exercise catalog
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param q query string false "Text search on name and description"
// @Param category query string false "Muscle group"
// @Param equipment query string false "Equipment"
// @Param difficulty query string false "Difficulty"
// @Success 200 {array} ExerciseResponse "List of exercises"
// @Router /exercises [get]
func (h *CatalogHandler) ListExercises(c *gin.Context) {
	exercises, err := h.catalogService.ListExercises(c.Request.Context(), principal(c), domain.CatalogFilter{
		Search:     c.Query("q"),
		Category:   c.Query("category"),
		Equipment:  c.Query("equipment"),
		Difficulty: c.Query("difficulty"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapExercisesToResponse(exercises))
}

// @Router /exercises/{exerciseId} [get]
func (h *CatalogHandler) GetExercise(c *gin.Context) {
	id, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	exercise, err := h.catalogService.GetExercise(c.Request.Context(), principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapExerciseToResponse(exercise))
}

// @Router /exercises/{exerciseId} [put]
func (h *CatalogHandler) UpdateExercise(c *gin.Context) {
	id, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	var req CatalogExerciseRequest
	if !bindJSON(c, &req) {
		return
	}
	exercise, err := h.catalogService.UpdateExercise(c.Request.Context(), principal(c), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapExerciseToResponse(exercise))
}

// @Router /exercises/{exerciseId} [delete]
func (h *CatalogHandler) DeleteExercise(c *gin.Context) {
	id, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteExercise(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
