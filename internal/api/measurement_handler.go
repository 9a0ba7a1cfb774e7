package api

import (
	"net/http"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

type MeasurementHandler struct {
	measurementService service.MeasurementService
}

func NewMeasurementHandler(measurementService service.MeasurementService) *MeasurementHandler {
	return &MeasurementHandler{measurementService: measurementService}
}

type MeasurementRequest struct {
	Date    *time.Time         `json:"date"`
	Weight  *float64           `json:"weight" binding:"omitempty,gt=0"`
	BodyFat *float64           `json:"bodyFat" binding:"omitempty,min=0,max=100"`
	Metrics map[string]float64 `json:"metrics"`
	Notes   *string            `json:"notes"`
}

func (r MeasurementRequest) toDomain() domain.MeasurementValues {
	return domain.MeasurementValues{
		Date:    r.Date,
		Weight:  r.Weight,
		BodyFat: r.BodyFat,
		Metrics: r.Metrics,
		Notes:   r.Notes,
	}
}

// MeasurementStatsResponse reports hasData=false instead of zero stats for a client with no readings.
type MeasurementStatsResponse struct {
	HasData bool                     `json:"hasData"`
	Stats   *domain.MeasurementStats `json:"stats,omitempty"`
}

// @Router /clients/{clientId}/measurements [post]
func (h *MeasurementHandler) CreateMeasurement(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	var req MeasurementRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.measurementService.Create(c.Request.Context(), principal(c), clientID, req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

// @Router /clients/{clientId}/measurements [get]
func (h *MeasurementHandler) ListMeasurements(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	ms, err := h.measurementService.ListForClient(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ms)
}

// @Router /clients/{clientId}/measurements/stats [get]
func (h *MeasurementHandler) GetStats(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}
	stats, hasData, err := h.measurementService.Stats(c.Request.Context(), principal(c), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := MeasurementStatsResponse{HasData: hasData}
	if hasData {
		resp.Stats = &stats
	}
	respond(c, http.StatusOK, resp)
}

// @Router /measurements/{measurementId} [patch]
func (h *MeasurementHandler) UpdateMeasurement(c *gin.Context) {
	id, ok := objectIDParam(c, "measurementId")
	if !ok {
		return
	}
	var req MeasurementRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.measurementService.Update(c.Request.Context(), principal(c), id, req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

// @Router /measurements/{measurementId} [delete]
func (h *MeasurementHandler) DeleteMeasurement(c *gin.Context) {
	id, ok := objectIDParam(c, "measurementId")
	if !ok {
		return
	}
	if err := h.measurementService.Delete(c.Request.Context(), principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
