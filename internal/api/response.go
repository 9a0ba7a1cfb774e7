package api

import (
	"net/http"

	"coastalfit/coach-app/internal/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// envelope wraps every response body.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindConflict:     http.StatusConflict,
}

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, envelope{Success: true, Data: data})
}

// Helper to return an error envelope and abort the request
func abortWithError(c *gin.Context, code int, kind domain.ErrorKind, message string) {
	c.AbortWithStatusJSON(code, envelope{Error: &errorBody{Kind: kind, Message: message}})
}

// respondError maps domain error kinds to HTTP statuses. Anything else is a 500 whose
// detail stays in the log unless debug errors are enabled.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if code, ok := kindStatus[kind]; ok {
		abortWithError(c, code, kind, err.Error())
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("unexpected error")
	message := "internal server error"
	if c.GetBool(contextDebugErrorsKey) {
		message = err.Error()
	}
	abortWithError(c, http.StatusInternalServerError, "internal", message)
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, http.StatusBadRequest, domain.KindValidation, "Validation error: "+err.Error())
}

// objectIDParam parses a path parameter, answering 400 when it is not an ObjectID.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, domain.KindValidation, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}
