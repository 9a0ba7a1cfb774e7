package api

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/metrics"
	"coastalfit/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Constants for context keys
const (
	ContextPrincipalKey   = "principal"
	contextDebugErrorsKey = "debugErrors"
)

// AuthMiddleware verifies the bearer token and stores the Principal in the context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, domain.KindUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, domain.KindUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		principal, err := authService.VerifyToken(parts[1])
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// principal returns the authenticated actor. It is zero when AuthMiddleware did not run,
// which services reject as Unauthorized.
func principal(c *gin.Context) domain.Principal {
	raw, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return domain.Principal{}
	}
	p, _ := raw.(domain.Principal)
	return p
}

// DebugErrors controls whether 500 responses carry the internal error text.
func DebugErrors(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextDebugErrorsKey, enabled)
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
		if p := principal(c); !p.IsZero() {
			entry = entry.WithField("user", p.ID.Hex())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

func RequestMetrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.GaugeRequests.Inc()
		begin := time.Now()

		c.Next()

		m.GaugeRequests.Dec()
		status := strconv.Itoa(c.Writer.Status())
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HistogramRequestDuration.WithLabelValues(route, c.Request.Method, status).
			Observe(time.Since(begin).Seconds())
		m.CounterRequests.With(prometheus.Labels{
			"method": c.Request.Method,
			"status": status,
		}).Inc()
	}
}

// PanicRecovery turns a handler panic into a 500 and counts it.
func PanicRecovery(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("http: panic serving %s: %v\n%s", c.Request.URL.Path, r, debug.Stack())
				if m != nil {
					m.CounterHandleRequestPanic.Inc()
				}
				abortWithError(c, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		c.Next()
	}
}
