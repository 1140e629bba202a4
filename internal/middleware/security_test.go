package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maditrack-server/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	return logger
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS is only sent in release mode")
}

func TestCorrelationID(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CorrelationIDKey)) })

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get("X-Correlation-ID")
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Correlation-ID", "upstream-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "upstream-123", w.Header().Get("X-Correlation-ID"))
		assert.Equal(t, "upstream-123", w.Body.String())
	})
}

func TestRequestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(RequestTimeout(20 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.String(http.StatusGatewayTimeout, c.Request.Context().Err().Error())
		case <-time.After(time.Second):
			c.String(http.StatusOK, "finished")
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "context deadline exceeded", w.Body.String())
}

func TestRequestTimeout_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RequestTimeout(0))
	router.GET("/ping", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		assert.False(t, hasDeadline)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(CorrelationID(), AuditLogger(logger))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing?From=%2B15550000001", nil)
	req.Header.Set("X-Correlation-ID", "audit-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit-1", entry["correlation_id"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "warning", entry["level"])
	assert.NotContains(t, buf.String(), "15550000001")
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID(), Recovery(newTestLogger()))
	router.GET("/boom", func(c *gin.Context) { panic("unexpected") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrInternalServer, apiErr.Code)
	assert.Equal(t, w.Header().Get("X-Correlation-ID"), apiErr.RequestID)
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		provided string
		expected int
	}{
		{"valid token", "s3cret", "s3cret", http.StatusOK},
		{"wrong token", "s3cret", "guess", http.StatusUnauthorized},
		{"missing token", "s3cret", "", http.StatusUnauthorized},
		{"route disabled", "", "anything", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/internal", RequireToken("X-Job-Token", tt.token), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/internal", nil)
			if tt.provided != "" {
				req.Header.Set("X-Job-Token", tt.provided)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
