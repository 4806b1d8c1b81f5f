package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("correlation_id"))
	})

	// Generated when absent
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, w.Header().Get("X-Correlation-ID"), w.Body.String())

	// Caller-supplied ID is honored
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "corr-123", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "corr-123", w.Body.String())
}

func TestAuditLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(CorrelationID())
	router.Use(AuditLogger(logger))
	router.GET("/api/v1/diagnose", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/diagnose", nil)
	req.Header.Set("X-Correlation-ID", "corr-audit")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "corr-audit", record["correlation_id"])
	assert.Equal(t, "GET", record["method"])
	assert.Equal(t, "/api/v1/diagnose", record["path"])
	assert.Equal(t, float64(http.StatusOK), record["status"])
	assert.NotNil(t, record["latency_ms"])
	assert.NotNil(t, record["client_ip"])
}
