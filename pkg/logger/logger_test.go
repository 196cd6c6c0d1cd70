package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("allocator", "production", &buf)
	l.Info("allocation finished", "members", 5)
	require.NoError(t, l.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "allocation finished", entry["message"])
	require.Equal(t, "allocator", entry["service"])
	require.Equal(t, float64(5), entry["members"])
}

func TestNewWithWriter_DebugOnlyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("allocator", "production", &buf)
	l.Debug("hidden")
	require.Empty(t, buf.String())

	buf.Reset()
	l = NewWithWriter("allocator", "development", &buf)
	l.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter("allocator", "production", &buf)

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/ping", func(c *gin.Context) {
		require.NotNil(t, FromContext(c, nil))
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	require.True(t, strings.Contains(buf.String(), `"request_id":"req-123"`))
	require.Contains(t, buf.String(), `"path":"/ping"`)
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(Nop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}
