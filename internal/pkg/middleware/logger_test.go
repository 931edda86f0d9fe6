package middleware_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	Msg       string `json:"msg"`
	Level     string `json:"level"`
	URL       string `json:"url"`
	Agent     string `json:"agent"`
	Status    int    `json:"status"`
	IP        string `json:"ip"`
	Method    string `json:"method"`
	RequestID string `json:"request_id"`
}

func TestLogWith(t *testing.T) {
	b := bytes.Buffer{}
	l := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{}))
	m := middleware.LogWith(l)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/test?id=123", nil)
	req.RemoteAddr = "1.2.3.4"
	req.Header.Set("User-Agent", "test-runner")

	rec := httptest.NewRecorder()
	m(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var e logEntry
	err := json.Unmarshal(b.Bytes(), &e)
	require.NoError(t, err)

	assert.Equal(t, "request received", e.Msg)
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "/test?id=123", e.URL)
	assert.Equal(t, "test-runner", e.Agent)
	assert.Equal(t, 418, e.Status)
	assert.Equal(t, "1.2.3.4", e.IP)
	assert.Equal(t, "GET", e.Method)
}

func TestLogWith_ImplicitOK(t *testing.T) {
	b := bytes.Buffer{}
	l := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	rec := httptest.NewRecorder()
	middleware.LogWith(l)(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))
	assert.Equal(t, http.StatusOK, e.Status)
}

func TestRequestID(t *testing.T) {
	b := bytes.Buffer{}
	l := slog.New(slog.NewJSONHandler(&b, &slog.HandlerOptions{}))

	r := router.New()
	r.Use(middleware.RequestID(), middleware.LogWith(l))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, middleware.RequestIDFromContext(r.Context()))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(middleware.RequestIDHeader))

	var e logEntry
	require.NoError(t, json.Unmarshal(b.Bytes(), &e))
	assert.Equal(t, "req-1", e.RequestID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)
}
