package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
)

type errorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

// ReadJSON decodes the request body into out. Unknown fields are rejected.
func ReadJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}

// WriteError renders the common error envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	_ = WriteJSON(w, status, errorResponse{Success: false, ErrorMessage: msg})
}

// HandleErr logs err and renders it. Only ServiceError messages reach the client.
func HandleErr(w http.ResponseWriter, r *http.Request, err error) {
	LogErr(r, err)

	var se *serr.ServiceError
	if errors.As(err, &se) {
		WriteError(w, se.StatusCode, se.Msg)
		return
	}

	WriteError(w, http.StatusInternalServerError, "Internal Server Error")
}

// LogErr logs a request error at Warn for client errors and at Error otherwise.
func LogErr(r *http.Request, err error) {
	attrs := []any{
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	}

	var se *serr.ServiceError
	if !errors.As(err, &se) {
		slog.Error("request error", attrs...)
		return
	}

	for k, v := range se.Env {
		attrs = append(attrs, k, v)
	}
	if se.StatusCode >= http.StatusInternalServerError {
		attrs = append(attrs, "stack_trace", se.StackTrace)
		slog.Error("request error", attrs...)
		return
	}

	slog.Warn("request error", attrs...)
}

// PathID parses a positive int64 path value.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", name)
	}

	return id, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", name)
	}

	return v, nil
}

// QueryInt64Ptr parses an optional int64 query parameter, returning nil when absent.
func QueryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", name)
	}

	return &v, nil
}
