package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/techdict/backend/internal/serr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ReadJSON decodes the request body into out. Malformed bodies are reported
// as validation errors.
func ReadJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return serr.Validation(err, "invalid request body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(resp)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	_ = WriteJSON(w, status, MessageResponse{Message: msg})
}

// HandleErr logs err and renders it. Internal errors never expose their detail.
func HandleErr(w http.ResponseWriter, r *http.Request, err error) {
	var se *serr.ServiceError
	if !errors.As(err, &se) {
		se = serr.Internal(err, "internal server error")
	}

	attrs := []any{
		"error", err,
		"kind", se.Kind.String(),
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
		"request_id", chimw.GetReqID(r.Context()),
	}
	for k, v := range se.Env {
		attrs = append(attrs, k, v)
	}

	msg := se.Msg
	if se.Kind == serr.KindInternal {
		slog.Error("request error", append(attrs, "stack_trace", se.StackTrace)...)
		if !se.Public {
			msg = "internal server error"
		}
	} else {
		slog.Debug("request rejected", attrs...)
	}

	_ = WriteJSON(w, se.StatusCode, errorResponse{Error: msg})
}

// IDParam parses a positive integer chi URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, serr.Validation(err, "invalid %s %q", name, raw)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serr.Validation(err, "invalid %s %q", name, raw)
	}
	return n, nil
}
