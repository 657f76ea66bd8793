// Package server exposes the support desk over HTTP. It provides a minimal
// JSON API: post a message to a session, read a session transcript back.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deskmesh/deskmesh/adapter"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
)

// Handler serves the desk API.
type Handler struct {
	desk   *adapter.Adapter
	logger logging.Logger
}

// Options configure a Handler.
type Options struct {
	Logger logging.Logger
}

// NewHandler creates a Handler around a configured adapter.
func NewHandler(desk *adapter.Adapter, optFns ...func(o *Options)) *Handler {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Handler{desk: desk, logger: opts.Logger}
}

// Router builds the chi router with all routes and standard middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Post("/messages", h.postMessage)
	})
	return r
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	Agent string `json:"agent"`
}

type sessionResponse struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id,omitempty"`
	LastAgent  string      `json:"last_agent,omitempty"`
	Turns      []core.Turn `json:"turns"`
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	reply, err := h.desk.Handle(r.Context(), sessionID, req.Message)
	if err != nil {
		h.logger.Error("handle message", "session", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	JSON(w, http.StatusOK, messageResponse{Reply: reply.Text, Agent: reply.Agent})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.desk.Session(sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("load session", "session", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, sessionResponse{
		ID:         sess.ID,
		CustomerID: sess.GetCustomerID(),
		LastAgent:  sess.GetLastAgent(),
		Turns:      sess.Transcript(),
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
