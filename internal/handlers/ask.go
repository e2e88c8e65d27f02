// Package handlers exposes the chat workflow over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/middleware"
	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/workflow"
	"github.com/mosefak/medchat/pkg/markdown"
)

// AskRequest is the POST /ask request body
type AskRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Format   string `json:"format,omitempty"` // "text" (default) or "html"
}

// AskResponse is the POST /ask response body
type AskResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// API serves the chat endpoints
type API struct {
	engine         *workflow.Engine
	limiter        middleware.RateLimiter
	metrics        *middleware.Metrics
	logger         *logrus.Logger
	requestTimeout time.Duration
}

// NewAPI creates the HTTP API
func NewAPI(engine *workflow.Engine, limiter middleware.RateLimiter, metrics *middleware.Metrics, logger *logrus.Logger, requestTimeout time.Duration) *API {
	return &API{
		engine:         engine,
		limiter:        limiter,
		metrics:        metrics,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// Router builds the route table
func (a *API) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ask", a.handleAsk).Methods(http.MethodPost)
	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	return router
}

// handleAsk runs one conversation turn
func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	a.metrics.RecordMessageReceived("http")

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Question == "" || req.ThreadID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question, thread_id and user_id are required"})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	identity := models.Identity{UserID: req.UserID, Role: role}

	if !a.limiter.Allow(req.UserID) {
		a.metrics.RecordRateLimitExceeded(req.UserID)
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
	defer cancel()

	answer := a.engine.Run(ctx, req.ThreadID, req.Question, identity)
	if req.Format == "html" {
		answer = markdown.ToHTML(answer)
	}

	writeJSON(w, http.StatusOK, AskResponse{Response: answer})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
