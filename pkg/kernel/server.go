// Package kernel is the HTTP surface of the workflow service. Handlers stay
// thin: decode, call a core service, encode. All domain rules live in
// internal/core.
package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agencyflow/agencyflow/internal/core/domain"
	"github.com/agencyflow/agencyflow/internal/core/ports"
	"github.com/agencyflow/agencyflow/internal/core/services"
)

// userHeader carries the authenticated caller's id, set by the reverse proxy
// in front of this service.
const userHeader = "X-User-ID"

type Server struct {
	logger   *slog.Logger
	driver   *services.WorkflowDriver
	notifier *services.Notifier
	eventBus *services.EventBus
	files    ports.FileStore
	repo     ports.Repository
}

func NewServer(
	logger *slog.Logger,
	driver *services.WorkflowDriver,
	notifier *services.Notifier,
	eventBus *services.EventBus,
	files ports.FileStore,
	repo ports.Repository,
) *Server {
	return &Server{
		logger:   logger,
		driver:   driver,
		notifier: notifier,
		eventBus: eventBus,
		files:    files,
		repo:     repo,
	}
}

// Handler mounts all routes on a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Workflow
	mux.HandleFunc("POST /v1/clients", s.handleCreateClient)
	mux.HandleFunc("GET /v1/clients/{id}", s.handleGetClient)
	mux.HandleFunc("PATCH /v1/clients/{id}", s.handleUpdateClient)
	mux.HandleFunc("GET /v1/clients/{id}/tasks", s.handleListClientTasks)
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("GET /v1/me/tasks", s.handleListMyTasks)

	// Reference data the workflow checks against
	mux.HandleFunc("POST /v1/users", s.handleCreateUser)
	mux.HandleFunc("POST /v1/teams", s.handleCreateTeam)
	mux.HandleFunc("POST /v1/teams/{id}/members", s.handleAddTeamMember)
	mux.HandleFunc("POST /v1/clients/{id}/plans", s.handleCreatePlan)
	mux.HandleFunc("POST /v1/clients/{id}/meetings", s.handleCreateMeeting)
	mux.HandleFunc("POST /v1/clients/{id}/calendars", s.handleCreateCalendar)
	mux.HandleFunc("PATCH /v1/calendars/{id}", s.handleUpdateCalendar)
	mux.HandleFunc("POST /v1/calendars/{id}/dates", s.handleSaveCalendarDate)
	mux.HandleFunc("GET /v1/calendars/{id}/dates", s.handleListCalendarDates)
	mux.HandleFunc("POST /v1/clients/{id}/invoices", s.handleCreateInvoice)
	mux.HandleFunc("PATCH /v1/invoices/{id}", s.handleUpdateInvoice)

	// Custom tasks
	mux.HandleFunc("POST /v1/custom-tasks", s.handleCreateCustomTask)
	mux.HandleFunc("GET /v1/me/custom-tasks", s.handleListMyCustomTasks)
	mux.HandleFunc("PATCH /v1/custom-tasks/{id}", s.handleUpdateCustomTask)

	// Notifications
	mux.HandleFunc("GET /v1/me/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.handleMarkNotificationRead)
	mux.HandleFunc("GET /v1/history", s.handleListHistory)
	mux.HandleFunc("GET /v1/events", s.handleEventsSSE)

	// Files
	mux.HandleFunc("PUT /v1/files/{key...}", s.handleUploadFile)
	mux.HandleFunc("DELETE /v1/files/{key...}", s.handleDeleteFile)

	// Ops
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// callerID extracts the authenticated user, or writes 401 and returns false.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id := r.Header.Get(userHeader)
	if id == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return domain.UserID(id), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotAuthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, context.Canceled):
		// client went away, nothing to report
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
