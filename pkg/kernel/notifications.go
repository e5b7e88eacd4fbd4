package kernel

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	list, err := s.repo.ListNotifications(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	if err := s.repo.MarkNotificationRead(r.Context(), domain.NotificationID(r.PathValue("id"))); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListHistory returns the newest workflow log entries. ?limit= caps the
// page, defaulting to 50.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.repo.ListHistory(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleEventsSSE streams the caller's notification pushes as server-sent
// events until the client disconnects.
func (s *Server) handleEventsSSE(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsub := s.eventBus.Subscribe(caller)
	defer unsub()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
