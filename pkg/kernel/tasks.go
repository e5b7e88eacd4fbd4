package kernel

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// handleCompleteTask is the single entry point for moving a workflow forward.
// The response body is the checker's verdict either way; rejections come back
// as 400 so clients can surface the reason.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.callerID(w, r)
	if !ok {
		return
	}
	taskID := domain.TaskID(r.PathValue("id"))

	var ev domain.Evidence
	if r.ContentLength > 0 {
		if err := decode(r, &ev); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	outcome, err := s.driver.CompleteStep(r.Context(), taskID, actor, ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if !outcome.Accepted {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, outcome)
}

func (s *Server) handleListClientTasks(w http.ResponseWriter, r *http.Request) {
	clientID := domain.ClientID(r.PathValue("id"))
	tasks, err := s.repo.ListPendingTasksForClient(r.Context(), clientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleListMyTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	tasks, err := s.repo.ListPendingTasksForUser(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

type createCustomTaskRequest struct {
	ClientID    domain.ClientID `json:"client_id"`
	AssignedTo  domain.UserID   `json:"assigned_to"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FileRef     string          `json:"file_ref,omitempty"`
}

func (s *Server) handleCreateCustomTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	var req createCustomTaskRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.AssignedTo == "" || req.ClientID == "" {
		http.Error(w, "client_id, assigned_to and name are required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	task := domain.CustomTask{
		ID:          domain.CustomTaskID(uuid.NewString()),
		ClientID:    req.ClientID,
		AssignedTo:  req.AssignedTo,
		Name:        req.Name,
		Description: req.Description,
		FileRef:     req.FileRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveCustomTask(r.Context(), task); err != nil {
		s.writeError(w, err)
		return
	}

	assignee, err := s.repo.GetUser(r.Context(), req.AssignedTo)
	if err == nil {
		sender, serr := s.repo.GetUser(r.Context(), caller)
		var senderPtr *domain.User
		if serr == nil {
			senderPtr = &sender
		}
		s.notifier.Notify(r.Context(), assignee, senderPtr,
			"New task \""+task.Name+"\" has been assigned to you.",
			domain.NotifyTaskAssigned, nil)
	}

	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListMyCustomTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	tasks, err := s.repo.ListCustomTasksForUser(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.CustomTask{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

type updateCustomTaskRequest struct {
	Done        *bool   `json:"done,omitempty"`
	Description *string `json:"description,omitempty"`
	FileRef     *string `json:"file_ref,omitempty"`
}

func (s *Server) handleUpdateCustomTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	id := domain.CustomTaskID(r.PathValue("id"))

	var req updateCustomTaskRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := s.repo.GetCustomTask(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Only the assignee or the client's account manager may touch the task.
	client, clientErr := s.repo.GetClient(r.Context(), task.ClientID)
	if caller != task.AssignedTo && (clientErr != nil || caller != client.AccountManager) {
		s.writeError(w, domain.ErrNotAuthorized)
		return
	}

	wasDone := task.Done
	oldRef := task.FileRef
	if req.Done != nil {
		task.Done = *req.Done
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.FileRef != nil {
		task.FileRef = *req.FileRef
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveCustomTask(r.Context(), task); err != nil {
		s.writeError(w, err)
		return
	}

	// Replaced files are cleaned up best effort, never blocking the update.
	if oldRef != "" && oldRef != task.FileRef {
		if err := s.files.Delete(r.Context(), oldRef); err != nil {
			s.logger.Warn("failed to delete replaced file", "key", oldRef, "error", err)
		}
	}

	if !wasDone && task.Done && clientErr == nil {
		if manager, err := s.repo.GetUser(r.Context(), client.AccountManager); err == nil {
			sender, serr := s.repo.GetUser(r.Context(), caller)
			var senderPtr *domain.User
			if serr == nil {
				senderPtr = &sender
			}
			s.notifier.Notify(r.Context(), manager, senderPtr,
				"Task \""+task.Name+"\" has been completed.",
				domain.NotifyTaskCompleted, nil)
		}
	}

	s.writeJSON(w, http.StatusOK, task)
}
