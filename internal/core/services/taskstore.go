package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// TaskRepo is the storage surface the task store mutates. No other component
// writes task rows.
type TaskRepo interface {
	GetTask(ctx context.Context, id domain.TaskID) (domain.Task, error)
	FindTaskByStep(ctx context.Context, clientID domain.ClientID, step domain.StepType) (*domain.Task, error)
	SaveTask(ctx context.Context, t domain.Task) error
	CompleteAndActivate(ctx context.Context, completed domain.Task, next *domain.Task) error
}

// TaskChange describes what materializing a task row amounted to. The driver
// uses it to pick the notification (and to skip notifying when nothing
// actually changed, which keeps retried advances idempotent).
type TaskChange int

const (
	TaskUnchanged TaskChange = iota
	TaskCreated
	TaskReactivated
	TaskReassigned
)

// TaskStore owns all task mutation. A client keeps at most one row per step
// type: recurrence reactivates the old row instead of inserting a duplicate.
type TaskStore struct {
	logger *slog.Logger
	repo   TaskRepo
	now    func() time.Time
}

func NewTaskStore(logger *slog.Logger, repo TaskRepo) *TaskStore {
	return &TaskStore{logger: logger, repo: repo, now: time.Now}
}

// Materialize computes the row that represents "step for client, assigned to
// user" without writing it: either the existing row reassigned/reactivated,
// or a fresh one. Callers persist the result via SaveTask or
// CompleteAndActivate.
func (s *TaskStore) Materialize(ctx context.Context, clientID domain.ClientID, step domain.StepType, user domain.UserID) (domain.Task, TaskChange, error) {
	if clientID == "" || user == "" {
		return domain.Task{}, TaskUnchanged, fmt.Errorf("task store: client and user are required (client=%q user=%q)", clientID, user)
	}

	existing, err := s.repo.FindTaskByStep(ctx, clientID, step)
	if err != nil {
		return domain.Task{}, TaskUnchanged, fmt.Errorf("find task %s: %w", step, err)
	}

	if existing != nil {
		t := *existing
		switch {
		case t.IsCompleted:
			s.logger.Info("reactivating completed task", "step", step, "client", clientID, "assignee", user)
			t.IsCompleted = false
			t.AssignedTo = user
			t.UpdatedAt = s.now()
			return t, TaskReactivated, nil
		case t.AssignedTo != user:
			s.logger.Info("reassigning pending task", "step", step, "client", clientID, "from", t.AssignedTo, "to", user)
			t.AssignedTo = user
			t.UpdatedAt = s.now()
			return t, TaskReassigned, nil
		default:
			return t, TaskUnchanged, nil
		}
	}

	now := s.now()
	t := domain.Task{
		ID:         domain.TaskID(uuid.NewString()),
		ClientID:   clientID,
		AssignedTo: user,
		Step:       step,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return t, TaskCreated, nil
}

// GetOrCreate materializes and immediately persists the task row. Used when
// seeding a workflow; transitions go through CompleteAndActivate instead.
func (s *TaskStore) GetOrCreate(ctx context.Context, clientID domain.ClientID, step domain.StepType, user domain.UserID) (domain.Task, TaskChange, error) {
	t, change, err := s.Materialize(ctx, clientID, step, user)
	if err != nil {
		return domain.Task{}, change, err
	}
	if change != TaskUnchanged {
		if err := s.repo.SaveTask(ctx, t); err != nil {
			return domain.Task{}, change, fmt.Errorf("save task %s: %w", step, err)
		}
	}
	return t, change, nil
}

// Complete marks the task done with no successor (workflow end, declined, or
// dead end).
func (s *TaskStore) Complete(ctx context.Context, t domain.Task) (domain.Task, error) {
	t.IsCompleted = true
	t.UpdatedAt = s.now()
	if err := s.repo.CompleteAndActivate(ctx, t, nil); err != nil {
		return t, fmt.Errorf("complete task %s: %w", t.Step, err)
	}
	return t, nil
}

// CompleteAndActivate marks current done and persists next in one storage
// transaction.
func (s *TaskStore) CompleteAndActivate(ctx context.Context, current domain.Task, next domain.Task) (domain.Task, error) {
	current.IsCompleted = true
	current.UpdatedAt = s.now()
	if err := s.repo.CompleteAndActivate(ctx, current, &next); err != nil {
		return current, fmt.Errorf("advance task %s -> %s: %w", current.Step, next.Step, err)
	}
	return current, nil
}
