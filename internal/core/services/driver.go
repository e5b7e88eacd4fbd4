package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// DriverRepo is the read surface the driver needs around the task store.
type DriverRepo interface {
	GetTask(ctx context.Context, id domain.TaskID) (domain.Task, error)
	GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error)
	SaveClient(ctx context.Context, c domain.Client) error
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
}

// taskLocks serializes concurrent completions of the same task so two racing
// requests cannot both materialize the successor and double-notify.
type taskLocks struct {
	stripes [64]sync.Mutex
}

func (l *taskLocks) acquire(id domain.TaskID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// WorkflowDriver orchestrates step completion: authorization, precondition
// check, transactional task-store mutation, then best-effort notification.
type WorkflowDriver struct {
	logger   *slog.Logger
	repo     DriverRepo
	graph    *WorkflowGraph
	checker  *StepChecker
	tasks    *TaskStore
	roles    *RoleDirectory
	notifier *Notifier
	locks    taskLocks
}

func NewWorkflowDriver(logger *slog.Logger, repo DriverRepo, graph *WorkflowGraph, checker *StepChecker, tasks *TaskStore, roles *RoleDirectory, notifier *Notifier) *WorkflowDriver {
	return &WorkflowDriver{
		logger:   logger,
		repo:     repo,
		graph:    graph,
		checker:  checker,
		tasks:    tasks,
		roles:    roles,
		notifier: notifier,
	}
}

// CompleteStep validates and applies one step completion. Outcome carries the
// caller-visible verdict; the returned error is reserved for authorization,
// missing entities, and storage failures.
func (d *WorkflowDriver) CompleteStep(ctx context.Context, taskID domain.TaskID, actorID domain.UserID, ev domain.Evidence) (Outcome, error) {
	mu := d.locks.acquire(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := d.repo.GetTask(ctx, taskID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup task %s: %w", taskID, err)
	}
	actor, err := d.repo.GetUser(ctx, actorID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup user %s: %w", actorID, err)
	}
	if task.AssignedTo != actor.ID {
		return Outcome{}, fmt.Errorf("user %s is not the assignee of task %s: %w", actorID, taskID, domain.ErrNotAuthorized)
	}
	client, err := d.repo.GetClient(ctx, task.ClientID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup client %s: %w", task.ClientID, err)
	}
	if task.Step != domain.StepAssignTeam && client.TeamID == nil {
		return reject("client %q is not assigned to a team", client.BusinessName), nil
	}

	// Re-running an already-completed task is legal: it re-derives the next
	// step, which is how retries and the monthly cycle are driven.
	if task.IsCompleted {
		return d.rederive(ctx, task, client, ev.Decision, actor)
	}

	outcome, err := d.checker.Check(ctx, task, &client, ev)
	if err != nil {
		return Outcome{}, err
	}
	if !outcome.Accepted && !outcome.Halted && !outcome.Rework {
		rejectionsTotal.WithLabelValues(string(task.Step)).Inc()
		return outcome, nil
	}

	if outcome.Halted {
		if _, err := d.tasks.Complete(ctx, task); err != nil {
			return Outcome{}, err
		}
		transitionsTotal.WithLabelValues(string(task.Step)).Inc()
		d.logger.Info("workflow halted", "step", task.Step, "client", client.ID)
		return outcome, nil
	}

	if err := d.advance(ctx, task, client, ev.Decision, actor); err != nil {
		return Outcome{}, err
	}

	// Paying the invoice closes out the engagement until the next cycle.
	if task.Step == domain.StepPaymentConfirmation && client.Status != domain.ClientCompleted {
		client.Status = domain.ClientCompleted
		if err := d.repo.SaveClient(ctx, client); err != nil {
			d.logger.Error("failed to update client status", "client", client.ID, "error", err)
		}
	}

	transitionsTotal.WithLabelValues(string(task.Step)).Inc()
	return outcome, nil
}

// advance completes the current task and activates its successor in one
// storage transaction, then notifies the new assignee.
func (d *WorkflowDriver) advance(ctx context.Context, task domain.Task, client domain.Client, decision domain.Decision, actor domain.User) error {
	nextStep, nextUser, err := d.graph.Next(ctx, client, task.Step, decision)
	if err != nil {
		return err
	}
	if nextStep == "" || nextUser == nil {
		if _, err := d.tasks.Complete(ctx, task); err != nil {
			return err
		}
		deadEndsTotal.WithLabelValues(string(task.Step)).Inc()
		d.logger.Warn("workflow end or misconfiguration: no next step or assignee",
			"step", task.Step, "client", client.ID)
		return nil
	}

	next, change, err := d.tasks.Materialize(ctx, client.ID, nextStep, nextUser.ID)
	if err != nil {
		return err
	}
	if _, err := d.tasks.CompleteAndActivate(ctx, task, next); err != nil {
		return err
	}
	d.notifyAssignment(ctx, *nextUser, actor, next, change)
	return nil
}

// rederive handles CompleteStep on an already-completed task: same next-step
// derivation, same dedup, no precondition re-check.
func (d *WorkflowDriver) rederive(ctx context.Context, task domain.Task, client domain.Client, decision domain.Decision, actor domain.User) (Outcome, error) {
	nextStep, nextUser, err := d.graph.Next(ctx, client, task.Step, decision)
	if err != nil {
		return Outcome{}, err
	}
	if nextStep == "" || nextUser == nil {
		deadEndsTotal.WithLabelValues(string(task.Step)).Inc()
		return reject("task already completed and no further steps are available"), nil
	}
	next, change, err := d.tasks.GetOrCreate(ctx, client.ID, nextStep, nextUser.ID)
	if err != nil {
		return Outcome{}, err
	}
	d.notifyAssignment(ctx, *nextUser, actor, next, change)
	return accept("next task %q is active", nextStep.Label()), nil
}

func (d *WorkflowDriver) notifyAssignment(ctx context.Context, assignee domain.User, actor domain.User, task domain.Task, change TaskChange) {
	var msg string
	typ := domain.NotifyTaskAssigned
	switch change {
	case TaskCreated:
		msg = fmt.Sprintf("New task %q has been assigned to you.", task.Step.Label())
	case TaskReactivated:
		msg = fmt.Sprintf("Task %q has been reactivated and assigned to you.", task.Step.Label())
	case TaskReassigned:
		msg = fmt.Sprintf("Task %q has been reassigned to you.", task.Step.Label())
		typ = domain.NotifyTaskReassigned
	default:
		// Nothing changed; a retried advance must not duplicate notifications.
		return
	}
	d.notifier.Notify(ctx, assignee, &actor, msg, typ, &task)
}

// StartWorkflow seeds the first task for a freshly created client. The
// assign_team step goes to the marketing director, falling back to the
// client's account manager.
func (d *WorkflowDriver) StartWorkflow(ctx context.Context, client domain.Client) error {
	assignee, err := d.roles.Resolve(ctx, domain.RoleMarketingDirector, client)
	if err != nil {
		return err
	}
	if assignee == nil {
		u, err := d.repo.GetUser(ctx, client.AccountManager)
		if err != nil {
			return fmt.Errorf("no assignee for initial task: %w", err)
		}
		assignee = &u
	}

	task, change, err := d.tasks.GetOrCreate(ctx, client.ID, domain.StepAssignTeam, assignee.ID)
	if err != nil {
		return err
	}
	if change != TaskUnchanged {
		d.notifier.Notify(ctx, *assignee, nil,
			fmt.Sprintf("New client %q needs a team: task %q has been assigned to you.", client.BusinessName, task.Step.Label()),
			domain.NotifyTaskAssigned, &task)
	}
	return nil
}
