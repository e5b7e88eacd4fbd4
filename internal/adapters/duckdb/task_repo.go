package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

const taskColumns = `id, client_id, assigned_to, step_type, is_completed, created_at, updated_at`

const upsertTask = `
INSERT INTO tasks (id, client_id, assigned_to, step_type, is_completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	assigned_to = excluded.assigned_to,
	is_completed = excluded.is_completed,
	updated_at = excluded.updated_at;
`

func (r *Repository) SaveTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, upsertTask,
		t.ID, t.ClientID, t.AssignedTo, t.Step, t.IsCompleted, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *Repository) GetTask(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Task{}, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		return domain.Task{}, err
	}
	return t, nil
}

func (r *Repository) FindTaskByStep(ctx context.Context, clientID domain.ClientID, step domain.StepType) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE client_id = ? AND step_type = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, clientID, step))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CompleteAndActivate runs both writes in one transaction so the workflow
// cannot observe a completed task without its successor.
func (r *Repository) CompleteAndActivate(ctx context.Context, completed domain.Task, next *domain.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertTask,
		completed.ID, completed.ClientID, completed.AssignedTo, completed.Step,
		completed.IsCompleted, completed.CreatedAt, completed.UpdatedAt); err != nil {
		return fmt.Errorf("complete task %s: %w", completed.ID, err)
	}
	if next != nil {
		if _, err := tx.ExecContext(ctx, upsertTask,
			next.ID, next.ClientID, next.AssignedTo, next.Step,
			next.IsCompleted, next.CreatedAt, next.UpdatedAt); err != nil {
			return fmt.Errorf("activate task %s: %w", next.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) ListPendingTasksForClient(ctx context.Context, clientID domain.ClientID) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE client_id = ? AND is_completed = false ORDER BY created_at ASC`
	return r.listTasks(ctx, query, clientID)
}

func (r *Repository) ListPendingTasksForUser(ctx context.Context, userID domain.UserID) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assigned_to = ? AND is_completed = false ORDER BY created_at ASC`
	return r.listTasks(ctx, query, userID)
}

func (r *Repository) listTasks(ctx context.Context, query string, arg any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row *sql.Row) (domain.Task, error) {
	var t domain.Task
	var idStr, clientIDStr, assignedStr, stepStr string
	err := row.Scan(&idStr, &clientIDStr, &assignedStr, &stepStr, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = domain.TaskID(idStr)
	t.ClientID = domain.ClientID(clientIDStr)
	t.AssignedTo = domain.UserID(assignedStr)
	t.Step = domain.StepType(stepStr)
	return t, nil
}

func scanTaskRows(rows *sql.Rows) (domain.Task, error) {
	var t domain.Task
	var idStr, clientIDStr, assignedStr, stepStr string
	err := rows.Scan(&idStr, &clientIDStr, &assignedStr, &stepStr, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = domain.TaskID(idStr)
	t.ClientID = domain.ClientID(clientIDStr)
	t.AssignedTo = domain.UserID(assignedStr)
	t.Step = domain.StepType(stepStr)
	return t, nil
}

func (r *Repository) SaveCustomTask(ctx context.Context, t domain.CustomTask) error {
	query := `
	INSERT INTO custom_tasks (id, client_id, assigned_to, name, description, done, file_ref, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		assigned_to = excluded.assigned_to,
		name = excluded.name,
		description = excluded.description,
		done = excluded.done,
		file_ref = excluded.file_ref,
		updated_at = excluded.updated_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ClientID, t.AssignedTo, t.Name, t.Description, t.Done, t.FileRef, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *Repository) GetCustomTask(ctx context.Context, id domain.CustomTaskID) (domain.CustomTask, error) {
	query := `SELECT id, client_id, assigned_to, name, description, done, file_ref, created_at, updated_at FROM custom_tasks WHERE id = ?`
	t, err := scanCustomTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.CustomTask{}, fmt.Errorf("custom task %s: %w", id, domain.ErrNotFound)
		}
		return domain.CustomTask{}, err
	}
	return t, nil
}

func (r *Repository) ListCustomTasksForUser(ctx context.Context, userID domain.UserID) ([]domain.CustomTask, error) {
	query := `SELECT id, client_id, assigned_to, name, description, done, file_ref, created_at, updated_at
	FROM custom_tasks WHERE assigned_to = ? ORDER BY created_at DESC`
	return r.listCustomTasks(ctx, query, userID)
}

func (r *Repository) ListCustomTasksForClient(ctx context.Context, clientID domain.ClientID) ([]domain.CustomTask, error) {
	query := `SELECT id, client_id, assigned_to, name, description, done, file_ref, created_at, updated_at
	FROM custom_tasks WHERE client_id = ? ORDER BY created_at DESC`
	return r.listCustomTasks(ctx, query, clientID)
}

func (r *Repository) listCustomTasks(ctx context.Context, query string, arg any) ([]domain.CustomTask, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.CustomTask
	for rows.Next() {
		var t domain.CustomTask
		var idStr, clientIDStr, assignedStr string
		var fileRef *string
		if err := rows.Scan(&idStr, &clientIDStr, &assignedStr, &t.Name, &t.Description, &t.Done, &fileRef, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.ID = domain.CustomTaskID(idStr)
		t.ClientID = domain.ClientID(clientIDStr)
		t.AssignedTo = domain.UserID(assignedStr)
		if fileRef != nil {
			t.FileRef = *fileRef
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanCustomTask(row *sql.Row) (domain.CustomTask, error) {
	var t domain.CustomTask
	var idStr, clientIDStr, assignedStr string
	var fileRef *string
	err := row.Scan(&idStr, &clientIDStr, &assignedStr, &t.Name, &t.Description, &t.Done, &fileRef, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.CustomTask{}, err
	}
	t.ID = domain.CustomTaskID(idStr)
	t.ClientID = domain.ClientID(clientIDStr)
	t.AssignedTo = domain.UserID(assignedStr)
	if fileRef != nil {
		t.FileRef = *fileRef
	}
	return t, nil
}
