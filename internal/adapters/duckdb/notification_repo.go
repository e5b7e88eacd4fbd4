package duckdb

import (
	"context"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (r *Repository) SaveNotification(ctx context.Context, n domain.Notification) error {
	var sender *string
	if n.Sender != nil {
		s := string(*n.Sender)
		sender = &s
	}
	var clientID *string
	if n.ClientID != nil {
		s := string(*n.ClientID)
		clientID = &s
	}

	query := `
	INSERT INTO notifications (id, recipient, sender, message, type, is_read, client_id, step_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET is_read = excluded.is_read;
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Recipient, sender, n.Message, n.Type, n.IsRead, clientID, string(n.Step), n.CreatedAt)
	return err
}

func (r *Repository) ListNotifications(ctx context.Context, recipient domain.UserID) ([]domain.Notification, error) {
	query := `SELECT id, recipient, sender, message, type, is_read, client_id, step_type, created_at
	FROM notifications WHERE recipient = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var idStr, recipientStr, typeStr string
		var sender, clientID, stepStr *string
		if err := rows.Scan(&idStr, &recipientStr, &sender, &n.Message, &typeStr, &n.IsRead, &clientID, &stepStr, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ID = domain.NotificationID(idStr)
		n.Recipient = domain.UserID(recipientStr)
		n.Type = domain.NotificationType(typeStr)
		if sender != nil {
			uid := domain.UserID(*sender)
			n.Sender = &uid
		}
		if clientID != nil {
			cid := domain.ClientID(*clientID)
			n.ClientID = &cid
		}
		if stepStr != nil {
			n.Step = domain.StepType(*stepStr)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id domain.NotificationID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = ?`, id)
	return err
}

func (r *Repository) AppendHistory(ctx context.Context, h domain.HistoryEntry) error {
	query := `INSERT INTO history (id, user_id, action, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, h.ID, h.UserID, h.Action, h.CreatedAt)
	return err
}

func (r *Repository) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	query := `SELECT id, user_id, action, created_at FROM history ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		var idStr, userIDStr string
		if err := rows.Scan(&idStr, &userIDStr, &h.Action, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.ID = domain.HistoryID(idStr)
		h.UserID = domain.UserID(userIDStr)
		out = append(out, h)
	}
	return out, rows.Err()
}
