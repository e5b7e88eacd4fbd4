package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (r *Repository) SaveMeeting(ctx context.Context, m domain.Meeting) error {
	query := `
	INSERT INTO meetings (id, client_id, title, date, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		date = excluded.date;
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.ClientID, m.Title, m.Date, m.CreatedAt)
	return err
}

func (r *Repository) GetMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error) {
	query := `SELECT id, client_id, title, date, created_at FROM meetings WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var m domain.Meeting
	var idStr, clientIDStr string
	if err := row.Scan(&idStr, &clientIDStr, &m.Title, &m.Date, &m.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Meeting{}, fmt.Errorf("meeting %s: %w", id, domain.ErrNotFound)
		}
		return domain.Meeting{}, err
	}
	m.ID = domain.MeetingID(idStr)
	m.ClientID = domain.ClientID(clientIDStr)
	return m, nil
}

func (r *Repository) CountMeetingsInMonth(ctx context.Context, clientID domain.ClientID, year int, month int) (int, error) {
	query := `SELECT COUNT(*) FROM meetings
	WHERE client_id = ? AND EXTRACT(YEAR FROM date) = ? AND EXTRACT(MONTH FROM date) = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, clientID, year, month).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) ClientHasMeetingBefore(ctx context.Context, clientID domain.ClientID, cutoff string) (bool, error) {
	query := `SELECT COUNT(*) FROM meetings WHERE client_id = ? AND date < CAST(? AS DATE)`
	var n int
	if err := r.db.QueryRowContext(ctx, query, clientID, cutoff).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
