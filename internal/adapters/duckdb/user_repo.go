package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (r *Repository) SaveUser(ctx context.Context, u domain.User) error {
	query := `
	INSERT INTO users (id, email, username, first_name, last_name, role, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		email = excluded.email,
		username = excluded.username,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		role = excluded.role;
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.Role, u.CreatedAt)
	return err
}

func (r *Repository) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	query := `SELECT id, email, username, first_name, last_name, role, created_at FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *Repository) FirstUserWithRole(ctx context.Context, role domain.Role) (*domain.User, error) {
	query := `SELECT id, email, username, first_name, last_name, role, created_at
	FROM users WHERE role = ? ORDER BY created_at ASC LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, role))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) SaveTeam(ctx context.Context, t domain.Team) error {
	query := `
	INSERT INTO teams (id, name, created_by, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name;
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.CreatedBy, t.CreatedAt)
	return err
}

func (r *Repository) GetTeam(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	query := `SELECT id, name, created_by, created_at FROM teams WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var t domain.Team
	var idStr, createdByStr string
	if err := row.Scan(&idStr, &t.Name, &createdByStr, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Team{}, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
		}
		return domain.Team{}, err
	}
	t.ID = domain.TeamID(idStr)
	t.CreatedBy = domain.UserID(createdByStr)
	return t, nil
}

func (r *Repository) AddTeamMember(ctx context.Context, m domain.TeamMember) error {
	query := `
	INSERT INTO team_members (team_id, user_id)
	VALUES (?, ?)
	ON CONFLICT (team_id, user_id) DO NOTHING;
	`
	_, err := r.db.ExecContext(ctx, query, m.TeamID, m.UserID)
	return err
}

func (r *Repository) TeamMemberWithRole(ctx context.Context, teamID domain.TeamID, role domain.Role) (*domain.User, error) {
	query := `SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.role, u.created_at
	FROM users u
	JOIN team_members tm ON tm.user_id = u.id
	WHERE tm.team_id = ? AND u.role = ?
	ORDER BY u.created_at ASC LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, teamID, role))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var idStr, roleStr string
	if err := row.Scan(&idStr, &u.Email, &u.Username, &u.FirstName, &u.LastName, &roleStr, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.ID = domain.UserID(idStr)
	u.Role = domain.Role(roleStr)
	return u, nil
}
