package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/agencyflow/agencyflow/internal/core/ports"
)

// Repository is the DuckDB-backed implementation of ports.Repository. One
// file, embedded in-process, no server to run.
type Repository struct {
	db *sql.DB
}

// Ensure Repository implements the port.
var _ ports.Repository = (*Repository)(nil)

// NewRepository opens (or creates) the database at path and applies the
// schema. An empty path opens an in-memory database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %q: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			email VARCHAR NOT NULL,
			username VARCHAR NOT NULL,
			first_name VARCHAR,
			last_name VARCHAR,
			role VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			created_by VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS team_members (
			team_id VARCHAR NOT NULL,
			user_id VARCHAR NOT NULL,
			PRIMARY KEY (team_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR PRIMARY KEY,
			team_id VARCHAR,
			account_manager VARCHAR NOT NULL,
			created_by VARCHAR NOT NULL,
			business_name VARCHAR NOT NULL,
			contact_person VARCHAR,
			business_email VARCHAR,
			proposal_ref VARCHAR,
			proposal_status VARCHAR,
			status VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS client_plans (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			plan_type VARCHAR NOT NULL,
			platforms VARCHAR,
			grand_total DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			billing_from VARCHAR,
			billing_to VARCHAR,
			file_ref VARCHAR,
			status VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS calendars (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			month_name VARCHAR,
			strategy_completed BOOLEAN NOT NULL DEFAULT false,
			content_completed BOOLEAN NOT NULL DEFAULT false,
			creatives_completed BOOLEAN NOT NULL DEFAULT false,
			smo_completed BOOLEAN NOT NULL DEFAULT false,
			mm_content_status VARCHAR,
			acc_content_status VARCHAR,
			mm_creatives_status VARCHAR,
			acc_creatives_status VARCHAR,
			report_ref VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS calendar_dates (
			id VARCHAR PRIMARY KEY,
			calendar_id VARCHAR NOT NULL,
			date TIMESTAMP NOT NULL,
			post_count INTEGER NOT NULL DEFAULT 1,
			type VARCHAR,
			category VARCHAR,
			cta VARCHAR,
			resource VARCHAR,
			tagline VARCHAR,
			caption VARCHAR,
			hashtags VARCHAR,
			engagement_hooks VARCHAR,
			creatives_text VARCHAR,
			creatives VARCHAR,
			internal_status VARCHAR,
			client_approval VARCHAR,
			comments VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			title VARCHAR,
			date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			assigned_to VARCHAR NOT NULL,
			step_type VARCHAR NOT NULL,
			is_completed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (client_id, step_type)
		)`,
		`CREATE TABLE IF NOT EXISTS custom_tasks (
			id VARCHAR PRIMARY KEY,
			client_id VARCHAR NOT NULL,
			assigned_to VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			description VARCHAR,
			done BOOLEAN NOT NULL DEFAULT false,
			file_ref VARCHAR,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR PRIMARY KEY,
			recipient VARCHAR NOT NULL,
			sender VARCHAR,
			message VARCHAR NOT NULL,
			type VARCHAR NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT false,
			client_id VARCHAR,
			step_type VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			action VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
