package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (r *Repository) SaveClient(ctx context.Context, c domain.Client) error {
	query := `
	INSERT INTO clients (id, team_id, account_manager, created_by, business_name, contact_person, business_email, proposal_ref, proposal_status, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		team_id = excluded.team_id,
		account_manager = excluded.account_manager,
		business_name = excluded.business_name,
		contact_person = excluded.contact_person,
		business_email = excluded.business_email,
		proposal_ref = excluded.proposal_ref,
		proposal_status = excluded.proposal_status,
		status = excluded.status;
	`
	var teamID *string
	if c.TeamID != nil {
		s := string(*c.TeamID)
		teamID = &s
	}
	_, err := r.db.ExecContext(ctx, query,
		c.ID, teamID, c.AccountManager, c.CreatedBy,
		c.BusinessName, c.ContactPerson, c.BusinessEmail,
		c.ProposalRef, string(c.ProposalStatus), c.Status, c.CreatedAt,
	)
	return err
}

func (r *Repository) GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error) {
	query := `SELECT id, team_id, account_manager, created_by, business_name, contact_person, business_email, proposal_ref, proposal_status, status, created_at
	FROM clients WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var c domain.Client
	var idStr, amStr, createdByStr, statusStr string
	var teamID, proposalRef, proposalStatus *string
	if err := row.Scan(&idStr, &teamID, &amStr, &createdByStr, &c.BusinessName, &c.ContactPerson, &c.BusinessEmail, &proposalRef, &proposalStatus, &statusStr, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Client{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		return domain.Client{}, err
	}
	c.ID = domain.ClientID(idStr)
	c.AccountManager = domain.UserID(amStr)
	c.CreatedBy = domain.UserID(createdByStr)
	c.Status = domain.ClientStatus(statusStr)
	if teamID != nil {
		tid := domain.TeamID(*teamID)
		c.TeamID = &tid
	}
	if proposalRef != nil {
		c.ProposalRef = *proposalRef
	}
	if proposalStatus != nil {
		c.ProposalStatus = domain.ProposalStatus(*proposalStatus)
	}
	return c, nil
}

func (r *Repository) SavePlan(ctx context.Context, p domain.ClientPlan) error {
	platformsJSON, err := json.Marshal(p.Platforms)
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}

	query := `
	INSERT INTO client_plans (id, client_id, plan_type, platforms, grand_total, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		plan_type = excluded.plan_type,
		platforms = excluded.platforms,
		grand_total = excluded.grand_total;
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.ClientID, p.PlanType, string(platformsJSON), p.GrandTotal, p.CreatedAt)
	return err
}

func (r *Repository) ClientHasPlan(ctx context.Context, clientID domain.ClientID) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM client_plans WHERE client_id = ?`, clientID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) SaveInvoice(ctx context.Context, inv domain.Invoice) error {
	query := `
	INSERT INTO invoices (id, client_id, billing_from, billing_to, file_ref, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		billing_from = excluded.billing_from,
		billing_to = excluded.billing_to,
		file_ref = excluded.file_ref,
		status = excluded.status;
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.ClientID, inv.BillingFrom, inv.BillingTo, inv.FileRef, inv.Status, inv.CreatedAt)
	return err
}

func (r *Repository) GetInvoice(ctx context.Context, id domain.InvoiceID) (domain.Invoice, error) {
	query := `SELECT id, client_id, billing_from, billing_to, file_ref, status, created_at FROM invoices WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var inv domain.Invoice
	var idStr, clientIDStr, statusStr string
	var fileRef *string
	if err := row.Scan(&idStr, &clientIDStr, &inv.BillingFrom, &inv.BillingTo, &fileRef, &statusStr, &inv.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
		}
		return domain.Invoice{}, err
	}
	inv.ID = domain.InvoiceID(idStr)
	inv.ClientID = domain.ClientID(clientIDStr)
	inv.Status = domain.InvoiceStatus(statusStr)
	if fileRef != nil {
		inv.FileRef = *fileRef
	}
	return inv, nil
}
