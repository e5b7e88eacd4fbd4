package domain

import "time"

type ClientID string
type PlanID string
type InvoiceID string

// ProposalStatus tracks the account manager's verdict on the uploaded
// proposal. Empty means no decision has been recorded yet.
type ProposalStatus string

const (
	ProposalApproved        ProposalStatus = "approved"
	ProposalChangesRequired ProposalStatus = "changes_required"
	ProposalDeclined        ProposalStatus = "declined"
)

type ClientStatus string

const (
	ClientInProgress ClientStatus = "in_progress"
	ClientCompleted  ClientStatus = "completed"
)

// Client anchors one workflow instance. The team is assigned mid-workflow
// (the assign_team step), the account manager at creation.
type Client struct {
	ID             ClientID       `json:"id"`
	TeamID         *TeamID        `json:"team_id,omitempty"`
	AccountManager UserID         `json:"account_manager"`
	CreatedBy      UserID         `json:"created_by"`
	BusinessName   string         `json:"business_name"`
	ContactPerson  string         `json:"contact_person"`
	BusinessEmail  string         `json:"business_email"`
	ProposalRef    string         `json:"proposal_ref,omitempty"` // object-store key of the proposal PDF
	ProposalStatus ProposalStatus `json:"proposal_status,omitempty"`
	Status         ClientStatus   `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ClientPlan is a monthly service plan bought by a client. Its presence is
// what lets the workflow skip the assigned_plan_to_client step.
type ClientPlan struct {
	ID         PlanID    `json:"id"`
	ClientID   ClientID  `json:"client_id"`
	PlanType   string    `json:"plan_type"`
	Platforms  []string  `json:"platforms,omitempty"`
	GrandTotal float64   `json:"grand_total"`
	CreatedAt  time.Time `json:"created_at"`
}

type InvoiceStatus string

const (
	InvoiceWaitingApproval InvoiceStatus = "wait_for_approval"
	InvoiceUnpaid          InvoiceStatus = "unpaid"
	InvoicePaid            InvoiceStatus = "paid"
	InvoiceChangesRequired InvoiceStatus = "changes_required"
)

type Invoice struct {
	ID          InvoiceID     `json:"id"`
	ClientID    ClientID      `json:"client_id"`
	BillingFrom string        `json:"billing_from,omitempty"`
	BillingTo   string        `json:"billing_to,omitempty"`
	FileRef     string        `json:"file_ref,omitempty"` // object-store key of the invoice PDF
	Status      InvoiceStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
