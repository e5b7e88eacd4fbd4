package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// GraphRepo is the storage surface guard predicates need.
type GraphRepo interface {
	ClientHasPlan(ctx context.Context, clientID domain.ClientID) (bool, error)
}

// edge is one transition of the workflow graph: the step it leads to and the
// role that owns that step.
type edge struct {
	next domain.StepType
	role domain.Role
}

// forwardEdges is the happy-path transition table. monthly_reporting →
// invoice_submission is the only cycle; it drives the recurring monthly
// billing cadence.
var forwardEdges = map[domain.StepType]edge{
	domain.StepAssignTeam:                {domain.StepCreateProposal, domain.RoleMarketingManager},
	domain.StepCreateProposal:            {domain.StepApproveProposal, domain.RoleAccountManager},
	domain.StepApproveProposal:           {domain.StepScheduleBriefMeeting, domain.RoleAccountManager}, // taken on approve; see branch below
	domain.StepScheduleBriefMeeting:      {domain.StepIsMeetingCompleted, domain.RoleAccountManager},
	domain.StepIsMeetingCompleted:        {domain.StepAssignPlanToClient, domain.RoleAccountManager},
	domain.StepAssignPlanToClient:        {domain.StepCreateStrategy, domain.RoleMarketingManager},
	domain.StepCreateStrategy:            {domain.StepContentWriting, domain.RoleContentWriter},
	domain.StepContentWriting:            {domain.StepApproveContentByMM, domain.RoleMarketingManager},
	domain.StepApproveContentByMM:        {domain.StepApproveContentByAM, domain.RoleAccountManager},
	domain.StepApproveContentByAM:        {domain.StepCreativesDesign, domain.RoleGraphicsDesigner},
	domain.StepCreativesDesign:           {domain.StepApproveCreativesByMM, domain.RoleMarketingManager},
	domain.StepApproveCreativesByMM:      {domain.StepApproveCreativesByAM, domain.RoleAccountManager},
	domain.StepApproveCreativesByAM:      {domain.StepScheduleOnboardingMeeting, domain.RoleAccountManager},
	domain.StepScheduleOnboardingMeeting: {domain.StepOnboardingMeeting, domain.RoleAccountManager},
	domain.StepOnboardingMeeting:         {domain.StepSMOScheduling, domain.RoleMarketingAssistant},
	domain.StepSMOScheduling:             {domain.StepInvoiceSubmission, domain.RoleAccountant},
	domain.StepInvoiceSubmission:         {domain.StepInvoiceVerification, domain.RoleAccountManager},
	domain.StepInvoiceVerification:       {domain.StepPaymentConfirmation, domain.RoleAccountant},
	domain.StepPaymentConfirmation:       {domain.StepMonthlyReporting, domain.RoleAccountManager},
	domain.StepMonthlyReporting:          {domain.StepInvoiceSubmission, domain.RoleAccountant},
}

// reworkEdges are the backward transitions taken when an approval step comes
// back with changes_required: the work bounces to the role that produced it.
var reworkEdges = map[domain.StepType]edge{
	domain.StepApproveProposal:      {domain.StepCreateProposal, domain.RoleMarketingManager},
	domain.StepApproveContentByMM:   {domain.StepContentWriting, domain.RoleContentWriter},
	domain.StepApproveContentByAM:   {domain.StepApproveContentByMM, domain.RoleMarketingManager},
	domain.StepApproveCreativesByMM: {domain.StepCreativesDesign, domain.RoleGraphicsDesigner},
	domain.StepApproveCreativesByAM: {domain.StepApproveCreativesByMM, domain.RoleMarketingManager},
}

// WorkflowGraph decides, for a just-completed step, which step comes next and
// who owns it. Transitions are data (forwardEdges/reworkEdges); the only code
// paths are the guards: the proposal-status branch and the plan skip.
type WorkflowGraph struct {
	logger *slog.Logger
	roles  *RoleDirectory
	repo   GraphRepo
}

func NewWorkflowGraph(logger *slog.Logger, roles *RoleDirectory, repo GraphRepo) *WorkflowGraph {
	return &WorkflowGraph{logger: logger, roles: roles, repo: repo}
}

// Next returns the follow-up step and its resolved assignee. A ("", nil)
// return means the workflow ends here: either legitimately (declined) or as
// a misconfiguration dead end the caller must surface.
func (g *WorkflowGraph) Next(ctx context.Context, client domain.Client, step domain.StepType, decision domain.Decision) (domain.StepType, *domain.User, error) {
	e, ok := g.edgeFor(client, step, decision)
	if !ok {
		return "", nil, nil
	}

	// Skip assigned_plan_to_client when the client already has a plan.
	if e.next == domain.StepAssignPlanToClient {
		hasPlan, err := g.repo.ClientHasPlan(ctx, client.ID)
		if err != nil {
			return "", nil, fmt.Errorf("check client plan: %w", err)
		}
		if hasPlan {
			g.logger.Info("skipping plan assignment, client already has a plan", "client", client.ID)
			e = forwardEdges[domain.StepAssignPlanToClient]
		}
	}

	user, err := g.roles.Resolve(ctx, e.role, client)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, nil
	}
	return e.next, user, nil
}

func (g *WorkflowGraph) edgeFor(client domain.Client, step domain.StepType, decision domain.Decision) (edge, bool) {
	if step == domain.StepApproveProposal {
		// Branches on the recorded proposal status, not a fixed edge.
		switch client.ProposalStatus {
		case domain.ProposalApproved:
			return forwardEdges[domain.StepApproveProposal], true
		case domain.ProposalDeclined:
			return edge{}, false
		default:
			// changes_required, or no status recorded yet: back to the writer.
			return reworkEdges[domain.StepApproveProposal], true
		}
	}

	if _, isApproval := reworkEdges[step]; isApproval {
		switch decision {
		case domain.DecisionChangesRequired:
			return reworkEdges[step], true
		case domain.DecisionDeclined:
			return edge{}, false
		}
	}

	e, ok := forwardEdges[step]
	return e, ok
}
