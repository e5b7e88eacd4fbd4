package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func newTestGraph(repo *memRepo) *WorkflowGraph {
	roles := NewRoleDirectory(testLogger(), repo, nil)
	return NewWorkflowGraph(testLogger(), roles, repo)
}

func TestGraphHappyPath(t *testing.T) {
	repo := newMemRepo()
	teamID, users := seedTeam(repo)
	am := domain.User{ID: "am-1", Username: "am", Role: domain.RoleAccountManager}
	repo.addUser(am)
	client := domain.Client{ID: "c-1", TeamID: &teamID, AccountManager: am.ID}
	graph := newTestGraph(repo)

	next, user, err := graph.Next(context.Background(), client, domain.StepAssignTeam, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepCreateProposal, next)
	require.NotNil(t, user)
	assert.Equal(t, users[domain.RoleMarketingManager].ID, user.ID)

	next, user, err = graph.Next(context.Background(), client, domain.StepCreateProposal, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproveProposal, next)
	require.NotNil(t, user)
	assert.Equal(t, am.ID, user.ID)
}

func TestGraphProposalBranch(t *testing.T) {
	repo := newMemRepo()
	teamID, users := seedTeam(repo)
	am := domain.User{ID: "am-1", Username: "am", Role: domain.RoleAccountManager}
	repo.addUser(am)
	graph := newTestGraph(repo)
	ctx := context.Background()

	client := domain.Client{ID: "c-1", TeamID: &teamID, AccountManager: am.ID}

	client.ProposalStatus = domain.ProposalApproved
	next, _, err := graph.Next(ctx, client, domain.StepApproveProposal, domain.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.StepScheduleBriefMeeting, next)

	client.ProposalStatus = domain.ProposalChangesRequired
	next, user, err := graph.Next(ctx, client, domain.StepApproveProposal, domain.DecisionChangesRequired)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCreateProposal, next)
	require.NotNil(t, user)
	assert.Equal(t, users[domain.RoleMarketingManager].ID, user.ID)

	client.ProposalStatus = domain.ProposalDeclined
	next, user, err = graph.Next(ctx, client, domain.StepApproveProposal, domain.DecisionDeclined)
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Nil(t, user)
}

func TestGraphPlanSkip(t *testing.T) {
	repo := newMemRepo()
	teamID, users := seedTeam(repo)
	am := domain.User{ID: "am-1", Username: "am", Role: domain.RoleAccountManager}
	repo.addUser(am)
	client := domain.Client{ID: "c-1", TeamID: &teamID, AccountManager: am.ID}
	graph := newTestGraph(repo)
	ctx := context.Background()

	// Without a plan the plan-assignment step is next.
	next, _, err := graph.Next(ctx, client, domain.StepIsMeetingCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAssignPlanToClient, next)

	// With one, the workflow jumps straight to strategy.
	repo.plans[client.ID] = true
	next, user, err := graph.Next(ctx, client, domain.StepIsMeetingCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepCreateStrategy, next)
	require.NotNil(t, user)
	assert.Equal(t, users[domain.RoleMarketingManager].ID, user.ID)
}

func TestGraphApprovalRework(t *testing.T) {
	repo := newMemRepo()
	teamID, users := seedTeam(repo)
	am := domain.User{ID: "am-1", Username: "am", Role: domain.RoleAccountManager}
	repo.addUser(am)
	client := domain.Client{ID: "c-1", TeamID: &teamID, AccountManager: am.ID}
	graph := newTestGraph(repo)
	ctx := context.Background()

	next, user, err := graph.Next(ctx, client, domain.StepApproveContentByMM, domain.DecisionChangesRequired)
	require.NoError(t, err)
	assert.Equal(t, domain.StepContentWriting, next)
	require.NotNil(t, user)
	assert.Equal(t, users[domain.RoleContentWriter].ID, user.ID)

	// Account-manager rejection goes back one approval level, not to the writer.
	next, user, err = graph.Next(ctx, client, domain.StepApproveContentByAM, domain.DecisionChangesRequired)
	require.NoError(t, err)
	assert.Equal(t, domain.StepApproveContentByMM, next)
	require.NotNil(t, user)
	assert.Equal(t, users[domain.RoleMarketingManager].ID, user.ID)

	// Declined ends the line.
	next, user, err = graph.Next(ctx, client, domain.StepApproveCreativesByAM, domain.DecisionDeclined)
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Nil(t, user)
}

func TestGraphMonthlyCycle(t *testing.T) {
	repo := newMemRepo()
	teamID, _ := seedTeam(repo)
	am := domain.User{ID: "am-1", Username: "am", Role: domain.RoleAccountManager}
	acc := domain.User{ID: "acc-1", Username: "acc", Role: domain.RoleAccountant}
	repo.addUser(am)
	repo.addUser(acc)
	client := domain.Client{ID: "c-1", TeamID: &teamID, AccountManager: am.ID}
	graph := newTestGraph(repo)
	ctx := context.Background()

	next, user, err := graph.Next(ctx, client, domain.StepPaymentConfirmation, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepMonthlyReporting, next)
	require.NotNil(t, user)
	assert.Equal(t, am.ID, user.ID)

	next, user, err = graph.Next(ctx, client, domain.StepMonthlyReporting, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepInvoiceSubmission, next)
	require.NotNil(t, user)
	assert.Equal(t, acc.ID, user.ID)
}

func TestGraphDeadEndWhenRoleUnfilled(t *testing.T) {
	repo := newMemRepo()
	// No users at all: every role resolution comes back empty.
	client := domain.Client{ID: "c-1"}
	graph := newTestGraph(repo)

	next, user, err := graph.Next(context.Background(), client, domain.StepAssignTeam, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Nil(t, user)
}
