package domain

import "time"

type TaskID string
type CustomTaskID string

// StepType identifies one stage of the client lifecycle. Transitions between
// steps live in the workflow graph; the order below is the happy path.
type StepType string

const (
	StepAssignTeam               StepType = "assign_team"
	StepCreateProposal           StepType = "create_proposal"
	StepApproveProposal          StepType = "approve_proposal"
	StepScheduleBriefMeeting     StepType = "schedule_brief_meeting"
	StepIsMeetingCompleted       StepType = "is_meeting_completed"
	StepAssignPlanToClient       StepType = "assigned_plan_to_client"
	StepCreateStrategy           StepType = "create_strategy"
	StepContentWriting           StepType = "content_writing"
	StepApproveContentByMM       StepType = "approve_content_by_marketing_manager"
	StepApproveContentByAM       StepType = "approve_content_by_account_manager"
	StepCreativesDesign          StepType = "creatives_design"
	StepApproveCreativesByMM     StepType = "approve_creatives_by_marketing_manager"
	StepApproveCreativesByAM     StepType = "approve_creatives_by_account_manager"
	StepScheduleOnboardingMeeting StepType = "schedule_onboarding_meeting"
	StepOnboardingMeeting        StepType = "onboarding_meeting"
	StepSMOScheduling            StepType = "smo_scheduling"
	StepInvoiceSubmission        StepType = "invoice_submission"
	StepInvoiceVerification      StepType = "invoice_verification"
	StepPaymentConfirmation      StepType = "payment_confirmation"
	StepMonthlyReporting         StepType = "monthly_reporting"
)

// StepLabels are the human-readable names used in notification messages.
var StepLabels = map[StepType]string{
	StepAssignTeam:               "Assign Client to Team",
	StepCreateProposal:           "Create Proposal",
	StepApproveProposal:          "Approve Proposal",
	StepScheduleBriefMeeting:     "Schedule Brief Meeting",
	StepIsMeetingCompleted:       "Check Meeting Completion",
	StepAssignPlanToClient:       "Assign Plan to Client",
	StepCreateStrategy:           "Create Strategy",
	StepContentWriting:           "Write Content",
	StepApproveContentByMM:       "Approve Content (Marketing Manager)",
	StepApproveContentByAM:       "Approve Content (Account Manager)",
	StepCreativesDesign:          "Design Creatives",
	StepApproveCreativesByMM:     "Approve Creatives (Marketing Manager)",
	StepApproveCreativesByAM:     "Approve Creatives (Account Manager)",
	StepScheduleOnboardingMeeting: "Schedule Onboarding Meeting",
	StepOnboardingMeeting:        "Onboarding Meeting",
	StepSMOScheduling:            "SMO & Scheduling",
	StepInvoiceSubmission:        "Submit Invoice",
	StepInvoiceVerification:      "Verify Invoice",
	StepPaymentConfirmation:      "Confirm Payment",
	StepMonthlyReporting:         "Monthly Reporting",
}

// Label returns the display name for a step, falling back to the raw token.
func (s StepType) Label() string {
	if l, ok := StepLabels[s]; ok {
		return l
	}
	return string(s)
}

// KnownStep reports whether s is one of the enumerated workflow stages.
func KnownStep(s StepType) bool {
	_, ok := StepLabels[s]
	return ok
}

// Task is one pending-or-historical unit of workflow work. A client has at
// most one row per step type; recurrence reactivates the row instead of
// inserting a duplicate.
type Task struct {
	ID          TaskID    `json:"id"`
	ClientID    ClientID  `json:"client_id"`
	AssignedTo  UserID    `json:"assigned_to"`
	Step        StepType  `json:"step_type"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomTask is an ad-hoc task an account manager hands to a team member.
// It lives outside the workflow graph and only shares the notifier.
type CustomTask struct {
	ID          CustomTaskID `json:"id"`
	ClientID    ClientID     `json:"client_id"`
	AssignedTo  UserID       `json:"assigned_to"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Done        bool         `json:"done"`
	FileRef     string       `json:"file_ref,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
