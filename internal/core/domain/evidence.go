package domain

import "fmt"

// Decision is the verdict carried by approval-step evidence.
type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionChangesRequired Decision = "changes_required"
	DecisionDeclined        Decision = "declined"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionChangesRequired, DecisionDeclined:
		return true
	}
	return false
}

// Evidence is the caller-supplied proof that a step's precondition holds.
// Which fields a step requires is declared in requiredEvidence so malformed
// requests fail at the boundary, not inside a checker.
type Evidence struct {
	CalendarID CalendarID `json:"calendar_id,omitempty"`
	MeetingID  MeetingID  `json:"meeting_id,omitempty"`
	InvoiceID  InvoiceID  `json:"invoice_id,omitempty"`
	Decision   Decision   `json:"decision,omitempty"`
}

type evidenceShape struct {
	calendar bool
	meeting  bool
	invoice  bool
	decision bool
}

var requiredEvidence = map[StepType]evidenceShape{
	StepApproveProposal:          {decision: true},
	StepScheduleBriefMeeting:     {meeting: true},
	StepScheduleOnboardingMeeting: {meeting: true},
	StepCreateStrategy:           {calendar: true},
	StepContentWriting:           {calendar: true},
	StepCreativesDesign:          {calendar: true},
	StepApproveContentByMM:       {calendar: true, decision: true},
	StepApproveContentByAM:       {calendar: true, decision: true},
	StepApproveCreativesByMM:     {calendar: true, decision: true},
	StepApproveCreativesByAM:     {calendar: true, decision: true},
	StepSMOScheduling:            {calendar: true},
	StepInvoiceSubmission:        {invoice: true},
	StepInvoiceVerification:      {invoice: true},
	StepPaymentConfirmation:      {invoice: true},
}

// Validate checks that the evidence carries everything the given step needs.
func (e Evidence) Validate(step StepType) error {
	shape := requiredEvidence[step]
	if shape.calendar && e.CalendarID == "" {
		return fmt.Errorf("step %s requires a calendar_id", step)
	}
	if shape.meeting && e.MeetingID == "" {
		return fmt.Errorf("step %s requires a meeting_id", step)
	}
	if shape.invoice && e.InvoiceID == "" {
		return fmt.Errorf("step %s requires an invoice_id", step)
	}
	if shape.decision {
		if e.Decision == "" {
			return fmt.Errorf("step %s requires a decision", step)
		}
		if !e.Decision.Valid() {
			return fmt.Errorf("invalid decision %q: allowed values are approve, changes_required, declined", e.Decision)
		}
	}
	return nil
}
