package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agencyflow/agencyflow/internal/core/domain"
	"github.com/agencyflow/agencyflow/internal/core/ports"
)

// CheckerRepo is the storage surface precondition checks read, plus the few
// writes the checks own (approval statuses, calendar completion flags).
type CheckerRepo interface {
	SaveClient(ctx context.Context, c domain.Client) error
	ClientHasPlan(ctx context.Context, clientID domain.ClientID) (bool, error)
	GetCalendar(ctx context.Context, id domain.CalendarID) (domain.Calendar, error)
	SaveCalendar(ctx context.Context, cal domain.Calendar) error
	ListCalendarDates(ctx context.Context, calID domain.CalendarID) ([]domain.CalendarDate, error)
	GetMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error)
	CountMeetingsInMonth(ctx context.Context, clientID domain.ClientID, year int, month int) (int, error)
	ClientHasMeetingBefore(ctx context.Context, clientID domain.ClientID, cutoff string) (bool, error)
	GetInvoice(ctx context.Context, id domain.InvoiceID) (domain.Invoice, error)
}

// Outcome is the checker's verdict on a completion request.
//
// Accepted means the precondition held and the task may complete and advance.
// Halted means the task completes but the workflow stops (a declined
// approval). Rework means the task completes and bounces backward along the
// rework edge. Halted and rework are both reported to the caller as
// rejections with the reason, even though they mutate task state.
type Outcome struct {
	Accepted bool   `json:"accepted"`
	Halted   bool   `json:"-"`
	Rework   bool   `json:"-"`
	Message  string `json:"message"`
}

func accept(format string, args ...any) Outcome {
	return Outcome{Accepted: true, Message: fmt.Sprintf(format, args...)}
}

func reject(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

func halt(format string, args ...any) Outcome {
	return Outcome{Halted: true, Message: fmt.Sprintf(format, args...)}
}

func rework(format string, args ...any) Outcome {
	return Outcome{Rework: true, Message: fmt.Sprintf(format, args...)}
}

// StepChecker validates that the domain data backs up a step-completion
// request before the driver is allowed to advance the workflow.
type StepChecker struct {
	logger *slog.Logger
	repo   CheckerRepo
	files  ports.FileStore
	now    func() time.Time
}

func NewStepChecker(logger *slog.Logger, repo CheckerRepo, files ports.FileStore) *StepChecker {
	return &StepChecker{logger: logger, repo: repo, files: files, now: time.Now}
}

// Check runs the per-step precondition. client is updated in place when a
// check records a decision (proposal status). A rejected outcome never
// mutates task state; calendar/status writes below happen only on the
// successful paths.
func (c *StepChecker) Check(ctx context.Context, task domain.Task, client *domain.Client, ev domain.Evidence) (Outcome, error) {
	if err := ev.Validate(task.Step); err != nil {
		return reject("%v", err), nil
	}

	switch task.Step {
	case domain.StepAssignTeam:
		if client.TeamID == nil {
			return reject("client %q is not assigned to a team yet", client.BusinessName), nil
		}
		return accept("team assignment verified"), nil

	case domain.StepCreateProposal:
		return c.checkFilePresent(ctx, client.ProposalRef,
			fmt.Sprintf("proposal not uploaded for client %q", client.BusinessName))

	case domain.StepApproveProposal:
		return c.checkProposalDecision(ctx, client, ev.Decision)

	case domain.StepScheduleBriefMeeting:
		return c.checkMeetingScheduled(ctx, client, ev.MeetingID, 1)

	case domain.StepIsMeetingCompleted, domain.StepOnboardingMeeting, domain.StepMonthlyReporting:
		// No machine-checkable precondition; the assignee vouches.
		return accept("step confirmed"), nil

	case domain.StepAssignPlanToClient:
		hasPlan, err := c.repo.ClientHasPlan(ctx, client.ID)
		if err != nil {
			return Outcome{}, fmt.Errorf("check client plan: %w", err)
		}
		if !hasPlan {
			return reject("no plan is assigned to client %q", client.BusinessName), nil
		}
		return accept("plan assignment verified"), nil

	case domain.StepCreateStrategy:
		return c.checkStrategy(ctx, client, ev.CalendarID)

	case domain.StepContentWriting:
		return c.checkContent(ctx, client, ev.CalendarID)

	case domain.StepCreativesDesign:
		return c.checkCreatives(ctx, client, ev.CalendarID)

	case domain.StepApproveContentByMM:
		return c.checkCalendarApproval(ctx, client, ev, approvalContent, approverMarketing)
	case domain.StepApproveContentByAM:
		return c.checkCalendarApproval(ctx, client, ev, approvalContent, approverAccount)
	case domain.StepApproveCreativesByMM:
		return c.checkCalendarApproval(ctx, client, ev, approvalCreatives, approverMarketing)
	case domain.StepApproveCreativesByAM:
		return c.checkCalendarApproval(ctx, client, ev, approvalCreatives, approverAccount)

	case domain.StepScheduleOnboardingMeeting:
		return c.checkMeetingScheduled(ctx, client, ev.MeetingID, 2)

	case domain.StepSMOScheduling:
		return c.markSMOScheduled(ctx, client, ev.CalendarID)

	case domain.StepInvoiceSubmission:
		return c.checkInvoiceSubmitted(ctx, client, ev.InvoiceID)

	case domain.StepInvoiceVerification:
		return c.checkInvoiceStatus(ctx, client, ev.InvoiceID, domain.InvoiceUnpaid)

	case domain.StepPaymentConfirmation:
		return c.checkInvoiceStatus(ctx, client, ev.InvoiceID, domain.InvoicePaid)
	}

	return reject("unknown step type %q", task.Step), nil
}

func (c *StepChecker) checkFilePresent(ctx context.Context, key, absentMsg string) (Outcome, error) {
	if key == "" {
		return reject("%s", absentMsg), nil
	}
	ok, err := c.files.Exists(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("check file %s: %w", key, err)
	}
	if !ok {
		return reject("%s (file %q missing from storage)", absentMsg, key), nil
	}
	return accept("file verified"), nil
}

func (c *StepChecker) checkProposalDecision(ctx context.Context, client *domain.Client, decision domain.Decision) (Outcome, error) {
	switch decision {
	case domain.DecisionApprove:
		client.ProposalStatus = domain.ProposalApproved
	case domain.DecisionChangesRequired:
		client.ProposalStatus = domain.ProposalChangesRequired
	case domain.DecisionDeclined:
		client.ProposalStatus = domain.ProposalDeclined
	}
	if err := c.repo.SaveClient(ctx, *client); err != nil {
		return Outcome{}, fmt.Errorf("save proposal status: %w", err)
	}

	switch decision {
	case domain.DecisionApprove:
		return accept("proposal approved"), nil
	case domain.DecisionChangesRequired:
		return rework("proposal for client %q requires changes; task goes back to the marketing manager", client.BusinessName), nil
	default:
		return halt("proposal for client %q has been declined; the workflow will not proceed", client.BusinessName), nil
	}
}

// checkMeetingScheduled verifies the referenced meeting falls in the current
// or next calendar month. required > 1 additionally enforces the onboarding
// rule: clients with no past meetings need two upcoming touchpoints, everyone
// else one.
func (c *StepChecker) checkMeetingScheduled(ctx context.Context, client *domain.Client, id domain.MeetingID, required int) (Outcome, error) {
	meeting, err := c.repo.GetMeeting(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup meeting %s: %w", id, err)
	}
	if meeting.ClientID != client.ID {
		return Outcome{}, fmt.Errorf("meeting %s: %w", id, domain.ErrNotFound)
	}

	now := c.now()
	curY, curM := now.Year(), now.Month()
	nxtY, nxtM := nextMonth(now)

	mY, mM := meeting.Date.Year(), meeting.Date.Month()
	if !(mY == curY && mM == curM) && !(mY == nxtY && mM == nxtM) {
		return reject("meeting on %s is not in the current or next month", meeting.Date.Format("02 January 2006")), nil
	}

	if required > 1 {
		hasPast, err := c.repo.ClientHasMeetingBefore(ctx, client.ID, now.Format("2006-01-02"))
		if err != nil {
			return Outcome{}, fmt.Errorf("check past meetings: %w", err)
		}
		need := 1
		if !hasPast {
			need = 2
		}
		cur, err := c.repo.CountMeetingsInMonth(ctx, client.ID, curY, int(curM))
		if err != nil {
			return Outcome{}, fmt.Errorf("count meetings: %w", err)
		}
		nxt, err := c.repo.CountMeetingsInMonth(ctx, client.ID, nxtY, int(nxtM))
		if err != nil {
			return Outcome{}, fmt.Errorf("count meetings: %w", err)
		}
		if cur+nxt < need {
			return reject("client %q needs %d meeting(s) in the current or next month, found %d", client.BusinessName, need, cur+nxt), nil
		}
	}

	return accept("meeting verified"), nil
}

func (c *StepChecker) clientCalendar(ctx context.Context, client *domain.Client, id domain.CalendarID) (domain.Calendar, []domain.CalendarDate, error) {
	cal, err := c.repo.GetCalendar(ctx, id)
	if err != nil {
		return domain.Calendar{}, nil, fmt.Errorf("lookup calendar %s: %w", id, err)
	}
	if cal.ClientID != client.ID {
		return domain.Calendar{}, nil, fmt.Errorf("calendar %s: %w", id, domain.ErrNotFound)
	}
	dates, err := c.repo.ListCalendarDates(ctx, id)
	if err != nil {
		return domain.Calendar{}, nil, fmt.Errorf("list calendar dates: %w", err)
	}
	return cal, dates, nil
}

func (c *StepChecker) checkStrategy(ctx context.Context, client *domain.Client, calID domain.CalendarID) (Outcome, error) {
	cal, dates, err := c.clientCalendar(ctx, client, calID)
	if err != nil {
		return Outcome{}, err
	}
	var missing []string
	for _, d := range dates {
		if strings.TrimSpace(d.Resource) == "" {
			missing = append(missing, d.Date.Format("2006-01-02"))
		}
	}
	if len(missing) > 0 {
		return reject("strategy resources missing for dates: %s", strings.Join(missing, ", ")), nil
	}
	if !cal.StrategyCompleted {
		cal.StrategyCompleted = true
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
	}
	return accept("strategy resources verified"), nil
}

func (c *StepChecker) checkContent(ctx context.Context, client *domain.Client, calID domain.CalendarID) (Outcome, error) {
	cal, dates, err := c.clientCalendar(ctx, client, calID)
	if err != nil {
		return Outcome{}, err
	}
	var missing []string
	for _, d := range dates {
		if !d.ContentFilled() {
			missing = append(missing, d.Date.Format("2006-01-02"))
		}
	}
	if len(missing) > 0 {
		return reject("content fields missing for dates: %s", strings.Join(missing, ", ")), nil
	}
	if !cal.ContentCompleted {
		cal.ContentCompleted = true
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
	}
	return accept("content verified"), nil
}

func (c *StepChecker) checkCreatives(ctx context.Context, client *domain.Client, calID domain.CalendarID) (Outcome, error) {
	cal, dates, err := c.clientCalendar(ctx, client, calID)
	if err != nil {
		return Outcome{}, err
	}
	var missing []string
	for _, d := range dates {
		if len(d.Creatives) == 0 {
			missing = append(missing, d.Date.Format("2006-01-02"))
		}
	}
	if len(missing) > 0 {
		return reject("creatives missing for dates: %s", strings.Join(missing, ", ")), nil
	}
	for _, d := range dates {
		for _, key := range d.Creatives {
			ok, err := c.files.Exists(ctx, key)
			if err != nil {
				return Outcome{}, fmt.Errorf("check creative %s: %w", key, err)
			}
			if !ok {
				return reject("creative %q for %s is missing from storage", key, d.Date.Format("2006-01-02")), nil
			}
		}
	}
	if !cal.CreativesCompleted {
		cal.CreativesCompleted = true
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
	}
	return accept("creatives verified"), nil
}

type approvalKind int

const (
	approvalContent approvalKind = iota
	approvalCreatives
)

func (k approvalKind) name() string {
	if k == approvalContent {
		return "content"
	}
	return "creatives"
}

type approverKind int

const (
	approverMarketing approverKind = iota
	approverAccount
)

// checkCalendarApproval handles the four content/creatives sign-off steps.
// Marketing-manager approvals read the internal per-date marks; account-
// manager approvals read the client-facing marks.
func (c *StepChecker) checkCalendarApproval(ctx context.Context, client *domain.Client, ev domain.Evidence, kind approvalKind, by approverKind) (Outcome, error) {
	cal, dates, err := c.clientCalendar(ctx, client, ev.CalendarID)
	if err != nil {
		return Outcome{}, err
	}

	var pending []string
	for _, d := range dates {
		marks := d.InternalStatus
		if by == approverAccount {
			marks = d.ClientApproval
		}
		approved := marks.ContentApproval
		if kind == approvalCreatives {
			approved = marks.CreativesApproval
		}
		if !approved {
			pending = append(pending, d.Date.Format("2006-01-02"))
		}
	}

	switch ev.Decision {
	case domain.DecisionApprove:
		if len(pending) > 0 {
			return reject("%s_approval missing for dates: %s", kind.name(), strings.Join(pending, ", ")), nil
		}
		c.setApprovalState(&cal, kind, by, domain.ApprovalApproved)
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
		return accept("%s approved", kind.name()), nil

	case domain.DecisionChangesRequired:
		c.setApprovalState(&cal, kind, by, domain.ApprovalChangesRequired)
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
		if len(pending) > 0 {
			return rework("%s_approval missing for dates: %s; task goes back for rework", kind.name(), strings.Join(pending, ", ")), nil
		}
		return rework("%s for client %q requires changes; task goes back for rework", kind.name(), client.BusinessName), nil

	default: // declined, evidence already validated
		c.setApprovalState(&cal, kind, by, domain.ApprovalDeclined)
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
		return halt("%s approval for client %q has been declined; the workflow will not proceed", kind.name(), client.BusinessName), nil
	}
}

func (c *StepChecker) setApprovalState(cal *domain.Calendar, kind approvalKind, by approverKind, state domain.ApprovalState) {
	switch {
	case kind == approvalContent && by == approverMarketing:
		cal.MMContentStatus = state
	case kind == approvalContent && by == approverAccount:
		cal.AccContentStatus = state
	case kind == approvalCreatives && by == approverMarketing:
		cal.MMCreativesStatus = state
	default:
		cal.AccCreativesStatus = state
	}
}

func (c *StepChecker) markSMOScheduled(ctx context.Context, client *domain.Client, calID domain.CalendarID) (Outcome, error) {
	cal, _, err := c.clientCalendar(ctx, client, calID)
	if err != nil {
		return Outcome{}, err
	}
	if !cal.SMOCompleted {
		cal.SMOCompleted = true
		if err := c.repo.SaveCalendar(ctx, cal); err != nil {
			return Outcome{}, fmt.Errorf("save calendar: %w", err)
		}
	}
	return accept("SMO scheduling recorded"), nil
}

func (c *StepChecker) clientInvoice(ctx context.Context, client *domain.Client, id domain.InvoiceID) (domain.Invoice, error) {
	inv, err := c.repo.GetInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("lookup invoice %s: %w", id, err)
	}
	if inv.ClientID != client.ID {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
	}
	return inv, nil
}

func (c *StepChecker) checkInvoiceSubmitted(ctx context.Context, client *domain.Client, id domain.InvoiceID) (Outcome, error) {
	inv, err := c.clientInvoice(ctx, client, id)
	if err != nil {
		return Outcome{}, err
	}
	return c.checkFilePresent(ctx, inv.FileRef,
		fmt.Sprintf("no invoice uploaded for client %q", client.BusinessName))
}

func (c *StepChecker) checkInvoiceStatus(ctx context.Context, client *domain.Client, id domain.InvoiceID, want domain.InvoiceStatus) (Outcome, error) {
	inv, err := c.clientInvoice(ctx, client, id)
	if err != nil {
		return Outcome{}, err
	}
	if inv.Status != want {
		return reject("invoice status is %q, expected %q", inv.Status, want), nil
	}
	return accept("invoice status verified as %q", want), nil
}

func nextMonth(t time.Time) (int, time.Month) {
	if t.Month() == time.December {
		return t.Year() + 1, time.January
	}
	return t.Year(), t.Month() + 1
}
