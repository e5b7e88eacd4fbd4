package ports

import (
	"context"
	"io"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// Repository abstracts the persistent storage (DuckDB).
type Repository interface {
	// Users & teams
	SaveUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
	FirstUserWithRole(ctx context.Context, role domain.Role) (*domain.User, error)
	SaveTeam(ctx context.Context, t domain.Team) error
	GetTeam(ctx context.Context, id domain.TeamID) (domain.Team, error)
	AddTeamMember(ctx context.Context, m domain.TeamMember) error
	// TeamMemberWithRole returns the first member of the team holding the
	// role, or nil when the team has no such member.
	TeamMemberWithRole(ctx context.Context, teamID domain.TeamID, role domain.Role) (*domain.User, error)

	// Clients
	SaveClient(ctx context.Context, c domain.Client) error
	GetClient(ctx context.Context, id domain.ClientID) (domain.Client, error)
	SavePlan(ctx context.Context, p domain.ClientPlan) error
	ClientHasPlan(ctx context.Context, clientID domain.ClientID) (bool, error)
	SaveInvoice(ctx context.Context, inv domain.Invoice) error
	GetInvoice(ctx context.Context, id domain.InvoiceID) (domain.Invoice, error)

	// Calendars
	SaveCalendar(ctx context.Context, cal domain.Calendar) error
	GetCalendar(ctx context.Context, id domain.CalendarID) (domain.Calendar, error)
	SaveCalendarDate(ctx context.Context, d domain.CalendarDate) error
	ListCalendarDates(ctx context.Context, calID domain.CalendarID) ([]domain.CalendarDate, error)

	// Meetings
	SaveMeeting(ctx context.Context, m domain.Meeting) error
	GetMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error)
	// CountMeetingsInMonth counts a client's meetings dated in the given
	// calendar month.
	CountMeetingsInMonth(ctx context.Context, clientID domain.ClientID, year int, month int) (int, error)
	// ClientHasMeetingBefore reports whether any meeting predates the cutoff
	// date (RFC 3339 date, e.g. "2026-08-01").
	ClientHasMeetingBefore(ctx context.Context, clientID domain.ClientID, cutoff string) (bool, error)

	// Workflow tasks. SaveTask upserts on id; FindTaskByStep returns nil when
	// the client has no task of that step type.
	SaveTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, id domain.TaskID) (domain.Task, error)
	FindTaskByStep(ctx context.Context, clientID domain.ClientID, step domain.StepType) (*domain.Task, error)
	// CompleteAndActivate marks completed done and upserts next in a single
	// transaction so a crash mid-advance cannot strand the client without an
	// active task. next may be nil (workflow end or dead end).
	CompleteAndActivate(ctx context.Context, completed domain.Task, next *domain.Task) error
	ListPendingTasksForClient(ctx context.Context, clientID domain.ClientID) ([]domain.Task, error)
	ListPendingTasksForUser(ctx context.Context, userID domain.UserID) ([]domain.Task, error)

	// Custom tasks
	SaveCustomTask(ctx context.Context, t domain.CustomTask) error
	GetCustomTask(ctx context.Context, id domain.CustomTaskID) (domain.CustomTask, error)
	ListCustomTasksForUser(ctx context.Context, userID domain.UserID) ([]domain.CustomTask, error)
	ListCustomTasksForClient(ctx context.Context, clientID domain.ClientID) ([]domain.CustomTask, error)

	// Notifications & history
	SaveNotification(ctx context.Context, n domain.Notification) error
	ListNotifications(ctx context.Context, recipient domain.UserID) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id domain.NotificationID) error
	AppendHistory(ctx context.Context, h domain.HistoryEntry) error
	ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// FileStore abstracts the object storage gateway. The workflow core only
// ever sees opaque keys; bucket layout and URLs live behind this port.
type FileStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Pusher delivers a real-time notification payload to one user. Delivery is
// fire-and-forget; failures are logged by the notifier, never surfaced to
// the workflow caller.
type Pusher interface {
	Push(ctx context.Context, userID domain.UserID, payload []byte) error
}
