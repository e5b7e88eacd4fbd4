package domain

import "time"

type CalendarID string
type CalendarDateID string

// ApprovalState tracks a manager-level sign-off on a whole calendar.
type ApprovalState string

const (
	ApprovalWaiting         ApprovalState = "waiting_for_approval"
	ApprovalApproved        ApprovalState = "approved"
	ApprovalChangesRequired ApprovalState = "changes_required"
	ApprovalDeclined        ApprovalState = "declined"
)

// Calendar is one month of planned content for a client.
type Calendar struct {
	ID        CalendarID `json:"id"`
	ClientID  ClientID   `json:"client_id"`
	MonthName string     `json:"month_name"`

	StrategyCompleted  bool `json:"strategy_completed"`
	ContentCompleted   bool `json:"content_completed"`
	CreativesCompleted bool `json:"creatives_completed"`
	SMOCompleted       bool `json:"smo_completed"`

	MMContentStatus    ApprovalState `json:"mm_content_status"`
	AccContentStatus   ApprovalState `json:"acc_content_status"`
	MMCreativesStatus  ApprovalState `json:"mm_creatives_status"`
	AccCreativesStatus ApprovalState `json:"acc_creatives_status"`

	ReportRef string    `json:"report_ref,omitempty"` // monthly report PDF key
	CreatedAt time.Time `json:"created_at"`
}

// ApprovalMarks is the per-date approval sub-record. Fixed fields on purpose:
// the keys are part of the schema, not caller-supplied.
type ApprovalMarks struct {
	ContentApproval   bool `json:"content_approval"`
	CreativesApproval bool `json:"creatives_approval"`
}

// CalendarDate is one posting date inside a calendar. The strategy step fills
// Resource, content writing fills the five content fields, creatives design
// fills the Creatives refs.
type CalendarDate struct {
	ID         CalendarDateID `json:"id"`
	CalendarID CalendarID     `json:"calendar_id"`
	Date       time.Time      `json:"date"`
	PostCount  int            `json:"post_count"`

	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	CTA      string `json:"cta,omitempty"`

	Resource        string   `json:"resource,omitempty"`
	Tagline         string   `json:"tagline,omitempty"`
	Caption         string   `json:"caption,omitempty"`
	Hashtags        string   `json:"hashtags,omitempty"`
	EngagementHooks string   `json:"engagement_hooks,omitempty"`
	CreativesText   string   `json:"creatives_text,omitempty"`
	Creatives       []string `json:"creatives,omitempty"` // object-store keys

	InternalStatus ApprovalMarks `json:"internal_status"`
	ClientApproval ApprovalMarks `json:"client_approval"`

	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentFilled reports whether all five content fields are present.
func (d CalendarDate) ContentFilled() bool {
	return d.Tagline != "" && d.Caption != "" && d.Hashtags != "" &&
		d.EngagementHooks != "" && d.CreativesText != ""
}
