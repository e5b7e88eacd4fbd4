package domain

import "time"

type NotificationID string
type HistoryID string

type NotificationType string

const (
	NotifyTaskAssigned   NotificationType = "task_assigned"
	NotifyTaskReassigned NotificationType = "task_reassigned"
	NotifyTaskCompleted  NotificationType = "task_completed"
	NotifyTaskDeclined   NotificationType = "task_declined"
	NotifyInfo           NotificationType = "info"
)

// Notification is one inbox entry for a single recipient.
type Notification struct {
	ID        NotificationID   `json:"id"`
	Recipient UserID           `json:"recipient"`
	Sender    *UserID          `json:"sender,omitempty"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	ClientID  *ClientID        `json:"client_id,omitempty"`
	Step      StepType         `json:"step_type,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// HistoryEntry is the append-only "who did what" log. Never updated.
type HistoryEntry struct {
	ID        HistoryID `json:"id"`
	UserID    UserID    `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
