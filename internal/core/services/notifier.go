package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agencyflow/agencyflow/internal/core/domain"
	"github.com/agencyflow/agencyflow/internal/core/ports"
)

// NotifyRepo is the storage surface for the inbox and the audit log.
type NotifyRepo interface {
	SaveNotification(ctx context.Context, n domain.Notification) error
	AppendHistory(ctx context.Context, h domain.HistoryEntry) error
}

// Notification is a side effect of a workflow transition, never part of it:
// every failure in here is logged and swallowed so an undeliverable push can
// not roll back a committed task transition.
type Notifier struct {
	logger  *slog.Logger
	repo    NotifyRepo
	pushers []ports.Pusher
	now     func() time.Time
}

func NewNotifier(logger *slog.Logger, repo NotifyRepo, pushers ...ports.Pusher) *Notifier {
	return &Notifier{logger: logger, repo: repo, pushers: pushers, now: time.Now}
}

// pushPayload is the wire shape pushed to real-time subscribers.
type pushPayload struct {
	ID         string                  `json:"id"`
	Recipient  domain.UserID           `json:"recipient"`
	SenderID   *domain.UserID          `json:"sender_id,omitempty"`
	SenderName string                  `json:"sender_name,omitempty"`
	ClientID   *domain.ClientID        `json:"client_id,omitempty"`
	StepType   domain.StepType         `json:"step_type,omitempty"`
	Type       domain.NotificationType `json:"type"`
	Message    string                  `json:"message"`
}

// Notify persists an inbox entry and a history line, then pushes the payload
// to every transport. sender may be nil for system-originated messages; task
// links the notification to a client and step when present.
func (n *Notifier) Notify(ctx context.Context, recipient domain.User, sender *domain.User, msg string, typ domain.NotificationType, task *domain.Task) {
	note := domain.Notification{
		ID:        domain.NotificationID(uuid.NewString()),
		Recipient: recipient.ID,
		Message:   msg,
		Type:      typ,
		CreatedAt: n.now(),
	}
	payload := pushPayload{
		ID:        string(note.ID),
		Recipient: recipient.ID,
		Type:      typ,
		Message:   msg,
	}
	if sender != nil {
		note.Sender = &sender.ID
		payload.SenderID = &sender.ID
		payload.SenderName = sender.FullName()
	}
	if task != nil {
		note.ClientID = &task.ClientID
		note.Step = task.Step
		payload.ClientID = &task.ClientID
		payload.StepType = task.Step
	}

	if err := n.repo.SaveNotification(ctx, note); err != nil {
		n.logger.Error("failed to persist notification", "recipient", recipient.ID, "error", err)
	}

	action := msg
	actor := recipient
	if sender != nil {
		actor = *sender
		action = fmt.Sprintf("%s (%s) performed action: %s", sender.FullName(), sender.Role, msg)
	}
	if err := n.repo.AppendHistory(ctx, domain.HistoryEntry{
		ID:        domain.HistoryID(uuid.NewString()),
		UserID:    actor.ID,
		Action:    action,
		CreatedAt: n.now(),
	}); err != nil {
		n.logger.Error("failed to append history", "user", actor.ID, "error", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal push payload", "error", err)
		return
	}
	for _, p := range n.pushers {
		if err := p.Push(ctx, recipient.ID, raw); err != nil {
			n.logger.Warn("push delivery failed", "recipient", recipient.ID, "error", err)
		}
	}
}
