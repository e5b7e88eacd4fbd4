package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func TestEventBusDeliversPerUser(t *testing.T) {
	bus := NewEventBus(testLogger())
	ctx := context.Background()

	ch1, unsub1 := bus.Subscribe("u-1")
	defer unsub1()
	ch2, unsub2 := bus.Subscribe("u-2")
	defer unsub2()

	require.NoError(t, bus.Push(ctx, "u-1", []byte("hello")))

	select {
	case got := <-ch1:
		assert.Equal(t, "hello", string(got))
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive push")
	}

	select {
	case <-ch2:
		t.Fatal("push leaked to another user's channel")
	default:
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus(testLogger())

	ch, unsub := bus.Subscribe("u-1")
	unsub()

	_, open := <-ch
	assert.False(t, open)

	// Pushing to a user with no subscribers is a no-op.
	require.NoError(t, bus.Push(context.Background(), "u-1", []byte("x")))
}

func TestNotifierPersistsAndPushes(t *testing.T) {
	repo := newMemRepo()
	bus := NewEventBus(testLogger())
	notifier := NewNotifier(testLogger(), repo, bus)

	recipient := domain.User{ID: "u-1", Username: "writer", Role: domain.RoleContentWriter}
	sender := domain.User{ID: "u-2", FirstName: "Ana", LastName: "Moss", Role: domain.RoleAccountManager}
	task := domain.Task{ID: "t-1", ClientID: "c-1", Step: domain.StepContentWriting}

	ch, unsub := bus.Subscribe(recipient.ID)
	defer unsub()

	notifier.Notify(context.Background(), recipient, &sender, "content needs rework", domain.NotifyTaskAssigned, &task)

	require.Len(t, repo.notifications, 1)
	note := repo.notifications[0]
	assert.Equal(t, recipient.ID, note.Recipient)
	require.NotNil(t, note.Sender)
	assert.Equal(t, sender.ID, *note.Sender)
	assert.Equal(t, domain.StepContentWriting, note.Step)

	require.Len(t, repo.history, 1)
	assert.Equal(t, sender.ID, repo.history[0].UserID)
	assert.Contains(t, repo.history[0].Action, "Ana Moss")

	select {
	case payload := <-ch:
		assert.Contains(t, string(payload), "content needs rework")
	case <-time.After(time.Second):
		t.Fatal("no push received")
	}
}
