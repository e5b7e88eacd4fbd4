package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo is the in-memory stand-in for the DuckDB repository, shared by the
// service tests in this package.
type memRepo struct {
	mu        sync.Mutex
	users     []domain.User
	members   []domain.TeamMember
	clients   map[domain.ClientID]domain.Client
	plans     map[domain.ClientID]bool
	invoices  map[domain.InvoiceID]domain.Invoice
	calendars map[domain.CalendarID]domain.Calendar
	dates     map[domain.CalendarID][]domain.CalendarDate
	meetings  map[domain.MeetingID]domain.Meeting
	tasks     map[domain.TaskID]domain.Task

	notifications []domain.Notification
	history       []domain.HistoryEntry
}

func newMemRepo() *memRepo {
	return &memRepo{
		clients:   make(map[domain.ClientID]domain.Client),
		plans:     make(map[domain.ClientID]bool),
		invoices:  make(map[domain.InvoiceID]domain.Invoice),
		calendars: make(map[domain.CalendarID]domain.Calendar),
		dates:     make(map[domain.CalendarID][]domain.CalendarDate),
		meetings:  make(map[domain.MeetingID]domain.Meeting),
		tasks:     make(map[domain.TaskID]domain.Task),
	}
}

func (m *memRepo) addUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

func (m *memRepo) GetUser(_ context.Context, id domain.UserID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (m *memRepo) FirstUserWithRole(_ context.Context, role domain.Role) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == role {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memRepo) TeamMemberWithRole(ctx context.Context, teamID domain.TeamID, role domain.Role) (*domain.User, error) {
	m.mu.Lock()
	members := append([]domain.TeamMember(nil), m.members...)
	m.mu.Unlock()
	for _, tm := range members {
		if tm.TeamID != teamID {
			continue
		}
		u, err := m.GetUser(ctx, tm.UserID)
		if err != nil {
			continue
		}
		if u.Role == role {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memRepo) addMember(teamID domain.TeamID, userID domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = append(m.members, domain.TeamMember{TeamID: teamID, UserID: userID})
}

func (m *memRepo) SaveClient(_ context.Context, c domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *memRepo) GetClient(_ context.Context, id domain.ClientID) (domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return domain.Client{}, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (m *memRepo) ClientHasPlan(_ context.Context, clientID domain.ClientID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[clientID], nil
}

func (m *memRepo) GetInvoice(_ context.Context, id domain.InvoiceID) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
	}
	return inv, nil
}

func (m *memRepo) GetCalendar(_ context.Context, id domain.CalendarID) (domain.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cal, ok := m.calendars[id]
	if !ok {
		return domain.Calendar{}, fmt.Errorf("calendar %s: %w", id, domain.ErrNotFound)
	}
	return cal, nil
}

func (m *memRepo) SaveCalendar(_ context.Context, cal domain.Calendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[cal.ID] = cal
	return nil
}

func (m *memRepo) ListCalendarDates(_ context.Context, calID domain.CalendarID) ([]domain.CalendarDate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CalendarDate(nil), m.dates[calID]...), nil
}

func (m *memRepo) setDates(calID domain.CalendarID, dates ...domain.CalendarDate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dates[calID] = dates
}

func (m *memRepo) GetMeeting(_ context.Context, id domain.MeetingID) (domain.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.meetings[id]
	if !ok {
		return domain.Meeting{}, fmt.Errorf("meeting %s: %w", id, domain.ErrNotFound)
	}
	return mt, nil
}

func (m *memRepo) CountMeetingsInMonth(_ context.Context, clientID domain.ClientID, year int, month int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, mt := range m.meetings {
		if mt.ClientID == clientID && mt.Date.Year() == year && int(mt.Date.Month()) == month {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ClientHasMeetingBefore(_ context.Context, clientID domain.ClientID, cutoff string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit, err := time.Parse("2006-01-02", cutoff)
	if err != nil {
		return false, err
	}
	for _, mt := range m.meetings {
		if mt.ClientID == clientID && mt.Date.Before(limit) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) GetTask(_ context.Context, id domain.TaskID) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (m *memRepo) FindTaskByStep(_ context.Context, clientID domain.ClientID, step domain.StepType) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ClientID == clientID && t.Step == step {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memRepo) SaveTask(_ context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *memRepo) CompleteAndActivate(_ context.Context, completed domain.Task, next *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[completed.ID] = completed
	if next != nil {
		m.tasks[next.ID] = *next
	}
	return nil
}

func (m *memRepo) SaveNotification(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memRepo) AppendHistory(_ context.Context, h domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, h)
	return nil
}

func (m *memRepo) pendingForClient(clientID domain.ClientID) []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if t.ClientID == clientID && !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

func (m *memRepo) taskForStep(clientID domain.ClientID, step domain.StepType) *domain.Task {
	t, _ := m.FindTaskByStep(context.Background(), clientID, step)
	return t
}

// fakeFiles is an in-memory object store.
type fakeFiles struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeFiles(keys ...string) *fakeFiles {
	f := &fakeFiles{keys: make(map[string]bool)}
	for _, k := range keys {
		f.keys[k] = true
	}
	return f
}

func (f *fakeFiles) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}

func (f *fakeFiles) Put(_ context.Context, key string, _ io.Reader, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = true
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}
