package kernel

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyflow/agencyflow/internal/adapters/duckdb"
	"github.com/agencyflow/agencyflow/internal/adapters/objstore"
	"github.com/agencyflow/agencyflow/internal/core/domain"
	"github.com/agencyflow/agencyflow/internal/core/services"
)

// fakeObjectBackend is a minimal object-store gateway for the e2e test.
type fakeObjectBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjectBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := duckdb.NewRepository(t.TempDir() + "/e2e.db")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	backend := httptest.NewServer(&fakeObjectBackend{objects: map[string][]byte{}})
	t.Cleanup(backend.Close)
	files := objstore.NewClient(backend.URL)

	bus := services.NewEventBus(logger)
	notifier := services.NewNotifier(logger, repo, bus)
	roles := services.NewRoleDirectory(logger, repo, nil)
	graph := services.NewWorkflowGraph(logger, roles, repo)
	checker := services.NewStepChecker(logger, repo, files)
	taskStore := services.NewTaskStore(logger, repo)
	driver := services.NewWorkflowDriver(logger, repo, graph, checker, taskStore, roles, notifier)

	server := NewServer(logger, driver, notifier, bus, files, repo)
	return &testServer{handler: server.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path, caller string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set("X-User-ID", caller)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestServer_WorkflowE2E(t *testing.T) {
	ts := newTestServer(t)

	// Seed users over the API.
	createUser := func(username string, role domain.Role) domain.User {
		w := ts.do(t, "POST", "/v1/users", "", `{"email":"`+username+`@agency.test","username":"`+username+`","role":"`+string(role)+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeBody[domain.User](t, w)
	}
	director := createUser("director", domain.RoleMarketingDirector)
	manager := createUser("manager", domain.RoleMarketingManager)
	am := createUser("am", domain.RoleAccountManager)

	// Team with the marketing manager on it.
	w := ts.do(t, "POST", "/v1/teams", string(director.ID), `{"name":"Core"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	team := decodeBody[domain.Team](t, w)
	w = ts.do(t, "POST", "/v1/teams/"+string(team.ID)+"/members", string(director.ID), `{"user_id":"`+string(manager.ID)+`"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Creating a client seeds the first task for the marketing director.
	w = ts.do(t, "POST", "/v1/clients", string(director.ID),
		`{"business_name":"Acme Bakery","account_manager":"`+string(am.ID)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	client := decodeBody[domain.Client](t, w)

	w = ts.do(t, "GET", "/v1/me/tasks", string(director.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decodeBody[[]domain.Task](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.StepAssignTeam, tasks[0].Step)
	firstTask := tasks[0]

	// Completing before the team is assigned is a 400 with the reason.
	w = ts.do(t, "POST", "/v1/tasks/"+string(firstTask.ID)+"/complete", string(director.ID), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decodeBody[services.Outcome](t, w)
	assert.False(t, out.Accepted)
	assert.Contains(t, out.Message, "not assigned to a team")

	// Wrong caller is a 403.
	w = ts.do(t, "POST", "/v1/tasks/"+string(firstTask.ID)+"/complete", string(am.ID), "")
	require.Equal(t, http.StatusForbidden, w.Code)

	// The director links the client to its team, then the step completes.
	w = ts.do(t, "PATCH", "/v1/clients/"+string(client.ID), string(director.ID),
		`{"team_id":"`+string(team.ID)+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	client = decodeBody[domain.Client](t, w)
	require.NotNil(t, client.TeamID)

	w = ts.do(t, "POST", "/v1/tasks/"+string(firstTask.ID)+"/complete", string(director.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeBody[services.Outcome](t, w)
	assert.True(t, out.Accepted)

	// The proposal task now sits with the marketing manager, who got notified.
	w = ts.do(t, "GET", "/v1/clients/"+string(client.ID)+"/tasks", string(director.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	tasks = decodeBody[[]domain.Task](t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.StepCreateProposal, tasks[0].Step)
	assert.Equal(t, manager.ID, tasks[0].AssignedTo)

	w = ts.do(t, "GET", "/v1/me/notifications", string(manager.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	notes := decodeBody[[]domain.Notification](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyTaskAssigned, notes[0].Type)

	// Upload the proposal, record the ref, then the step completes.
	w = ts.do(t, "PUT", "/v1/files/proposals/"+string(client.ID)+".pdf", string(manager.ID), "%PDF-fake")
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, "PATCH", "/v1/clients/"+string(client.ID), string(manager.ID),
		`{"proposal_ref":"proposals/`+string(client.ID)+`.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)

	proposalTask := tasks[0]
	w = ts.do(t, "POST", "/v1/tasks/"+string(proposalTask.ID)+"/complete", string(manager.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	// approve_proposal with a decision lands with the account manager.
	w = ts.do(t, "GET", "/v1/me/tasks", string(am.ID), "")
	tasks = decodeBody[[]domain.Task](t, w)
	require.Len(t, tasks, 1)
	require.Equal(t, domain.StepApproveProposal, tasks[0].Step)

	// Missing decision is a 400.
	w = ts.do(t, "POST", "/v1/tasks/"+string(tasks[0].ID)+"/complete", string(am.ID), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "POST", "/v1/tasks/"+string(tasks[0].ID)+"/complete", string(am.ID), `{"decision":"approve"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown task is a 404.
	w = ts.do(t, "POST", "/v1/tasks/nope/complete", string(am.ID), "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// Every assignment left a history entry behind.
	w = ts.do(t, "GET", "/v1/history?limit=100", string(director.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeBody[[]domain.HistoryEntry](t, w)
	assert.NotEmpty(t, history)

	w = ts.do(t, "GET", "/v1/history?limit=bogus", string(director.ID), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CalendarReportRef(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/v1/users", "", `{"email":"am@agency.test","username":"am","role":"account_manager"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	am := decodeBody[domain.User](t, w)

	w = ts.do(t, "POST", "/v1/clients", string(am.ID),
		`{"business_name":"Acme Bakery","account_manager":"`+string(am.ID)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	client := decodeBody[domain.Client](t, w)

	w = ts.do(t, "POST", "/v1/clients/"+string(client.ID)+"/calendars", string(am.ID), `{"month_name":"March"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	cal := decodeBody[domain.Calendar](t, w)

	w = ts.do(t, "PATCH", "/v1/calendars/"+string(cal.ID), string(am.ID),
		`{"report_ref":"reports/`+string(cal.ID)+`.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[domain.Calendar](t, w)
	assert.Equal(t, "reports/"+string(cal.ID)+".pdf", updated.ReportRef)
	assert.Equal(t, "March", updated.MonthName)
}

func TestServer_RequiresIdentityHeader(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, "GET", "/v1/me/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_CustomTasks(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/v1/users", "", `{"email":"w@agency.test","username":"writer","role":"content_writer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	writer := decodeBody[domain.User](t, w)
	w = ts.do(t, "POST", "/v1/users", "", `{"email":"am@agency.test","username":"am","role":"account_manager"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	am := decodeBody[domain.User](t, w)

	w = ts.do(t, "POST", "/v1/custom-tasks", string(am.ID),
		`{"client_id":"c-1","assigned_to":"`+string(writer.ID)+`","name":"Extra reel","description":"One more reel for launch week"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	task := decodeBody[domain.CustomTask](t, w)
	assert.False(t, task.Done)

	w = ts.do(t, "GET", "/v1/me/custom-tasks", string(writer.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]domain.CustomTask](t, w)
	require.Len(t, list, 1)

	w = ts.do(t, "PATCH", "/v1/custom-tasks/"+string(task.ID), string(writer.ID), `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[domain.CustomTask](t, w)
	assert.True(t, updated.Done)

	// The assignee got an inbox entry.
	w = ts.do(t, "GET", "/v1/me/notifications", string(writer.ID), "")
	notes := decodeBody[[]domain.Notification](t, w)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Extra reel")
}

func TestServer_EventsSSE(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "POST", "/v1/users", "", `{"email":"w@agency.test","username":"writer","role":"content_writer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	user := decodeBody[domain.User](t, w)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", string(user.ID))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Trigger a notification and read it off the stream.
	go func() {
		time.Sleep(50 * time.Millisecond)
		ts.do(t, "POST", "/v1/custom-tasks", string(user.ID),
			`{"client_id":"c-1","assigned_to":"`+string(user.ID)+`","name":"Ping"}`)
	}()

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: notification")
}
