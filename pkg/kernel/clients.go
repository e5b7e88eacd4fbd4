package kernel

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

type createClientRequest struct {
	BusinessName   string        `json:"business_name"`
	ContactPerson  string        `json:"contact_person"`
	BusinessEmail  string        `json:"business_email"`
	AccountManager domain.UserID `json:"account_manager"`
}

// handleCreateClient registers a client and seeds its first workflow task.
func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	var req createClientRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.BusinessName == "" || req.AccountManager == "" {
		http.Error(w, "business_name and account_manager are required", http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetUser(r.Context(), req.AccountManager); err != nil {
		s.writeError(w, err)
		return
	}

	client := domain.Client{
		ID:             domain.ClientID(uuid.NewString()),
		AccountManager: req.AccountManager,
		CreatedBy:      caller,
		BusinessName:   req.BusinessName,
		ContactPerson:  req.ContactPerson,
		BusinessEmail:  req.BusinessEmail,
		Status:         domain.ClientInProgress,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.SaveClient(r.Context(), client); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.driver.StartWorkflow(r.Context(), client); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.repo.GetClient(r.Context(), domain.ClientID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, client)
}

type updateClientRequest struct {
	TeamID         *domain.TeamID        `json:"team_id,omitempty"`
	ProposalRef    *string               `json:"proposal_ref,omitempty"`
	ProposalStatus domain.ProposalStatus `json:"proposal_status,omitempty"`
}

// handleUpdateClient covers the workflow's own data entry: the director links
// the client to a team before completing assign_team, the marketing manager
// records the uploaded proposal key before completing create_proposal.
func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	var req updateClientRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	client, err := s.repo.GetClient(r.Context(), domain.ClientID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.TeamID != nil {
		if _, err := s.repo.GetTeam(r.Context(), *req.TeamID); err != nil {
			s.writeError(w, err)
			return
		}
		client.TeamID = req.TeamID
	}
	if req.ProposalRef != nil {
		client.ProposalRef = *req.ProposalRef
	}
	if req.ProposalStatus != "" {
		switch req.ProposalStatus {
		case domain.ProposalApproved, domain.ProposalChangesRequired, domain.ProposalDeclined:
			client.ProposalStatus = req.ProposalStatus
		default:
			http.Error(w, "invalid proposal status", http.StatusBadRequest)
			return
		}
	}

	if err := s.repo.SaveClient(r.Context(), client); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, client)
}

type createUserRequest struct {
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      domain.Role `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" || req.Role == "" {
		http.Error(w, "email, username and role are required", http.StatusBadRequest)
		return
	}

	u := domain.User{
		ID:        domain.UserID(uuid.NewString()),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveUser(r.Context(), u); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, u)
}

type createTeamRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerID(w, r)
	if !ok {
		return
	}
	var req createTeamRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	team := domain.Team{
		ID:        domain.TeamID(uuid.NewString()),
		Name:      req.Name,
		CreatedBy: caller,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveTeam(r.Context(), team); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, team)
}

type addTeamMemberRequest struct {
	UserID domain.UserID `json:"user_id"`
}

func (s *Server) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID := domain.TeamID(r.PathValue("id"))

	var req addTeamMemberRequest
	if err := decode(r, &req); err != nil || req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetTeam(r.Context(), teamID); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.repo.GetUser(r.Context(), req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.AddTeamMember(r.Context(), domain.TeamMember{TeamID: teamID, UserID: req.UserID}); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createPlanRequest struct {
	PlanType   string   `json:"plan_type"`
	Platforms  []string `json:"platforms"`
	GrandTotal float64  `json:"grand_total"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	clientID := domain.ClientID(r.PathValue("id"))

	var req createPlanRequest
	if err := decode(r, &req); err != nil || req.PlanType == "" {
		http.Error(w, "plan_type is required", http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetClient(r.Context(), clientID); err != nil {
		s.writeError(w, err)
		return
	}

	plan := domain.ClientPlan{
		ID:         domain.PlanID(uuid.NewString()),
		ClientID:   clientID,
		PlanType:   req.PlanType,
		Platforms:  req.Platforms,
		GrandTotal: req.GrandTotal,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.SavePlan(r.Context(), plan); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, plan)
}

type createMeetingRequest struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	clientID := domain.ClientID(r.PathValue("id"))

	var req createMeetingRequest
	if err := decode(r, &req); err != nil || req.Date.IsZero() {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetClient(r.Context(), clientID); err != nil {
		s.writeError(w, err)
		return
	}

	m := domain.Meeting{
		ID:        domain.MeetingID(uuid.NewString()),
		ClientID:  clientID,
		Title:     req.Title,
		Date:      req.Date,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveMeeting(r.Context(), m); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

type createCalendarRequest struct {
	MonthName string `json:"month_name"`
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	clientID := domain.ClientID(r.PathValue("id"))

	var req createCalendarRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetClient(r.Context(), clientID); err != nil {
		s.writeError(w, err)
		return
	}

	cal := domain.Calendar{
		ID:        domain.CalendarID(uuid.NewString()),
		ClientID:  clientID,
		MonthName: req.MonthName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveCalendar(r.Context(), cal); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, cal)
}

type updateCalendarRequest struct {
	MonthName *string `json:"month_name,omitempty"`
	ReportRef *string `json:"report_ref,omitempty"`
}

// handleUpdateCalendar records the monthly report key (and a month rename)
// after the reporting step; completion flags and approval states belong to
// the workflow and are not writable here.
func (s *Server) handleUpdateCalendar(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}
	var req updateCalendarRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cal, err := s.repo.GetCalendar(r.Context(), domain.CalendarID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.MonthName != nil {
		cal.MonthName = *req.MonthName
	}
	if req.ReportRef != nil {
		cal.ReportRef = *req.ReportRef
	}
	if err := s.repo.SaveCalendar(r.Context(), cal); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cal)
}

// handleSaveCalendarDate upserts one posting date. The id field is optional;
// absent means create.
func (s *Server) handleSaveCalendarDate(w http.ResponseWriter, r *http.Request) {
	calID := domain.CalendarID(r.PathValue("id"))

	var d domain.CalendarDate
	if err := decode(r, &d); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if d.Date.IsZero() {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetCalendar(r.Context(), calID); err != nil {
		s.writeError(w, err)
		return
	}

	d.CalendarID = calID
	if d.ID == "" {
		d.ID = domain.CalendarDateID(uuid.NewString())
		d.CreatedAt = time.Now().UTC()
	}
	if d.PostCount == 0 {
		d.PostCount = 1
	}
	if err := s.repo.SaveCalendarDate(r.Context(), d); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListCalendarDates(w http.ResponseWriter, r *http.Request) {
	calID := domain.CalendarID(r.PathValue("id"))
	dates, err := s.repo.ListCalendarDates(r.Context(), calID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if dates == nil {
		dates = []domain.CalendarDate{}
	}
	s.writeJSON(w, http.StatusOK, dates)
}

type createInvoiceRequest struct {
	BillingFrom string `json:"billing_from"`
	BillingTo   string `json:"billing_to"`
	FileRef     string `json:"file_ref"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	clientID := domain.ClientID(r.PathValue("id"))

	var req createInvoiceRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.repo.GetClient(r.Context(), clientID); err != nil {
		s.writeError(w, err)
		return
	}

	inv := domain.Invoice{
		ID:          domain.InvoiceID(uuid.NewString()),
		ClientID:    clientID,
		BillingFrom: req.BillingFrom,
		BillingTo:   req.BillingTo,
		FileRef:     req.FileRef,
		Status:      domain.InvoiceWaitingApproval,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.SaveInvoice(r.Context(), inv); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}

type updateInvoiceRequest struct {
	Status  domain.InvoiceStatus `json:"status,omitempty"`
	FileRef *string              `json:"file_ref,omitempty"`
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id := domain.InvoiceID(r.PathValue("id"))

	var req updateInvoiceRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := s.repo.GetInvoice(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Status != "" {
		switch req.Status {
		case domain.InvoiceWaitingApproval, domain.InvoiceUnpaid, domain.InvoicePaid, domain.InvoiceChangesRequired:
			inv.Status = req.Status
		default:
			http.Error(w, "invalid invoice status", http.StatusBadRequest)
			return
		}
	}
	if req.FileRef != nil {
		inv.FileRef = *req.FileRef
	}
	if err := s.repo.SaveInvoice(r.Context(), inv); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}
