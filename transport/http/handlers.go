/*
handlers.go - HTTP handlers mapping spec §6's endpoint table onto
lifecycle/approvalsvc/query, grounded on the teacher's api/handlers.go
request-flow: parse request, call domain logic, serialize response,
translate errors — but with an actor resolved from a trusted header set
(spec §1 treats authentication as an external collaborator) instead of
the teacher's unauthenticated-everywhere posture.

ERROR HANDLING:
  Every domain call returns *core.Error; writeDomainError reads its
  Status/Code/Message/Fields fields directly (no HTTP-status switch
  lives here, matching "no core package performs HTTP translation
  itself" — this package only READS Status, it never computes one).
*/
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/campuspay/timesheet-core/approvalsvc"
	"github.com/campuspay/timesheet-core/config"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/lifecycle"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/query"
)

// Handler holds every collaborator the HTTP surface dispatches to.
type Handler struct {
	Lifecycle *lifecycle.Service
	Approval  *approvalsvc.Service
	Query     *query.Service
	Config    config.Config
	Log       *core.Logger
}

// NewHandler constructs a Handler.
func NewHandler(lc *lifecycle.Service, ap *approvalsvc.Service, q *query.Service, cfg config.Config, log *core.Logger) *Handler {
	return &Handler{Lifecycle: lc, Approval: ap, Query: q, Config: cfg, Log: log}
}

// =============================================================================
// ACTOR RESOLUTION
// =============================================================================

// actorFromRequest resolves the caller's permission.Actor from the trusted
// X-Actor-Id / X-Actor-Role headers a reverse proxy or gateway is expected
// to set after authenticating the caller (spec §1: "authentication token
// issuance... out of scope, treated as an external collaborator").
func actorFromRequest(r *http.Request) (permission.Actor, *core.Error) {
	idHeader := r.Header.Get("X-Actor-Id")
	roleHeader := r.Header.Get("X-Actor-Role")
	if idHeader == "" || roleHeader == "" {
		return permission.Actor{}, core.ErrAuthorizationFailed
	}
	id, err := strconv.ParseInt(idHeader, 10, 64)
	if err != nil {
		return permission.Actor{}, core.ErrAuthorizationFailed
	}
	role := core.Role(roleHeader)
	if !role.Valid() {
		return permission.Actor{}, core.ErrAuthorizationFailed
	}
	return permission.Actor{ID: core.UserID(id), Role: role}, nil
}

// =============================================================================
// CONFIG
// =============================================================================

// GetConfig serves GET /timesheets/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigDTO{
		HoursMin:            h.Config.HoursMin,
		HoursMax:            h.Config.HoursMax,
		HoursStep:           h.Config.HoursStep,
		WeekStartMondayOnly: h.Config.WeekStartMondayOnly,
		Currency:            h.Config.Currency,
	})
}

// =============================================================================
// QUOTE
// =============================================================================

// Quote serves POST /timesheets/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	var body QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed)
		return
	}
	in, ierr := toQuoteInput(body)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	quote, qerr := h.Lifecycle.Quote(r.Context(), actor, in)
	if qerr != nil {
		h.writeDomainError(w, r, qerr)
		return
	}
	writeJSON(w, http.StatusOK, quoteDTO(quote))
}

func toQuoteInput(body QuoteRequest) (lifecycle.QuoteInput, *core.Error) {
	week, err := core.ParseWeek(body.SessionDate)
	if err != nil {
		return lifecycle.QuoteInput{}, core.ErrValidationFailed.WithFields(map[string]string{"sessionDate": "must be YYYY-MM-DD"})
	}
	return lifecycle.QuoteInput{
		TaskType:               body.TaskType,
		Qualification:          body.Qualification,
		Repeat:                 body.Repeat,
		DeliveryHours:          core.NewHours(body.DeliveryHours),
		SessionDate:            week,
		ContemporaneousMarking: body.ContemporaneousMarking,
	}, nil
}

// =============================================================================
// TIMESHEET CRUD
// =============================================================================

// CreateTimesheet serves POST /timesheets.
func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	var body CreateTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed)
		return
	}
	week, werr := core.ParseWeek(body.WeekStart)
	if werr != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed.WithFields(map[string]string{"weekStart": "must be YYYY-MM-DD"}))
		return
	}
	quoteIn, ierr := toQuoteInput(body.Quote)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	ts, cerr := h.Lifecycle.Create(r.Context(), actor, lifecycle.CreateInput{
		TutorID:     core.UserID(body.TutorID),
		CourseID:    core.CourseID(body.CourseID),
		WeekStart:   week,
		Description: body.Description,
		Quote:       quoteIn,
	})
	if cerr != nil {
		h.writeDomainError(w, r, cerr)
		return
	}
	writeJSON(w, http.StatusCreated, timesheetDTO(ts))
}

// UpdateTimesheet serves PUT /timesheets/{id}.
func (h *Handler) UpdateTimesheet(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	id, ierr := pathTimesheetID(r)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	var body UpdateTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed)
		return
	}
	quoteIn, qerr := toQuoteInput(body.Quote)
	if qerr != nil {
		h.writeDomainError(w, r, qerr)
		return
	}
	ts, uerr := h.Lifecycle.Update(r.Context(), actor, id, lifecycle.UpdateInput{
		Description: body.Description,
		Quote:       quoteIn,
	})
	if uerr != nil {
		h.writeDomainError(w, r, uerr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts))
}

// DeleteTimesheet serves DELETE /timesheets/{id}.
func (h *Handler) DeleteTimesheet(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	id, ierr := pathTimesheetID(r)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	if derr := h.Lifecycle.Delete(r.Context(), actor, id); derr != nil {
		h.writeDomainError(w, r, derr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitTimesheet serves POST /timesheets/{id}/submit.
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	id, ierr := pathTimesheetID(r)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	ts, serr := h.Lifecycle.Submit(r.Context(), actor, id)
	if serr != nil {
		h.writeDomainError(w, r, serr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts))
}

func pathTimesheetID(r *http.Request) (core.TimesheetID, *core.Error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.ErrValidationFailed.WithFields(map[string]string{"id": "must be numeric"})
	}
	return core.TimesheetID(n), nil
}

// =============================================================================
// QUERY / LIST / DASHBOARD
// =============================================================================

// GetTimesheet serves GET /timesheets/{id}.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	id, ierr := pathTimesheetID(r)
	if ierr != nil {
		h.writeDomainError(w, r, ierr)
		return
	}
	ts, gerr := h.Query.Get(r.Context(), actor, id)
	if gerr != nil {
		h.writeDomainError(w, r, gerr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts))
}

// ListTimesheets serves GET /timesheets[?filter].
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	filter, ferr := parseListFilter(r)
	if ferr != nil {
		h.writeDomainError(w, r, ferr)
		return
	}
	items, lerr := h.Query.ListTimesheets(r.Context(), actor, filter, parsePage(r))
	if lerr != nil {
		h.writeDomainError(w, r, lerr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTOs(items))
}

// MyTimesheets serves GET /timesheets/me.
func (h *Handler) MyTimesheets(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	items, merr := h.Query.MyTimesheets(r.Context(), actor, parsePage(r))
	if merr != nil {
		h.writeDomainError(w, r, merr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTOs(items))
}

// PendingApproval serves GET /timesheets/pending-approval: timesheets
// awaiting the caller's own tutor confirmation.
func (h *Handler) PendingApproval(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	items, perr := h.Query.PendingForTutor(r.Context(), actor, actor.ID, parsePage(r))
	if perr != nil {
		h.writeDomainError(w, r, perr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTOs(items))
}

// PendingFinalApproval serves GET /timesheets/pending-final-approval:
// timesheets awaiting the caller's own lecturer confirmation.
func (h *Handler) PendingFinalApproval(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	items, perr := h.Query.PendingForLecturer(r.Context(), actor, actor.ID, parsePage(r))
	if perr != nil {
		h.writeDomainError(w, r, perr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTOs(items))
}

// PendingAdminConfirmation serves GET /timesheets/pending-admin-confirmation
// (supplemented: query.PendingForAdmin has no endpoint in spec §6's table,
// but ADMIN needs a way to see the LECTURER_CONFIRMED queue it confirms).
func (h *Handler) PendingAdminConfirmation(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	items, perr := h.Query.PendingForAdmin(r.Context(), actor, parsePage(r))
	if perr != nil {
		h.writeDomainError(w, r, perr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTOs(items))
}

func parsePage(r *http.Request) query.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return query.Page{Limit: limit, Offset: offset}
}

func parseListFilter(r *http.Request) (query.ListFilter, *core.Error) {
	q := r.URL.Query()
	filter := query.ListFilter{}

	if raw := q.Get("tutorId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return query.ListFilter{}, core.ErrValidationFailed.WithFields(map[string]string{"tutorId": "must be numeric"})
		}
		id := core.UserID(n)
		filter.TutorID = &id
	}
	if raw := q.Get("courseId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return query.ListFilter{}, core.ErrValidationFailed.WithFields(map[string]string{"courseId": "must be numeric"})
		}
		id := core.CourseID(n)
		filter.CourseID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := core.Status(raw)
		filter.Status = &status
	}
	if raw := q.Get("weekFrom"); raw != "" {
		w, err := core.ParseWeek(raw)
		if err != nil {
			return query.ListFilter{}, core.ErrValidationFailed.WithFields(map[string]string{"weekFrom": "must be YYYY-MM-DD"})
		}
		filter.WeekFrom = &w
	}
	if raw := q.Get("weekTo"); raw != "" {
		w, err := core.ParseWeek(raw)
		if err != nil {
			return query.ListFilter{}, core.ErrValidationFailed.WithFields(map[string]string{"weekTo": "must be YYYY-MM-DD"})
		}
		filter.WeekTo = &w
	}
	return filter, nil
}

// =============================================================================
// APPROVALS
// =============================================================================

// ApplyApprovalAction serves POST /approvals.
func (h *Handler) ApplyApprovalAction(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	var body ApplyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed)
		return
	}
	ts, perr := h.Approval.Apply(r.Context(), actor, core.TimesheetID(body.TimesheetID), body.Action, body.Comment)
	if perr != nil {
		h.writeDomainError(w, r, perr)
		return
	}
	writeJSON(w, http.StatusOK, timesheetDTO(ts))
}

// ApprovalHistory serves GET /approvals/history/{timesheetId}.
func (h *Handler) ApprovalHistory(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	raw := chi.URLParam(r, "timesheetId")
	n, nerr := strconv.ParseInt(raw, 10, 64)
	if nerr != nil {
		h.writeDomainError(w, r, core.ErrValidationFailed.WithFields(map[string]string{"timesheetId": "must be numeric"}))
		return
	}
	entries, herr := h.Query.History(r.Context(), actor, core.TimesheetID(n))
	if herr != nil {
		h.writeDomainError(w, r, herr)
		return
	}
	writeJSON(w, http.StatusOK, historyDTOs(entries))
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardSummary serves GET /dashboard/summary?courseId.
// startDate/endDate query parameters are not read: the underlying
// query.DashboardSummary computes its own current/previous week window
// from the server clock rather than an arbitrary client-supplied range.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	actor, aerr := actorFromRequest(r)
	if aerr != nil {
		h.writeDomainError(w, r, aerr)
		return
	}
	var courseID *core.CourseID
	if raw := r.URL.Query().Get("courseId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeDomainError(w, r, core.ErrValidationFailed.WithFields(map[string]string{"courseId": "must be numeric"}))
			return
		}
		id := core.CourseID(n)
		courseID = &id
	}
	summary, serr := h.Query.DashboardSummary(r.Context(), actor, courseID)
	if serr != nil {
		h.writeDomainError(w, r, serr)
		return
	}
	writeJSON(w, http.StatusOK, dashboardSummaryDTO(summary))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError renders a *core.Error as the {success, error, message,
// traceId} envelope spec §6 documents, using Error.Status as the HTTP
// status verbatim (no switch lives in this package).
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err *core.Error) {
	traceID := middleware.GetReqID(r.Context())
	if err.Code == core.CodePersistenceFailure {
		h.Log.Error("persistence failure", traceID, err)
	}
	if err.Code == core.CodeAuthorizationFailed {
		h.Log.Info("authorization failed", "traceId", traceID, "message", err.Message)
	}
	writeJSON(w, err.Status, ErrorResponse{
		Success: false,
		Error:   err.Code,
		Message: err.Message,
		TraceID: traceID,
		Fields:  err.Fields,
	})
}
