/*
dto.go - request/response shapes for the timesheet HTTP surface.

Decouples the wire format from the domain types the way the teacher's
api/dto.go decouples EmployeeDTO/PolicyDTO from generic.Policy: *DTO types
are returned to clients, *Request types are decoded from client bodies.
Money/hours in responses cross the wire as decimal strings (rendered with
String()), never as float64 in Go-side arithmetic; the one inbound hours
value, QuoteRequest.DeliveryHours, is a JSON number decoded to float64 and
converted with core.NewHours.
*/
package http

import (
	"time"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/query"
	"github.com/campuspay/timesheet-core/timesheet"
)

// QuoteRequest is the body of POST /timesheets/quote and the embedded
// "quote" portion of create/update requests.
type QuoteRequest struct {
	TaskType               core.TaskType       `json:"taskType"`
	Qualification          core.Qualification  `json:"qualification"`
	Repeat                 bool                `json:"repeat"`
	DeliveryHours          float64             `json:"deliveryHours"`
	SessionDate            string              `json:"sessionDate"`
	ContemporaneousMarking bool                `json:"contemporaneousMarking"`
}

// QuoteDTO renders a calculator.Quote.
type QuoteDTO struct {
	RateCode        string  `json:"rateCode"`
	HourlyRate      string  `json:"hourlyRate"`
	DeliveryHours   string  `json:"deliveryHours"`
	AssociatedHours string  `json:"associatedHours"`
	PayableHours    string  `json:"payableHours"`
	Amount          string  `json:"amount"`
	Formula         string  `json:"formula"`
	ClauseReference string  `json:"clauseReference"`
}

func quoteDTO(q calculator.Quote) QuoteDTO {
	return QuoteDTO{
		RateCode:        q.RateCode,
		HourlyRate:      q.HourlyRate.String(),
		DeliveryHours:   q.DeliveryHours.String(),
		AssociatedHours: q.AssociatedHours.String(),
		PayableHours:    q.PayableHours.String(),
		Amount:          q.Amount.String(),
		Formula:         q.Formula,
		ClauseReference: q.ClauseReference,
	}
}

// CreateTimesheetRequest is the body of POST /timesheets.
type CreateTimesheetRequest struct {
	TutorID     int64        `json:"tutorId"`
	CourseID    int64        `json:"courseId"`
	WeekStart   string       `json:"weekStart"`
	Description string       `json:"description"`
	Quote       QuoteRequest `json:"quote"`
}

// UpdateTimesheetRequest is the body of PUT /timesheets/{id}.
type UpdateTimesheetRequest struct {
	Description string       `json:"description"`
	Quote       QuoteRequest `json:"quote"`
}

// ApplyActionRequest is the body of POST /approvals.
type ApplyActionRequest struct {
	TimesheetID int64       `json:"timesheetId"`
	Action      core.Action `json:"action"`
	Comment     string      `json:"comment,omitempty"`
}

// TimesheetDTO renders a timesheet.Timesheet for API responses.
type TimesheetDTO struct {
	ID              int64     `json:"id"`
	TutorID         int64     `json:"tutorId"`
	CourseID        int64     `json:"courseId"`
	WeekStart       string    `json:"weekStart"`
	TaskType        string    `json:"taskType"`
	Qualification   string    `json:"qualification"`
	Repeat          bool      `json:"repeat"`
	DeliveryHours   string    `json:"deliveryHours"`
	AssociatedHours string    `json:"associatedHours"`
	HourlyRate      string    `json:"hourlyRate"`
	RateCode        string    `json:"rateCode"`
	ClauseReference string    `json:"clauseReference"`
	Formula         string    `json:"formula"`
	Amount          string    `json:"amount"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedBy       int64     `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int       `json:"version"`
}

func timesheetDTO(ts *timesheet.Timesheet) TimesheetDTO {
	return TimesheetDTO{
		ID:              int64(ts.ID),
		TutorID:         int64(ts.TutorID),
		CourseID:        int64(ts.CourseID),
		WeekStart:       ts.WeekStart.String(),
		TaskType:        string(ts.TaskType),
		Qualification:   string(ts.Qualification),
		Repeat:          ts.Repeat,
		DeliveryHours:   ts.DeliveryHours.String(),
		AssociatedHours: ts.AssociatedHours.String(),
		HourlyRate:      ts.HourlyRate.String(),
		RateCode:        ts.RateCode,
		ClauseReference: ts.ClauseReference,
		Formula:         ts.Formula,
		Amount:          ts.Amount().String(),
		Description:     ts.Description,
		Status:          string(ts.Status),
		RejectionReason: ts.RejectionReason,
		CreatedBy:       int64(ts.CreatedBy),
		CreatedAt:       ts.CreatedAt,
		UpdatedAt:       ts.UpdatedAt,
		Version:         ts.Version,
	}
}

func timesheetDTOs(items []*timesheet.Timesheet) []TimesheetDTO {
	out := make([]TimesheetDTO, len(items))
	for i, ts := range items {
		out[i] = timesheetDTO(ts)
	}
	return out
}

// HistoryEntryDTO renders one timesheet.ApprovalHistoryEntry.
type HistoryEntryDTO struct {
	Action     string    `json:"action"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    int64     `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func historyDTOs(entries []timesheet.ApprovalHistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryDTO{
			Action:     string(e.Action),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    int64(e.ActorID),
			ActorRole:  string(e.ActorRole),
			Comment:    e.Comment,
			Timestamp:  e.Timestamp,
		}
	}
	return out
}

// StatusBreakdownDTO renders query.StatusBreakdown with string keys.
type StatusBreakdownDTO map[string]int

// WorkloadDTO renders query.WorkloadTrend.
type WorkloadDTO struct {
	CurrentWeekHours   string `json:"currentWeekHours"`
	PreviousWeekHours  string `json:"previousWeekHours"`
	AverageWeeklyHours string `json:"averageWeeklyHours"`
	CurrentWeekPay     string `json:"currentWeekPay"`
	PreviousWeekPay    string `json:"previousWeekPay"`
}

// BudgetUsageDTO renders query.BudgetUsage.
type BudgetUsageDTO struct {
	Allocated      string  `json:"allocated"`
	Used           string  `json:"used"`
	Remaining      string  `json:"remaining"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// TutorCountsDTO renders query.TutorCounts.
type TutorCountsDTO struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// DashboardSummaryDTO renders query.DashboardSummary.
type DashboardSummaryDTO struct {
	TotalTimesheets      int                 `json:"totalTimesheets"`
	PendingConfirmations int                 `json:"pendingConfirmations"`
	TotalHours           string              `json:"totalHours"`
	TotalPay             string              `json:"totalPay"`
	ThisWeekHours        string              `json:"thisWeekHours"`
	ThisWeekPay          string              `json:"thisWeekPay"`
	StatusBreakdown      StatusBreakdownDTO  `json:"statusBreakdown"`
	Workload             WorkloadDTO         `json:"workload"`
	Budget               *BudgetUsageDTO     `json:"budget,omitempty"`
	TutorCounts          *TutorCountsDTO     `json:"tutorCounts,omitempty"`
}

func dashboardSummaryDTO(s *query.DashboardSummary) DashboardSummaryDTO {
	breakdown := make(StatusBreakdownDTO, len(s.StatusBreakdown))
	for status, n := range s.StatusBreakdown {
		breakdown[string(status)] = n
	}
	out := DashboardSummaryDTO{
		TotalTimesheets:      s.TotalTimesheets,
		PendingConfirmations: s.PendingConfirmations,
		TotalHours:           s.TotalHours.String(),
		TotalPay:             s.TotalPay.String(),
		ThisWeekHours:        s.ThisWeekHours.String(),
		ThisWeekPay:          s.ThisWeekPay.String(),
		StatusBreakdown:      breakdown,
		Workload: WorkloadDTO{
			CurrentWeekHours:   s.Workload.CurrentWeekHours.String(),
			PreviousWeekHours:  s.Workload.PreviousWeekHours.String(),
			AverageWeeklyHours: s.Workload.AverageWeeklyHours.String(),
			CurrentWeekPay:     s.Workload.CurrentWeekPay.String(),
			PreviousWeekPay:    s.Workload.PreviousWeekPay.String(),
		},
	}
	if s.Budget != nil {
		out.Budget = &BudgetUsageDTO{
			Allocated:      s.Budget.Allocated.String(),
			Used:           s.Budget.Used.String(),
			Remaining:      s.Budget.Remaining.String(),
			UtilizationPct: s.Budget.UtilizationPct,
		}
	}
	if s.TutorCounts != nil {
		out.TutorCounts = &TutorCountsDTO{Total: s.TutorCounts.Total, Active: s.TutorCounts.Active}
	}
	return out
}

// ConfigDTO renders GET /timesheets/config's UI constraint surface.
type ConfigDTO struct {
	HoursMin            float64 `json:"hoursMin"`
	HoursMax            float64 `json:"hoursMax"`
	HoursStep           float64 `json:"hoursStep"`
	WeekStartMondayOnly bool    `json:"weekStartMondayOnly"`
	Currency            string  `json:"currency"`
}

// ErrorResponse is the error envelope spec §6 documents:
// {success, error, message, traceId}.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	TraceID string            `json:"traceId,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
