/*
Package timesheet is the Timesheet aggregate (spec §4.5 / §3), owning every
invariant listed in spec §3 and the editability predicate of spec §4.3.

OWNERSHIP:
  Timesheet exclusively owns its ApprovalHistoryEntry children. User and
  Course are referenced by id only (weak reference, no cascade).

MUTATION:
  Mutation methods are status-guarded: any attempt to edit fields outside
  DRAFT/MODIFICATION_REQUESTED fails with NOT_EDITABLE. ApplyAction mutates
  status, stamps UpdatedAt, bumps Version, and appends an immutable
  ApprovalHistoryEntry — all four happen together or not at all.

SEE ALSO:
  - statemachine package: supplies the transition edge ApplyAction applies.
  - calculator package: supplies the Quote New() wraps into the Timesheet's
    payable fields.
*/
package timesheet

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/statemachine"
)

const (
	MinDeliveryHours = 0.1
	MaxDeliveryHours = 40.0
	MaxDescriptionLen = 1000
)

// ApprovalHistoryEntry is an immutable, append-only audit record of one
// status transition.
type ApprovalHistoryEntry struct {
	TimesheetID core.TimesheetID
	Action      core.Action
	FromStatus  core.Status
	ToStatus    core.Status
	ActorID     core.UserID
	ActorRole   core.Role
	Comment     string
	Timestamp   time.Time
}

// Timesheet is the aggregate root.
type Timesheet struct {
	ID                core.TimesheetID
	TutorID           core.UserID
	CourseID          core.CourseID
	WeekStart         core.Week
	TaskType          core.TaskType
	Qualification     core.Qualification
	Repeat            bool
	DeliveryHours     core.Hours
	AssociatedHours   core.Hours
	HourlyRate        core.Money
	RateCode          string
	ClauseReference   string
	Formula           string
	Description       string
	Status            core.Status
	CreatedBy         core.UserID
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int
	RejectionReason   string

	History []ApprovalHistoryEntry
}

// Amount returns the current total payable amount: (delivery + associated)
// * hourly rate, rounded half-up to 2 places.
func (t *Timesheet) Amount() core.Money {
	payable := t.DeliveryHours.Add(t.AssociatedHours)
	return core.NewMoney(t.HourlyRate.Mul(payable.Decimal)).Round2()
}

// Editable reports whether hours/description/task-type/qualification/
// repeat/week-start may currently be mutated.
func (t *Timesheet) Editable() bool { return t.Status.Editable() }

// New validates the given fields and a pre-computed Quote, and returns a
// new Timesheet in status DRAFT. now is passed in (not read from the wall
// clock here) so callers control the "current Monday" used for the
// not-in-the-future invariant and the created/updated timestamps.
func New(
	tutorID core.UserID,
	courseID core.CourseID,
	weekStart core.Week,
	description string,
	createdBy core.UserID,
	quote calculator.Quote,
	repeat bool,
	now time.Time,
) (*Timesheet, *core.Error) {
	if !weekStart.IsMonday() {
		return nil, core.ErrWeekNotMonday
	}
	if weekStart.After(core.CurrentWeek(now)) {
		return nil, core.ErrWeekInFuture
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validateDeliveryHours(quote.DeliveryHours); err != nil {
		return nil, err
	}
	if !quote.HourlyRate.IsPositive() {
		return nil, core.ErrValidationFailed.WithFields(map[string]string{"hourlyRate": "must be positive"})
	}

	return &Timesheet{
		TutorID:         tutorID,
		CourseID:        courseID,
		WeekStart:       weekStart,
		Description:     description,
		Status:          core.StatusDraft,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
		Repeat:          repeat,
		DeliveryHours:   quote.DeliveryHours,
		AssociatedHours: quote.AssociatedHours,
		HourlyRate:      quote.HourlyRate,
		RateCode:        quote.RateCode,
		ClauseReference: quote.ClauseReference,
		Formula:         quote.Formula,
	}, nil
}

func validateDescription(d string) *core.Error {
	if len(strings.TrimSpace(d)) == 0 {
		return core.ErrDescriptionRequired
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLen {
		return core.Clone(core.ErrValidationFailed, "description exceeds maximum length").
			WithFields(map[string]string{"description": "must be at most 1000 characters"})
	}
	return nil
}

func validateDeliveryHours(h core.Hours) *core.Error {
	if h.IsZero() || h.IsNegative() {
		return core.ErrNonPositiveHours
	}
	min := core.NewHours(MinDeliveryHours)
	max := core.NewHours(MaxDeliveryHours)
	if h.LessThan(min) || h.GreaterThan(max) {
		return core.ErrHoursOutOfRange
	}
	return nil
}

// ApplyEdit replaces the description and repeat flag in place and
// re-derives the hours, rate, rate code, clause reference and formula from
// a freshly computed Quote. It does not change WeekStart, TaskType or
// Qualification. Fails with NOT_EDITABLE outside
// DRAFT/MODIFICATION_REQUESTED.
func (t *Timesheet) ApplyEdit(description string, repeat bool, quote calculator.Quote, now time.Time) *core.Error {
	if !t.Editable() {
		return core.ErrNotEditable
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	if err := validateDeliveryHours(quote.DeliveryHours); err != nil {
		return err
	}

	t.Description = description
	t.Repeat = repeat
	t.DeliveryHours = quote.DeliveryHours
	t.AssociatedHours = quote.AssociatedHours
	t.HourlyRate = quote.HourlyRate
	t.RateCode = quote.RateCode
	t.ClauseReference = quote.ClauseReference
	t.Formula = quote.Formula
	t.UpdatedAt = now
	t.Version++
	return nil
}

// ApplyAction applies the already-authorized statemachine Edge: validates
// the comment requirement, transitions status, stamps UpdatedAt, bumps
// Version, and appends an immutable ApprovalHistoryEntry. The caller
// (approvalsvc.Apply, lifecycle.Submit) is responsible for having resolved permission via
// permission.CanTakeApprovalAction before calling this.
func (t *Timesheet) ApplyAction(edge statemachine.Edge, actorID core.UserID, actorRole core.Role, comment string, now time.Time) *core.Error {
	trimmed := strings.TrimSpace(comment)
	if edge.Action.CommentRequired() && trimmed == "" {
		return core.ErrCommentRequired
	}

	fromStatus := t.Status
	t.Status = edge.To
	t.UpdatedAt = now
	t.Version++

	if edge.Action == core.ActionReject {
		t.RejectionReason = trimmed
	}

	t.History = append(t.History, ApprovalHistoryEntry{
		TimesheetID: t.ID,
		Action:      edge.Action,
		FromStatus:  fromStatus,
		ToStatus:    edge.To,
		ActorID:     actorID,
		ActorRole:   actorRole,
		Comment:     trimmed,
		Timestamp:   now,
	})

	return nil
}
