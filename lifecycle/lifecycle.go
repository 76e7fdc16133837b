/*
Package lifecycle is the timesheet CRUD + submission orchestrator (spec
§4.6), grounded on timeoff/request.go's RequestService: a thin facade
that loads the referenced aggregates, consults permission, recomputes a
Quote through calculator, and commits through the store contracts —
the same "load, authorize, compute, persist" shape as ApproveRequest,
minus the multi-row ledger batch (a Timesheet is a single mutable row,
not a batch of append-only transactions).

Every exported method takes a permission.Actor first, mirroring the
teacher's approverID-as-parameter convention, and returns *core.Error so
callers can switch on Code without a type assertion.
*/
package lifecycle

import (
	"context"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/timesheet"
)

// BudgetExcludedStatuses are the statuses that do NOT count against a
// course's budget cap (spec §9 Open Question 1, resolved: only
// DRAFT/MODIFICATION_REQUESTED/REJECTED are excluded — everything past
// submission, including a MODIFICATION_REQUESTED timesheet once it is
// resubmitted, counts). Exported so query's budget-usage view
// applies the same exclusion rule lifecycle enforces on Create/Update.
var BudgetExcludedStatuses = []core.Status{
	core.StatusDraft,
	core.StatusModificationRequested,
	core.StatusRejected,
}

// Service orchestrates timesheet creation, editing, deletion, and
// submission for approval. Timesheets is a TxTimesheetRepository, not a
// plain TimesheetRepository, because Create/Update run their
// duplicate/budget checks and their persist inside a single WithTx call
// — otherwise two concurrent Create calls against the same course could
// each read a budget sum that is individually within cap and both
// persist, together overdrawing it (the same race timeoff/request.go's
// Store.WithTx exists to close around ApproveRequest's balance check).
type Service struct {
	Timesheets store.TxTimesheetRepository
	Courses    store.CourseRepository
	Calculator *calculator.Calculator
	Clock      store.Clock
	Log        *core.Logger
}

// New constructs a Service. clock may be store.SystemClock{} in production.
func New(timesheets store.TxTimesheetRepository, courses store.CourseRepository, calc *calculator.Calculator, clock store.Clock, log *core.Logger) *Service {
	return &Service{Timesheets: timesheets, Courses: courses, Calculator: calc, Clock: clock, Log: log}
}

// QuoteInput bundles the inputs to a Quote/Create/Update call.
type QuoteInput struct {
	TaskType               core.TaskType
	Qualification          core.Qualification
	Repeat                 bool
	DeliveryHours          core.Hours
	SessionDate            core.Week
	ContemporaneousMarking bool
}

// Quote returns a priced Quote without persisting anything. Any
// authenticated role may request one (spec §4.2).
func (s *Service) Quote(ctx context.Context, actor permission.Actor, in QuoteInput) (calculator.Quote, *core.Error) {
	if err := permission.CanQuote(actor); err != nil {
		return calculator.Quote{}, err
	}
	return s.Calculator.Calculate(in.TaskType, in.Qualification, in.Repeat, in.DeliveryHours, in.SessionDate, in.ContemporaneousMarking)
}

// CreateInput bundles the inputs to Create.
type CreateInput struct {
	TutorID     core.UserID
	CourseID    core.CourseID
	WeekStart   core.Week
	Description string
	Quote       QuoteInput
}

func (s *Service) loadCourseContext(ctx context.Context, actor permission.Actor, courseID core.CourseID) (*store.Course, bool, *core.Error) {
	course, err := s.Courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, false, core.AsError(err)
	}
	isLecturer := actor.Role == core.RoleLecturer && course.LecturerID == actor.ID
	return course, isLecturer, nil
}

// Create validates, prices, and persists a new DRAFT timesheet.
func (s *Service) Create(ctx context.Context, actor permission.Actor, in CreateInput) (*timesheet.Timesheet, *core.Error) {
	course, isLecturer, err := s.loadCourseContext(ctx, actor, in.CourseID)
	if err != nil {
		return nil, err
	}
	if err := permission.CanCreate(actor, isLecturer); err != nil {
		return nil, err
	}

	quote, qerr := s.Calculator.Calculate(in.Quote.TaskType, in.Quote.Qualification, in.Quote.Repeat, in.Quote.DeliveryHours, in.Quote.SessionDate, in.Quote.ContemporaneousMarking)
	if qerr != nil {
		return nil, qerr
	}

	now := s.Clock.Now()
	ts, nerr := timesheet.New(in.TutorID, in.CourseID, in.WeekStart, in.Description, actor.ID, quote, in.Quote.Repeat, now)
	if nerr != nil {
		return nil, nerr
	}

	// The duplicate check, budget check, and persist all run against the
	// same underlying transaction, so no concurrent Create/Update against
	// this course can interleave a budget read between them.
	var xerr *core.Error
	if txErr := s.Timesheets.WithTx(ctx, func(tx store.TimesheetRepository) error {
		dup, derr := tx.ExistsForTutorCourseWeek(ctx, in.TutorID, in.CourseID, in.WeekStart)
		if derr != nil {
			xerr = core.AsError(derr)
			return xerr
		}
		if dup {
			xerr = core.ErrDuplicateTimesheet
			return xerr
		}
		if err := s.checkBudget(ctx, tx, course, core.ZeroMoney(), quote.Amount); err != nil {
			xerr = err
			return xerr
		}
		if _, err := tx.Create(ctx, ts); err != nil {
			xerr = core.AsError(err)
			return xerr
		}
		return nil
	}); txErr != nil {
		if xerr != nil {
			return nil, xerr
		}
		return nil, core.AsError(txErr)
	}
	s.Log.Info("timesheet created", "id", ts.ID, "tutor", ts.TutorID, "course", ts.CourseID)
	return ts, nil
}

// UpdateInput bundles the inputs to Update.
type UpdateInput struct {
	Description string
	Quote       QuoteInput
}

// Update re-prices and re-validates an editable timesheet in place.
func (s *Service) Update(ctx context.Context, actor permission.Actor, id core.TimesheetID, in UpdateInput) (*timesheet.Timesheet, *core.Error) {
	ts, ref, course, isLecturer, err := s.loadTimesheetContext(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := permission.CanEdit(actor, ref, isLecturer); err != nil {
		return nil, err
	}

	quote, qerr := s.Calculator.Calculate(in.Quote.TaskType, in.Quote.Qualification, in.Quote.Repeat, in.Quote.DeliveryHours, in.Quote.SessionDate, in.Quote.ContemporaneousMarking)
	if qerr != nil {
		return nil, qerr
	}

	// Only a status SumBudgetUsed counts has a prior contribution to release.
	priorAmount := ts.Amount()
	for _, st := range BudgetExcludedStatuses {
		if ts.Status == st {
			priorAmount = core.ZeroMoney()
		}
	}
	expectedVersion := ts.Version

	// The budget check and the version-guarded persist run against the
	// same underlying transaction so no concurrent writer can overdraw the
	// course's cap between this check and this write.
	var xerr *core.Error
	if txErr := s.Timesheets.WithTx(ctx, func(tx store.TimesheetRepository) error {
		if err := s.checkBudget(ctx, tx, course, priorAmount, quote.Amount); err != nil {
			xerr = err
			return xerr
		}
		if err := ts.ApplyEdit(in.Description, in.Quote.Repeat, quote, s.Clock.Now()); err != nil {
			xerr = err
			return xerr
		}
		if err := tx.Update(ctx, ts, expectedVersion); err != nil {
			xerr = core.AsError(err)
			return xerr
		}
		return nil
	}); txErr != nil {
		if xerr != nil {
			return nil, xerr
		}
		return nil, core.AsError(txErr)
	}
	return ts, nil
}

// Delete removes a DRAFT timesheet.
func (s *Service) Delete(ctx context.Context, actor permission.Actor, id core.TimesheetID) *core.Error {
	ts, ref, _, isLecturer, err := s.loadTimesheetContext(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := permission.CanDelete(actor, ref, isLecturer); err != nil {
		return err
	}
	if derr := s.Timesheets.Delete(ctx, id, ts.Version); derr != nil {
		return core.AsError(derr)
	}
	return nil
}

// Submit transitions a DRAFT/MODIFICATION_REQUESTED timesheet into
// PENDING_TUTOR_CONFIRMATION, the single transition lifecycle (rather
// than approvalsvc) owns because it is the hand-off out of the editable
// CRUD surface into the approval chain proper.
func (s *Service) Submit(ctx context.Context, actor permission.Actor, id core.TimesheetID) (*timesheet.Timesheet, *core.Error) {
	ts, ref, _, isLecturer, err := s.loadTimesheetContext(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	edge, aerr := permission.CanTakeApprovalAction(actor, ref, core.ActionSubmitForApproval, isLecturer)
	if aerr != nil {
		return nil, aerr
	}

	expectedVersion := ts.Version
	if err := ts.ApplyAction(edge, actor.ID, actor.Role, "", s.Clock.Now()); err != nil {
		return nil, err
	}
	if err := s.Timesheets.Update(ctx, ts, expectedVersion); err != nil {
		return nil, core.AsError(err)
	}
	s.Log.Info("timesheet submitted", "id", ts.ID, "to", string(ts.Status))
	return ts, nil
}

func (s *Service) loadTimesheetContext(ctx context.Context, actor permission.Actor, id core.TimesheetID) (*timesheet.Timesheet, permission.TimesheetRef, *store.Course, bool, *core.Error) {
	ts, err := s.Timesheets.Get(ctx, id)
	if err != nil {
		return nil, permission.TimesheetRef{}, nil, false, core.AsError(err)
	}
	course, isLecturer, cerr := s.loadCourseContext(ctx, actor, ts.CourseID)
	if cerr != nil {
		return nil, permission.TimesheetRef{}, nil, false, cerr
	}
	ref := permission.TimesheetRef{
		ID:        ts.ID,
		TutorID:   ts.TutorID,
		CourseID:  ts.CourseID,
		Status:    ts.Status,
		CreatedBy: ts.CreatedBy,
	}
	return ts, ref, course, isLecturer, nil
}

// checkBudget enforces that (course's currently-counted budget usage
// minus the timesheet's own prior contribution, if any, plus its new
// amount) does not exceed the course's cap. It reads through tx, the
// TimesheetRepository view WithTx handed the caller, so the read and the
// persist it gates stay inside the same transaction.
func (s *Service) checkBudget(ctx context.Context, tx store.TimesheetRepository, course *store.Course, priorAmount core.Money, newAmount core.Money) *core.Error {
	used, err := tx.SumBudgetUsed(ctx, course.ID, BudgetExcludedStatuses)
	if err != nil {
		return core.AsError(err)
	}
	projected := used.Sub(priorAmount).Add(newAmount)
	if projected.GreaterThan(course.BudgetCap) {
		return core.ErrBudgetExceeded
	}
	return nil
}
