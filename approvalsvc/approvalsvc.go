/*
Package approvalsvc applies approval-workflow actions (spec §4.7):
TUTOR_CONFIRM, LECTURER_CONFIRM, HR_CONFIRM, REJECT, REQUEST_MODIFICATION.
SUBMIT_FOR_APPROVAL lives in lifecycle instead — it is the hand-off out
of the CRUD surface, not a step within the approval chain itself.

Grounded on timeoff/request.go's ApproveRequest: load the aggregate,
authorize, mutate, persist — the same shape as lifecycle, but this
package owns only the actions statemachine restricts to
PENDING_TUTOR_CONFIRMATION/TUTOR_CONFIRMED/LECTURER_CONFIRMED sources.
*/
package approvalsvc

import (
	"context"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/timesheet"
)

// Service applies approval actions to timesheets.
type Service struct {
	Timesheets store.TimesheetRepository
	Courses    store.CourseRepository
	Clock      store.Clock
	Log        *core.Logger
}

// New constructs a Service.
func New(timesheets store.TimesheetRepository, courses store.CourseRepository, clock store.Clock, log *core.Logger) *Service {
	return &Service{Timesheets: timesheets, Courses: courses, Clock: clock, Log: log}
}

// Apply authorizes and applies action to the timesheet identified by id,
// on behalf of actor, recording comment in the resulting audit entry.
// action must be one of TUTOR_CONFIRM/LECTURER_CONFIRM/HR_CONFIRM/
// REJECT/REQUEST_MODIFICATION — SUBMIT_FOR_APPROVAL is rejected here
// with INVALID_TRANSITION since it belongs to lifecycle.Submit.
func (s *Service) Apply(ctx context.Context, actor permission.Actor, id core.TimesheetID, action core.Action, comment string) (*timesheet.Timesheet, *core.Error) {
	if action == core.ActionSubmitForApproval {
		return nil, core.ErrInvalidTransition
	}

	ts, err := s.Timesheets.Get(ctx, id)
	if err != nil {
		return nil, core.AsError(err)
	}

	course, cerr := s.Courses.GetCourse(ctx, ts.CourseID)
	if cerr != nil {
		return nil, core.AsError(cerr)
	}
	isLecturer := actor.Role == core.RoleLecturer && course.LecturerID == actor.ID

	ref := permission.TimesheetRef{
		ID:        ts.ID,
		TutorID:   ts.TutorID,
		CourseID:  ts.CourseID,
		Status:    ts.Status,
		CreatedBy: ts.CreatedBy,
	}
	edge, aerr := permission.CanTakeApprovalAction(actor, ref, action, isLecturer)
	if aerr != nil {
		return nil, aerr
	}

	expectedVersion := ts.Version
	fromStatus := ts.Status
	if err := ts.ApplyAction(edge, actor.ID, actor.Role, comment, s.Clock.Now()); err != nil {
		return nil, err
	}
	if err := s.Timesheets.Update(ctx, ts, expectedVersion); err != nil {
		return nil, core.AsError(err)
	}

	s.Log.Info("approval action applied", "id", ts.ID, "action", string(action), "from", string(fromStatus), "to", string(ts.Status))
	return ts, nil
}
