/*
Package permission implements the per-(role, action, relationship)
authorization matrix of spec §4.4, adapted from the role-set + ownership
predicate pattern of internal/middleware/rbac.go in the school-admin API
this spec's pack was retrieved alongside — that middleware decides HTTP
route access by role set plus a "SELF" ownership escape hatch; here the
same shape is lifted into a pure function any caller (not just HTTP
middleware) can use, per spec §9 ("dynamic dispatch on role" → a
declarative table, not polymorphism).

Every Can* function that needs it takes the already-resolved
course-lecturer fact (is the actor the course's lecturer?) rather than
looking it up itself, and reads tutor ownership from TimesheetRef.TutorID —
permission stays free of any repository dependency and is trivially
unit-testable.
*/
package permission

import (
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/statemachine"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   core.UserID
	Role core.Role
}

// TimesheetRef is the minimal view of a Timesheet permission decisions need.
type TimesheetRef struct {
	ID        core.TimesheetID
	TutorID   core.UserID
	CourseID  core.CourseID
	Status    core.Status
	CreatedBy core.UserID
}

// actorIsCourseLecturer is passed in by the caller, which has already
// loaded the Course row.
func isAdmin(a Actor) bool { return a.Role == core.RoleAdmin }

// CanCreate: LECTURER for courses they own; ADMIN anywhere; TUTOR never.
func CanCreate(actor Actor, actorIsCourseLecturer bool) *core.Error {
	if isAdmin(actor) {
		return nil
	}
	if actor.Role == core.RoleLecturer && actorIsCourseLecturer {
		return nil
	}
	return core.ErrAuthorizationFailed
}

// CanEdit: editable-status AND (ADMIN | (LECTURER owns course) |
// (TUTOR owns timesheet AND status = MODIFICATION_REQUESTED)).
func CanEdit(actor Actor, ts TimesheetRef, actorIsCourseLecturer bool) *core.Error {
	if !ts.Status.Editable() {
		return core.ErrNotEditable
	}
	if isAdmin(actor) {
		return nil
	}
	if actor.Role == core.RoleLecturer && actorIsCourseLecturer {
		return nil
	}
	if actor.Role == core.RoleTutor && actor.ID == ts.TutorID && ts.Status == core.StatusModificationRequested {
		return nil
	}
	return core.ErrAuthorizationFailed
}

// CanDelete: only in DRAFT AND (ADMIN | LECTURER owns course).
func CanDelete(actor Actor, ts TimesheetRef, actorIsCourseLecturer bool) *core.Error {
	if ts.Status != core.StatusDraft {
		return core.ErrNotEditable
	}
	if isAdmin(actor) {
		return nil
	}
	if actor.Role == core.RoleLecturer && actorIsCourseLecturer {
		return nil
	}
	return core.ErrAuthorizationFailed
}

// CanView: TUTOR sees own; LECTURER sees timesheets of courses they own;
// ADMIN sees all.
func CanView(actor Actor, ts TimesheetRef, actorIsCourseLecturer bool) *core.Error {
	if isAdmin(actor) {
		return nil
	}
	if actor.Role == core.RoleTutor && actor.ID == ts.TutorID {
		return nil
	}
	if actor.Role == core.RoleLecturer && actorIsCourseLecturer {
		return nil
	}
	return core.ErrAuthorizationFailed
}

// CanQuote: any authenticated role may request a quote.
func CanQuote(actor Actor) *core.Error {
	if !actor.Role.Valid() {
		return core.ErrAuthorizationFailed
	}
	return nil
}

// CanTakeApprovalAction resolves the statemachine edge for (ts.Status,
// action, actor.Role) and then checks the edge's Ownership requirement
// against the caller-supplied relationship facts. Returns the resolved
// Edge (for the timesheet domain model to apply) or an authorization/
// transition error.
func CanTakeApprovalAction(actor Actor, ts TimesheetRef, action core.Action, actorIsCourseLecturer bool) (statemachine.Edge, *core.Error) {
	ownership, allowed := statemachine.RoleAllowed(ts.Status, action, actor.Role)
	if !allowed {
		return statemachine.Edge{}, core.ErrInvalidTransition
	}

	switch ownership {
	case statemachine.OwnershipAny:
		// role membership alone suffices (e.g. ADMIN anywhere)
	case statemachine.OwnershipOwnTimesheet:
		if actor.ID != ts.TutorID {
			return statemachine.Edge{}, core.ErrAuthorizationFailed
		}
	case statemachine.OwnershipCourseLecturer:
		if !actorIsCourseLecturer {
			return statemachine.Edge{}, core.ErrAuthorizationFailed
		}
	}

	edge, _ := statemachine.Lookup(ts.Status, action)
	return edge, nil
}

// CanFilterDashboardByCourse: TUTORs cannot filter by course; LECTURERs may
// filter only within their owned courses; ADMIN unrestricted.
func CanFilterDashboardByCourse(actor Actor, actorIsCourseLecturer bool) *core.Error {
	switch actor.Role {
	case core.RoleAdmin:
		return nil
	case core.RoleLecturer:
		if actorIsCourseLecturer {
			return nil
		}
		return core.ErrAuthorizationFailed
	default:
		return core.ErrAuthorizationFailed
	}
}
