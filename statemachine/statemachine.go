/*
Package statemachine encodes the approval status transition table of spec
§4.3 as a declarative table, per spec §9's REDESIGN FLAG ("encode the
state-machine matrix as a declarative table... not polymorphic subclasses").

TABLE SHAPE:
  Each Edge is keyed by (From, Action) and lists the roles allowed to take
  it, the resulting To status, and, per role, an ownership predicate name
  the caller (permission package) must also satisfy (e.g. "own timesheet",
  "course lecturer"). Whether a comment is required is a property of the
  action (core.Action.CommentRequired), not of the edge. Any (status,
  action, role) triple with no matching edge is INVALID_TRANSITION; a
  failed ownership predicate is reported by permission as
  AUTHORIZATION_FAILED.

SEE ALSO:
  - timesheet package: Timesheet.ApplyAction applies a looked-up Edge.
  - permission package: the ownership predicates referenced here.
*/
package statemachine

import "github.com/campuspay/timesheet-core/core"

// Ownership names the extra, caller-supplied ownership condition an edge
// requires beyond role membership. The statemachine package does not know
// how to evaluate these itself — it only records which is required;
// permission.CanTakeApprovalAction evaluates it against the concrete actor
// and timesheet.
type Ownership string

const (
	OwnershipNone            Ownership = ""
	OwnershipOwnTimesheet    Ownership = "own_timesheet"    // actor is the tutor on it
	OwnershipCourseLecturer  Ownership = "course_lecturer"  // actor is the lecturer of the timesheet's course
	OwnershipAny             Ownership = "any"              // role membership alone suffices
)

// Edge is one row of the transition table.
type Edge struct {
	From            core.Status
	Action          core.Action
	To              core.Status
	AllowedRoles    map[core.Role]Ownership // role -> ownership condition required of that role
}

type edgeKey struct {
	from   core.Status
	action core.Action
}

var table = buildTable()

func buildTable() map[edgeKey]Edge {
	edges := []Edge{
		{
			From: core.StatusDraft, Action: core.ActionSubmitForApproval, To: core.StatusPendingTutorConfirm,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusModificationRequested, Action: core.ActionSubmitForApproval, To: core.StatusPendingTutorConfirm,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleTutor:    OwnershipOwnTimesheet,
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusPendingTutorConfirm, Action: core.ActionTutorConfirm, To: core.StatusTutorConfirmed,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleTutor: OwnershipOwnTimesheet,
			},
		},
		{
			From: core.StatusPendingTutorConfirm, Action: core.ActionReject, To: core.StatusRejected,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleTutor:    OwnershipOwnTimesheet,
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusPendingTutorConfirm, Action: core.ActionRequestModification, To: core.StatusModificationRequested,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusTutorConfirmed, Action: core.ActionLecturerConfirm, To: core.StatusLecturerConfirmed,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusTutorConfirmed, Action: core.ActionReject, To: core.StatusRejected,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusTutorConfirmed, Action: core.ActionRequestModification, To: core.StatusModificationRequested,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleLecturer: OwnershipCourseLecturer,
				core.RoleAdmin:    OwnershipAny,
			},
		},
		{
			From: core.StatusLecturerConfirmed, Action: core.ActionHRConfirm, To: core.StatusFinalConfirmed,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleAdmin: OwnershipAny,
			},
		},
		{
			From: core.StatusLecturerConfirmed, Action: core.ActionReject, To: core.StatusRejected,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleAdmin: OwnershipAny,
			},
		},
		{
			From: core.StatusLecturerConfirmed, Action: core.ActionRequestModification, To: core.StatusModificationRequested,
			AllowedRoles: map[core.Role]Ownership{
				core.RoleAdmin: OwnershipAny,
			},
		},
	}

	m := make(map[edgeKey]Edge, len(edges))
	for _, e := range edges {
		m[edgeKey{e.From, e.Action}] = e
	}
	return m
}

// Lookup returns the Edge for (from, action), or false if no such edge
// exists regardless of role.
func Lookup(from core.Status, action core.Action) (Edge, bool) {
	e, ok := table[edgeKey{from, action}]
	return e, ok
}

// RoleAllowed reports whether role may take action from from, and if so,
// which Ownership condition the caller must additionally verify.
func RoleAllowed(from core.Status, action core.Action, role core.Role) (Ownership, bool) {
	e, ok := Lookup(from, action)
	if !ok {
		return OwnershipNone, false
	}
	ownership, ok := e.AllowedRoles[role]
	return ownership, ok
}

// AllowedActions returns every action a given role may take from a given
// status, regardless of ownership — used to populate the "allowed next
// actions" recovery hint spec §7 allows on INVALID_TRANSITION.
func AllowedActions(from core.Status, role core.Role) []core.Action {
	var actions []core.Action
	for k, e := range table {
		if k.from != from {
			continue
		}
		if _, ok := e.AllowedRoles[role]; ok {
			actions = append(actions, k.action)
		}
	}
	return actions
}
