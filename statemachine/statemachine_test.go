package statemachine_test

import (
	"testing"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/statemachine"
)

func TestLookup_KnownEdge(t *testing.T) {
	// GIVEN: the declarative transition table
	// WHEN: looking up DRAFT + SUBMIT_FOR_APPROVAL
	edge, ok := statemachine.Lookup(core.StatusDraft, core.ActionSubmitForApproval)

	// THEN: the edge exists and leads to PENDING_TUTOR_CONFIRMATION
	if !ok {
		t.Fatal("expected edge to exist")
	}
	if edge.To != core.StatusPendingTutorConfirm {
		t.Errorf("expected PENDING_TUTOR_CONFIRMATION, got %s", edge.To)
	}
}

func TestLookup_UnknownEdge(t *testing.T) {
	// GIVEN: the declarative transition table
	// WHEN: looking up a from/action pair with no row (FINAL_CONFIRMED has
	// no outgoing edges at all)
	_, ok := statemachine.Lookup(core.StatusFinalConfirmed, core.ActionReject)

	// THEN: no edge is found
	if ok {
		t.Error("expected no edge from FINAL_CONFIRMED, found one")
	}
}

func TestRoleAllowed_TutorOwnTimesheetOnConfirm(t *testing.T) {
	// GIVEN: PENDING_TUTOR_CONFIRMATION + TUTOR_CONFIRM
	// WHEN: checking whether TUTOR may take it
	ownership, ok := statemachine.RoleAllowed(core.StatusPendingTutorConfirm, core.ActionTutorConfirm, core.RoleTutor)

	// THEN: allowed, and requires ownership of the timesheet
	if !ok {
		t.Fatal("expected TUTOR to be allowed")
	}
	if ownership != statemachine.OwnershipOwnTimesheet {
		t.Errorf("expected OwnershipOwnTimesheet, got %s", ownership)
	}
}

func TestRoleAllowed_TutorCannotConfirmOwnTutorConfirmed(t *testing.T) {
	// GIVEN: TUTOR_CONFIRMED is the tutor's own prior confirmation; the next
	// step (LECTURER_CONFIRM) belongs to LECTURER/ADMIN only
	// WHEN: checking whether TUTOR may take LECTURER_CONFIRM from TUTOR_CONFIRMED
	_, ok := statemachine.RoleAllowed(core.StatusTutorConfirmed, core.ActionLecturerConfirm, core.RoleTutor)

	// THEN: not allowed
	if ok {
		t.Error("expected TUTOR to be disallowed from LECTURER_CONFIRM")
	}
}

func TestRoleAllowed_AdminRejectAnywhereIsOwnershipAny(t *testing.T) {
	// GIVEN: LECTURER_CONFIRMED + REJECT
	// WHEN: checking ADMIN's ownership requirement
	ownership, ok := statemachine.RoleAllowed(core.StatusLecturerConfirmed, core.ActionReject, core.RoleAdmin)

	// THEN: allowed with no extra ownership check required
	if !ok {
		t.Fatal("expected ADMIN to be allowed")
	}
	if ownership != statemachine.OwnershipAny {
		t.Errorf("expected OwnershipAny, got %s", ownership)
	}
}

func TestAllowedActions_ListsEveryActionForRoleFromStatus(t *testing.T) {
	// GIVEN: PENDING_TUTOR_CONFIRMATION, where LECTURER may REJECT or
	// REQUEST_MODIFICATION but not TUTOR_CONFIRM (that's TUTOR-only)
	// WHEN: asking for LECTURER's allowed actions from that status
	actions := statemachine.AllowedActions(core.StatusPendingTutorConfirm, core.RoleLecturer)

	// THEN: exactly REJECT and REQUEST_MODIFICATION are returned
	want := map[core.Action]bool{
		core.ActionReject:              true,
		core.ActionRequestModification: true,
	}
	if len(actions) != len(want) {
		t.Fatalf("expected %d actions, got %d: %v", len(want), len(actions), actions)
	}
	for _, a := range actions {
		if !want[a] {
			t.Errorf("unexpected action %s in LECTURER's allowed set", a)
		}
	}
}

func TestAllowedActions_EmptyForStatusWithNoEdges(t *testing.T) {
	// GIVEN: FINAL_CONFIRMED, a terminal status
	// WHEN: asking for any role's allowed actions from it
	actions := statemachine.AllowedActions(core.StatusFinalConfirmed, core.RoleAdmin)

	// THEN: none
	if len(actions) != 0 {
		t.Errorf("expected no actions from FINAL_CONFIRMED, got %v", actions)
	}
}
