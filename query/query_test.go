package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/query"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/store/memory"
	"github.com/campuspay/timesheet-core/timesheet"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

const (
	tutorA     core.UserID   = 1
	tutorB     core.UserID   = 2
	lecturerID core.UserID   = 10
	otherLect  core.UserID   = 11
	adminID    core.UserID   = 20
	courseA    core.CourseID = 100
	courseB    core.CourseID = 200
)

type harness struct {
	svc        *query.Service
	timesheets *memory.TimesheetStore
	courses    *memory.CourseStore
	users      *memory.UserStore
	calc       *calculator.Calculator
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	p, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		t.Fatalf("policy provider: %v", err)
	}
	calc := calculator.New(p)

	timesheets := memory.NewTimesheetStore()
	courses := memory.NewCourseStore()
	courses.Courses[courseA] = &store.Course{ID: courseA, Code: "CS101", LecturerID: lecturerID, BudgetCap: core.NewMoney(decimal.NewFromInt(1000))}
	courses.Courses[courseB] = &store.Course{ID: courseB, Code: "CS202", LecturerID: otherLect, BudgetCap: core.NewMoney(decimal.NewFromInt(2000))}

	users := memory.NewUserStore()
	users.Users[tutorA] = &store.User{ID: tutorA, Name: "Tutor A", Role: core.RoleTutor}
	users.Users[tutorB] = &store.User{ID: tutorB, Name: "Tutor B", Role: core.RoleTutor}
	users.Users[lecturerID] = &store.User{ID: lecturerID, Name: "Lecturer", Role: core.RoleLecturer}

	svc := query.New(timesheets, courses, users, fixedClock{now})
	return &harness{svc: svc, timesheets: timesheets, courses: courses, users: users, calc: calc}
}

func (h *harness) seed(t *testing.T, tutorID core.UserID, courseID core.CourseID, week core.Week, status core.Status, hours float64, now time.Time) *timesheet.Timesheet {
	t.Helper()
	q, qerr := h.calc.Calculate(core.TaskLecture, core.QualificationStandard, false, core.NewHours(hours), week, false)
	if qerr != nil {
		t.Fatalf("calculate: %v", qerr)
	}
	ts, terr := timesheet.New(tutorID, courseID, week, "seed", tutorID, q, false, now)
	if terr != nil {
		t.Fatalf("new timesheet: %v", terr)
	}
	ts.Status = status
	if _, cerr := h.timesheets.Create(context.Background(), ts); cerr != nil {
		t.Fatalf("create: %v", cerr)
	}
	return ts
}

func TestListTimesheets_TutorCannotFilterByCourse(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	actor := permission.Actor{ID: tutorA, Role: core.RoleTutor}
	courseID := courseA

	_, err := h.svc.ListTimesheets(context.Background(), actor, query.ListFilter{CourseID: &courseID}, query.Page{})
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestListTimesheets_TutorSeesOnlyOwn(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	week := core.NewWeek(2024, time.July, 8)
	h.seed(t, tutorA, courseA, week, core.StatusDraft, 2.0, now)
	h.seed(t, tutorB, courseA, week, core.StatusDraft, 2.0, now)

	actor := permission.Actor{ID: tutorA, Role: core.RoleTutor}
	items, err := h.svc.ListTimesheets(context.Background(), actor, query.ListFilter{}, query.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].TutorID != tutorA {
		t.Fatalf("expected only tutor A's timesheet, got %+v", items)
	}
}

func TestListTimesheets_LecturerRejectsNonOwnedCourse(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	courseID := courseB

	_, err := h.svc.ListTimesheets(context.Background(), actor, query.ListFilter{CourseID: &courseID}, query.Page{})
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestListTimesheets_LecturerSeesOwnedCoursesOnly(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	week := core.NewWeek(2024, time.July, 8)
	h.seed(t, tutorA, courseA, week, core.StatusDraft, 2.0, now)
	h.seed(t, tutorB, courseB, week, core.StatusDraft, 2.0, now)

	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	items, err := h.svc.ListTimesheets(context.Background(), actor, query.ListFilter{}, query.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].CourseID != courseA {
		t.Fatalf("expected only course A's timesheet, got %+v", items)
	}
}

func TestPendingForTutor_RejectsOtherTutor(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	actor := permission.Actor{ID: tutorB, Role: core.RoleTutor}

	_, err := h.svc.PendingForTutor(context.Background(), actor, tutorA, query.Page{})
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestPendingForTutor_ReturnsOnlyPendingStatus(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	week := core.NewWeek(2024, time.July, 8)
	h.seed(t, tutorA, courseA, week, core.StatusPendingTutorConfirm, 2.0, now)
	h.seed(t, tutorA, courseA, week.AddWeeks(-1), core.StatusDraft, 2.0, now)

	actor := permission.Actor{ID: tutorA, Role: core.RoleTutor}
	items, err := h.svc.PendingForTutor(context.Background(), actor, tutorA, query.Page{})
	if err != nil {
		t.Fatalf("pending for tutor: %v", err)
	}
	if len(items) != 1 || items[0].Status != core.StatusPendingTutorConfirm {
		t.Fatalf("expected 1 pending timesheet, got %+v", items)
	}
}

func TestPendingForLecturer_ScopesToOwnedCourses(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	week := core.NewWeek(2024, time.July, 8)
	h.seed(t, tutorA, courseA, week, core.StatusTutorConfirmed, 2.0, now)
	h.seed(t, tutorB, courseB, week, core.StatusTutorConfirmed, 2.0, now)

	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	items, err := h.svc.PendingForLecturer(context.Background(), actor, lecturerID, query.Page{})
	if err != nil {
		t.Fatalf("pending for lecturer: %v", err)
	}
	if len(items) != 1 || items[0].CourseID != courseA {
		t.Fatalf("expected only course A's confirmation, got %+v", items)
	}
}

func TestPendingForAdmin_RequiresAdminRole(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	_, err := h.svc.PendingForAdmin(context.Background(), actor, query.Page{})
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestHistory_DeniesUnrelatedTutor(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	week := core.NewWeek(2024, time.July, 8)
	ts := h.seed(t, tutorA, courseA, week, core.StatusDraft, 2.0, now)

	actor := permission.Actor{ID: tutorB, Role: core.RoleTutor}
	_, err := h.svc.History(context.Background(), actor, ts.ID)
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestDashboardSummary_Tutor(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	currentWeek := core.CurrentWeek(now)
	h.seed(t, tutorA, courseA, currentWeek, core.StatusPendingTutorConfirm, 2.0, now)
	h.seed(t, tutorA, courseA, currentWeek.AddWeeks(-1), core.StatusTutorConfirmed, 4.0, now)

	actor := permission.Actor{ID: tutorA, Role: core.RoleTutor}
	summary, err := h.svc.DashboardSummary(context.Background(), actor, nil)
	if err != nil {
		t.Fatalf("dashboard summary: %v", err)
	}
	if summary.TotalTimesheets != 2 {
		t.Errorf("expected 2 total timesheets, got %d", summary.TotalTimesheets)
	}
	if summary.PendingConfirmations != 1 {
		t.Errorf("expected 1 pending confirmation, got %d", summary.PendingConfirmations)
	}
	if summary.Budget != nil {
		t.Error("expected no budget view for a TUTOR")
	}
	if !summary.Workload.CurrentWeekHours.Equal(core.NewHours(2.0)) {
		t.Errorf("expected current week hours 2.0, got %s", summary.Workload.CurrentWeekHours.String())
	}
	if !summary.Workload.PreviousWeekHours.Equal(core.NewHours(4.0)) {
		t.Errorf("expected previous week hours 4.0, got %s", summary.Workload.PreviousWeekHours.String())
	}
}

func TestDashboardSummary_TutorCannotFilterByCourse(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	actor := permission.Actor{ID: tutorA, Role: core.RoleTutor}
	courseID := courseA

	_, err := h.svc.DashboardSummary(context.Background(), actor, &courseID)
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestDashboardSummary_LecturerBudgetUsage(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	currentWeek := core.CurrentWeek(now)
	h.seed(t, tutorA, courseA, currentWeek, core.StatusTutorConfirmed, 2.0, now)

	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	summary, err := h.svc.DashboardSummary(context.Background(), actor, nil)
	if err != nil {
		t.Fatalf("dashboard summary: %v", err)
	}
	if summary.Budget == nil {
		t.Fatal("expected a budget view for a LECTURER")
	}
	if !summary.Budget.Allocated.Equal(core.NewMoney(decimal.NewFromInt(1000)).Decimal) {
		t.Errorf("expected allocated 1000, got %s", summary.Budget.Allocated.String())
	}
	if summary.Budget.Used.Decimal.IsZero() {
		t.Error("expected non-zero budget used for a TUTOR_CONFIRMED timesheet")
	}
}

func TestDashboardSummary_AdminSeesTutorCounts(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	h := newHarness(t, now)
	currentWeek := core.CurrentWeek(now)
	h.seed(t, tutorA, courseA, currentWeek, core.StatusDraft, 2.0, now)

	actor := permission.Actor{ID: adminID, Role: core.RoleAdmin}
	summary, err := h.svc.DashboardSummary(context.Background(), actor, nil)
	if err != nil {
		t.Fatalf("dashboard summary: %v", err)
	}
	if summary.TutorCounts == nil {
		t.Fatal("expected tutor counts for ADMIN")
	}
	if summary.TutorCounts.Total != 2 {
		t.Errorf("expected 2 total tutors, got %d", summary.TutorCounts.Total)
	}
	if summary.TutorCounts.Active != 1 {
		t.Errorf("expected 1 active tutor, got %d", summary.TutorCounts.Active)
	}
}
