package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/lifecycle"
	"github.com/campuspay/timesheet-core/permission"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/store/memory"
	"github.com/campuspay/timesheet-core/timesheet"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

const (
	tutorID    core.UserID   = 1
	lecturerID core.UserID   = 2
	courseID   core.CourseID = 10
)

func newHarness(t *testing.T, budgetCap core.Money, now time.Time) (*lifecycle.Service, *memory.TimesheetStore, *memory.CourseStore) {
	t.Helper()
	p, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		t.Fatalf("policy provider: %v", err)
	}
	calc := calculator.New(p)

	timesheets := memory.NewTimesheetStore()
	courses := memory.NewCourseStore()
	courses.Courses[courseID] = &store.Course{ID: courseID, Code: "CS101", LecturerID: lecturerID, BudgetCap: budgetCap}

	svc := lifecycle.New(timesheets, courses, calc, fixedClock{now}, core.NewLogger("lifecycle-test"))
	return svc, timesheets, courses
}

func quoteInput(hours float64) lifecycle.QuoteInput {
	return lifecycle.QuoteInput{
		TaskType:      core.TaskLecture,
		Qualification: core.QualificationStandard,
		DeliveryHours: core.NewHours(hours),
		SessionDate:   core.NewWeek(2024, time.July, 8),
	}
}

func TestService_Create_Success(t *testing.T) {
	// GIVEN a lecturer who owns the course
	// WHEN Create is called with valid inputs
	// THEN a priced DRAFT timesheet is persisted
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, timesheets, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	ts, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID:     tutorID,
		CourseID:    courseID,
		WeekStart:   core.NewWeek(2024, time.July, 8),
		Description: "Week 1 lecture",
		Quote:       quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ts.Status != core.StatusDraft {
		t.Errorf("expected DRAFT, got %s", ts.Status)
	}

	stored, gerr := timesheets.Get(context.Background(), ts.ID)
	if gerr != nil {
		t.Fatalf("get: %v", gerr)
	}
	if stored.TutorID != tutorID {
		t.Errorf("unexpected tutor: %+v", stored)
	}
}

func TestService_Create_RejectsDuplicateTutorCourseWeek(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	in := lifecycle.CreateInput{TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8), Description: "Week 1", Quote: quoteInput(2.0)}

	if _, err := svc.Create(context.Background(), actor, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), actor, in)
	if err == nil || err.Code != core.CodeDuplicateTimesheet {
		t.Fatalf("expected DUPLICATE_TIMESHEET, got %v", err)
	}
}

func TestService_Create_RejectsWhenBudgetExceeded(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(1)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	_, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err == nil || err.Code != core.CodeBudgetExceeded {
		t.Fatalf("expected BUDGET_EXCEEDED, got %v", err)
	}
}

func TestService_Create_RejectsTutorActor(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: tutorID, Role: core.RoleTutor}

	_, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err == nil || err.Code != core.CodeAuthorizationFailed {
		t.Fatalf("expected AUTHORIZATION_FAILED, got %v", err)
	}
}

func TestService_Update_RepricesInPlace(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	ts, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, uerr := svc.Update(context.Background(), actor, ts.ID, lifecycle.UpdateInput{
		Description: "Week 1 revised",
		Quote:       quoteInput(3.0),
	})
	if uerr != nil {
		t.Fatalf("update: %v", uerr)
	}
	if updated.Description != "Week 1 revised" {
		t.Errorf("expected description to update, got %q", updated.Description)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}
}

func TestService_Update_RejectsStaleVersionConflict(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, timesheets, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	ts, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// simulate a concurrent writer bumping the stored version between the
	// service's read and its version-guarded write
	svc.Timesheets = concurrentWriterStore{timesheets}

	_, uerr := svc.Update(context.Background(), actor, ts.ID, lifecycle.UpdateInput{Description: "late edit", Quote: quoteInput(2.0)})
	var domainErr *core.Error
	if !errors.As(uerr, &domainErr) || domainErr.Code != core.CodeConcurrentModification {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", uerr)
	}
}

// concurrentWriterStore returns the stored timesheet from Get and then bumps
// the stored row's version, as a writer racing the caller would.
type concurrentWriterStore struct {
	*memory.TimesheetStore
}

func (s concurrentWriterStore) Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error) {
	ts, err := s.TimesheetStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	bumped := *ts
	bumped.Version++
	if uerr := s.TimesheetStore.Update(ctx, &bumped, ts.Version); uerr != nil {
		return nil, uerr
	}
	return ts, nil
}

func TestService_Delete_OnlyDraft(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, timesheets, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	ts, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if derr := svc.Delete(context.Background(), actor, ts.ID); derr != nil {
		t.Fatalf("delete: %v", derr)
	}
	if _, gerr := timesheets.Get(context.Background(), ts.ID); !core.IsNotFound(gerr) {
		t.Errorf("expected timesheet to be gone, got %v", gerr)
	}
}

func TestService_Submit_TransitionsToPendingTutorConfirmation(t *testing.T) {
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	actor := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}

	ts, err := svc.Create(context.Background(), actor, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	submitted, serr := svc.Submit(context.Background(), actor, ts.ID)
	if serr != nil {
		t.Fatalf("submit: %v", serr)
	}
	if submitted.Status != core.StatusPendingTutorConfirm {
		t.Errorf("expected PENDING_TUTOR_CONFIRMATION, got %s", submitted.Status)
	}
	if len(submitted.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(submitted.History))
	}
}

func TestService_Submit_RejectsTutorActorFromDraft(t *testing.T) {
	// a tutor may resubmit only from MODIFICATION_REQUESTED, never DRAFT
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	svc, _, _ := newHarness(t, core.NewMoney(decimal.NewFromInt(10000)), now)
	lecturer := permission.Actor{ID: lecturerID, Role: core.RoleLecturer}
	tutor := permission.Actor{ID: tutorID, Role: core.RoleTutor}

	ts, err := svc.Create(context.Background(), lecturer, lifecycle.CreateInput{
		TutorID: tutorID, CourseID: courseID, WeekStart: core.NewWeek(2024, time.July, 8),
		Description: "Week 1", Quote: quoteInput(2.0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, serr := svc.Submit(context.Background(), tutor, ts.ID)
	if serr == nil || serr.Code != core.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %v", serr)
	}
}
