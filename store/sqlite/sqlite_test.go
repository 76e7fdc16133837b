package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/statemachine"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/store/sqlite"
	"github.com/campuspay/timesheet-core/timesheet"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTimesheet(t *testing.T, tutorID core.UserID, courseID core.CourseID) *timesheet.Timesheet {
	t.Helper()
	p, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		t.Fatalf("policy provider: %v", err)
	}
	c := calculator.New(p)
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	week := core.NewWeek(2024, 7, 8)
	q, cerr := c.Calculate(core.TaskLecture, core.QualificationStandard, false, core.NewHours(2.0), week, false)
	if cerr != nil {
		t.Fatalf("calculate: %v", cerr)
	}
	ts, terr := timesheet.New(tutorID, courseID, week, "Week 1 lecture", tutorID, q, false, now)
	if terr != nil {
		t.Fatalf("new timesheet: %v", terr)
	}
	return ts
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	// GIVEN a timesheet persisted via Create
	// WHEN Get is called
	// THEN every payable field and the (empty) history round-trip intact
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTimesheet(t, 1, 10)

	id, err := s.Create(ctx, ts)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TutorID != 1 || got.CourseID != 10 {
		t.Errorf("unexpected identifiers: %+v", got)
	}
	if !got.HourlyRate.Equal(ts.HourlyRate.Decimal) {
		t.Errorf("expected hourly rate %s, got %s", ts.HourlyRate.String(), got.HourlyRate.String())
	}
	if len(got.History) != 0 {
		t.Errorf("expected no history yet, got %d entries", len(got.History))
	}
}

func TestStore_DuplicateTutorCourseWeekRejected(t *testing.T) {
	// GIVEN a timesheet already stored for (tutor, course, week)
	// WHEN another is created with the same key
	// THEN DUPLICATE_TIMESHEET is returned
	ctx := context.Background()
	s := newTestStore(t)
	first := newTimesheet(t, 1, 10)
	if _, err := s.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := newTimesheet(t, 1, 10)
	_, err := s.Create(ctx, second)
	var domainErr *core.Error
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeDuplicateTimesheet {
		t.Fatalf("expected DUPLICATE_TIMESHEET, got %v", err)
	}
}

func TestStore_UpdateAppendsHistoryAndBumpsVersion(t *testing.T) {
	// GIVEN a stored DRAFT timesheet
	// WHEN it is submitted for approval and Update is called
	// THEN the stored row's status/version advance and one history row exists
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTimesheet(t, 1, 10)
	id, _ := s.Create(ctx, ts)

	edge, ok := statemachine.Lookup(core.StatusDraft, core.ActionSubmitForApproval)
	if !ok {
		t.Fatal("expected a SUBMIT_FOR_APPROVAL edge from DRAFT")
	}
	now := time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)
	if aerr := ts.ApplyAction(edge, 20, core.RoleLecturer, "", now); aerr != nil {
		t.Fatalf("apply action: %v", aerr)
	}

	if err := s.Update(ctx, ts, 1); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != core.StatusPendingTutorConfirm {
		t.Errorf("expected PENDING_TUTOR_CONFIRMATION, got %s", got.Status)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(got.History))
	}
	if got.History[0].ToStatus != core.StatusPendingTutorConfirm {
		t.Errorf("unexpected history entry: %+v", got.History[0])
	}
}

func TestStore_UpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTimesheet(t, 1, 10)
	id, _ := s.Create(ctx, ts)

	stored, _ := s.Get(ctx, id)
	stored.Description = "edited"

	err := s.Update(ctx, stored, 99)
	var domainErr *core.Error
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeConcurrentModification {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", err)
	}
}

func TestStore_DeleteRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ts := newTimesheet(t, 1, 10)
	id, _ := s.Create(ctx, ts)

	err := s.Delete(ctx, id, 99)
	var domainErr *core.Error
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeConcurrentModification {
		t.Fatalf("expected CONCURRENT_MODIFICATION, got %v", err)
	}
}

func TestStore_ListByCourseAndStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newTimesheet(t, 1, 10)
	s.Create(ctx, a)

	b := newTimesheet(t, 2, 10)
	b.Status = core.StatusRejected
	s.Create(ctx, b)

	courseID := core.CourseID(10)
	results, err := s.List(ctx, store.TimesheetFilter{CourseID: &courseID, Statuses: []core.Status{core.StatusDraft}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].TutorID != 1 {
		t.Errorf("expected only the DRAFT timesheet for tutor 1, got %+v", results)
	}
}

func TestStore_CourseAndUserLookups(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetCourse(ctx, 1); !core.IsNotFound(err) {
		t.Errorf("expected RESOURCE_NOT_FOUND for missing course, got %v", err)
	}
	if _, err := s.GetUser(ctx, 1); !core.IsNotFound(err) {
		t.Errorf("expected RESOURCE_NOT_FOUND for missing user, got %v", err)
	}
}

func TestStore_LoadRowsEmptyByDefault(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rows, err := s.LoadRows(ctx)
	if err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no seeded policy rows in a fresh database, got %d", len(rows))
	}
}
