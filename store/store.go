/*
Package store defines the persistence contracts the rest of the engine
depends on (spec §4.9 / §5), grounded on the Store/TxStore interface shape
of generic/store.go: narrow, verb-named interfaces the domain packages
consume, with concrete implementations living in sibling packages
(store/memory for tests, store/sqlite for production) rather than behind
a single god-interface.

Unlike the teacher's append-only transaction ledger, a Timesheet is a
mutable aggregate (it moves through approval states in place), so
TimesheetRepository exposes Update, not just Append — but it keeps the
teacher's optimistic-concurrency discipline: every Update carries the
caller's expected version and fails with CONCURRENT_MODIFICATION if the
stored row has moved on. The ApprovalHistoryEntry audit trail underneath
a Timesheet IS append-only, the same as the teacher's transactions table.
*/
package store

import (
	"context"
	"time"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/timesheet"
)

// Course is the minimal course record the engine needs: who lectures it
// and its budget cap for the query/budget-usage view.
type Course struct {
	ID         core.CourseID
	Code       string
	Name       string
	LecturerID core.UserID
	BudgetCap  core.Money
}

// User is the minimal user record the engine needs: role for permission
// decisions, display name for query views.
type User struct {
	ID   core.UserID
	Name string
	Role core.Role
}

// TimesheetFilter narrows ListTimesheets. Nil/zero fields are unconstrained.
type TimesheetFilter struct {
	TutorID   *core.UserID
	CourseID  *core.CourseID
	Statuses  []core.Status
	WeekStart *core.Week
}

// TimesheetRepository is the contract lifecycle/approvalsvc/query depend
// on. Update is optimistic: it fails with core.ErrConcurrentModification
// if expectedVersion no longer matches the stored row.
type TimesheetRepository interface {
	Create(ctx context.Context, ts *timesheet.Timesheet) (core.TimesheetID, error)
	Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error)
	Update(ctx context.Context, ts *timesheet.Timesheet, expectedVersion int) error
	Delete(ctx context.Context, id core.TimesheetID, expectedVersion int) error
	List(ctx context.Context, filter TimesheetFilter) ([]*timesheet.Timesheet, error)
	ExistsForTutorCourseWeek(ctx context.Context, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error)
	SumBudgetUsed(ctx context.Context, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error)
}

// TxTimesheetRepository extends TimesheetRepository with a transactional
// boundary. WithTx runs fn against a TimesheetRepository view backed by a
// single underlying transaction (sqlite) or lock hold (memory), so a
// budget check (SumBudgetUsed) and the Create/Update it gates can never
// interleave with a concurrent writer's own check-then-mutate — the same
// guarantee timeoff/request.go's Store.WithTx gives ApproveRequest's
// balance-check-then-append. lifecycle.Service depends on this, not the
// plain TimesheetRepository, because Create/Update must run their
// duplicate/budget checks and their persist in one transaction.
type TxTimesheetRepository interface {
	TimesheetRepository
	WithTx(ctx context.Context, fn func(TimesheetRepository) error) error
}

// CourseRepository resolves course facts (lecturer ownership, budget cap).
// Named GetCourse/ListCourses, not Get/List, so a single concrete store
// can implement CourseRepository alongside TimesheetRepository without a
// method-name collision.
type CourseRepository interface {
	GetCourse(ctx context.Context, id core.CourseID) (*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)
}

// UserRepository resolves user facts (role). ListUsers backs the ADMIN
// dashboard's tutor-count aggregate (spec §4.8 "tutor counts (total,
// active)").
type UserRepository interface {
	GetUser(ctx context.Context, id core.UserID) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
}

// PolicyRepository loads the current Schedule-1 rate rows, used at
// startup and on an explicit reload to refresh the policy.Provider
// snapshot (spec's "Policy snapshot reload" supplement).
type PolicyRepository interface {
	LoadRows(ctx context.Context) ([]policy.Row, error)
}

// Clock abstracts wall-clock reads so lifecycle/approvalsvc stay
// deterministic under test, mirroring generic/time.go's TimePoint
// indirection in the teacher.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
