/*
Package memory is an in-process reference implementation of the store
contracts, grounded on generic/store/memory.go's map-backed store: a
sync.Mutex-guarded map standing in for a database, used by lifecycle/
approvalsvc/query tests so they don't need a real SQLite file.

It is NOT a substitute for store/sqlite's concurrency control outside of
tests: the mutex here serializes access within a single process only,
same caveat the teacher's in-memory store carries.
*/
package memory

import (
	"context"
	"sync"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/timesheet"
)

// TimesheetStore is an in-memory store.TimesheetRepository.
type TimesheetStore struct {
	mu     sync.Mutex
	nextID core.TimesheetID
	rows   map[core.TimesheetID]*timesheet.Timesheet
}

// NewTimesheetStore returns an empty TimesheetStore.
func NewTimesheetStore() *TimesheetStore {
	return &TimesheetStore{rows: make(map[core.TimesheetID]*timesheet.Timesheet)}
}

func clone(ts *timesheet.Timesheet) *timesheet.Timesheet {
	cp := *ts
	cp.History = append([]timesheet.ApprovalHistoryEntry(nil), ts.History...)
	return &cp
}

func (s *TimesheetStore) Create(ctx context.Context, ts *timesheet.Timesheet) (core.TimesheetID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ts)
}

func (s *TimesheetStore) createLocked(ts *timesheet.Timesheet) (core.TimesheetID, error) {
	s.nextID++
	ts.ID = s.nextID
	s.rows[ts.ID] = clone(ts)
	return ts.ID, nil
}

func (s *TimesheetStore) Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *TimesheetStore) getLocked(id core.TimesheetID) (*timesheet.Timesheet, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, core.ErrResourceNotFound
	}
	return clone(row), nil
}

func (s *TimesheetStore) Update(ctx context.Context, ts *timesheet.Timesheet, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ts, expectedVersion)
}

func (s *TimesheetStore) updateLocked(ts *timesheet.Timesheet, expectedVersion int) error {
	row, ok := s.rows[ts.ID]
	if !ok {
		return core.ErrResourceNotFound
	}
	if row.Version != expectedVersion {
		return core.ErrConcurrentModification
	}
	s.rows[ts.ID] = clone(ts)
	return nil
}

func (s *TimesheetStore) Delete(ctx context.Context, id core.TimesheetID, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id, expectedVersion)
}

func (s *TimesheetStore) deleteLocked(id core.TimesheetID, expectedVersion int) error {
	row, ok := s.rows[id]
	if !ok {
		return core.ErrResourceNotFound
	}
	if row.Version != expectedVersion {
		return core.ErrConcurrentModification
	}
	delete(s.rows, id)
	return nil
}

func (s *TimesheetStore) List(ctx context.Context, filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(filter)
}

func (s *TimesheetStore) listLocked(filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	statusSet := make(map[core.Status]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statusSet[st] = true
	}

	var out []*timesheet.Timesheet
	for _, row := range s.rows {
		if filter.TutorID != nil && row.TutorID != *filter.TutorID {
			continue
		}
		if filter.CourseID != nil && row.CourseID != *filter.CourseID {
			continue
		}
		if filter.WeekStart != nil && !row.WeekStart.Equal(*filter.WeekStart) {
			continue
		}
		if len(statusSet) > 0 && !statusSet[row.Status] {
			continue
		}
		out = append(out, clone(row))
	}
	return out, nil
}

func (s *TimesheetStore) ExistsForTutorCourseWeek(ctx context.Context, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsForTutorCourseWeekLocked(tutorID, courseID, weekStart)
}

func (s *TimesheetStore) existsForTutorCourseWeekLocked(tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	for _, row := range s.rows {
		if row.TutorID == tutorID && row.CourseID == courseID && row.WeekStart.Equal(weekStart) {
			return true, nil
		}
	}
	return false, nil
}

func (s *TimesheetStore) SumBudgetUsed(ctx context.Context, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumBudgetUsedLocked(courseID, excludeStatuses)
}

func (s *TimesheetStore) sumBudgetUsedLocked(courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	excluded := make(map[core.Status]bool, len(excludeStatuses))
	for _, st := range excludeStatuses {
		excluded[st] = true
	}

	total := core.ZeroMoney()
	for _, row := range s.rows {
		if row.CourseID != courseID {
			continue
		}
		if excluded[row.Status] {
			continue
		}
		total = total.Add(row.Amount())
	}
	return total, nil
}

// WithTx runs fn against a view of this store that shares the single
// mutex hold for fn's entire duration, so a budget check and the
// create/update it gates can never interleave with a concurrent writer's
// own check-then-mutate. Grounded on generic/store/memory.go's
// TxMemory.WithTx; there is no commit/rollback step because every
// mutation here is already an atomic map assignment made under the held
// lock — the lock itself is the transaction boundary.
func (s *TimesheetStore) WithTx(ctx context.Context, fn func(store.TimesheetRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txTimesheetStore{store: s})
}

// txTimesheetStore is the store.TimesheetRepository view handed to
// WithTx's fn. It calls the lock-free *Locked helpers directly since the
// enclosing WithTx already holds TimesheetStore.mu for the whole call —
// routing through the public, self-locking methods here would deadlock
// (sync.Mutex is not reentrant).
type txTimesheetStore struct {
	store *TimesheetStore
}

func (t *txTimesheetStore) Create(ctx context.Context, ts *timesheet.Timesheet) (core.TimesheetID, error) {
	return t.store.createLocked(ts)
}

func (t *txTimesheetStore) Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error) {
	return t.store.getLocked(id)
}

func (t *txTimesheetStore) Update(ctx context.Context, ts *timesheet.Timesheet, expectedVersion int) error {
	return t.store.updateLocked(ts, expectedVersion)
}

func (t *txTimesheetStore) Delete(ctx context.Context, id core.TimesheetID, expectedVersion int) error {
	return t.store.deleteLocked(id, expectedVersion)
}

func (t *txTimesheetStore) List(ctx context.Context, filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	return t.store.listLocked(filter)
}

func (t *txTimesheetStore) ExistsForTutorCourseWeek(ctx context.Context, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	return t.store.existsForTutorCourseWeekLocked(tutorID, courseID, weekStart)
}

func (t *txTimesheetStore) SumBudgetUsed(ctx context.Context, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	return t.store.sumBudgetUsedLocked(courseID, excludeStatuses)
}

// CourseStore is an in-memory store.CourseRepository, seeded directly by
// tests via Courses.
type CourseStore struct {
	mu      sync.Mutex
	Courses map[core.CourseID]*store.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{Courses: make(map[core.CourseID]*store.Course)}
}

func (s *CourseStore) GetCourse(ctx context.Context, id core.CourseID) (*store.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.Courses[id]
	if !ok {
		return nil, core.ErrResourceNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *CourseStore) ListCourses(ctx context.Context) ([]*store.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Course, 0, len(s.Courses))
	for _, c := range s.Courses {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// UserStore is an in-memory store.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	Users map[core.UserID]*store.User
}

func NewUserStore() *UserStore {
	return &UserStore{Users: make(map[core.UserID]*store.User)}
}

func (s *UserStore) GetUser(ctx context.Context, id core.UserID) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users[id]
	if !ok {
		return nil, core.ErrResourceNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.User, 0, len(s.Users))
	for _, u := range s.Users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// PolicyStore is an in-memory store.PolicyRepository, returning a fixed
// slice of rows (tests construct it directly).
type PolicyStore struct {
	Rows []policy.Row
}

func (s *PolicyStore) LoadRows(ctx context.Context) ([]policy.Row, error) {
	return s.Rows, nil
}
