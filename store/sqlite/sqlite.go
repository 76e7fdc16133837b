/*
Package sqlite is the production implementation of the store contracts,
grounded on store/sqlite/sqlite.go in the teacher: WAL-mode SQLite behind
a sync.RWMutex, auto-migrated on New(), same "good enough for one
process, swap the driver for Postgres later" posture the teacher's doc
comment states.

Where the teacher's transactions table is purely append-only, the
timesheets table here is a mutable aggregate: every UPDATE carries a
`WHERE version = ?` clause and reports core.ErrConcurrentModification
when it affects zero rows, the SQL-level expression of the same
optimistic-concurrency contract the teacher gets for free from never
updating rows at all. The approval_history table underneath it IS
append-only, INSERT-only, exactly like the teacher's transactions table.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/timesheet"
)

// Store implements store.TimesheetRepository, store.CourseRepository,
// store.UserRepository and store.PolicyRepository over a single SQLite
// database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// ephemeral database in tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timesheets (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		tutor_id          INTEGER NOT NULL,
		course_id         INTEGER NOT NULL,
		week_start        TEXT NOT NULL,
		task_type         TEXT NOT NULL,
		qualification     TEXT NOT NULL,
		repeat            BOOLEAN NOT NULL DEFAULT 0,
		delivery_hours    TEXT NOT NULL,
		associated_hours  TEXT NOT NULL,
		hourly_rate       TEXT NOT NULL,
		rate_code         TEXT NOT NULL,
		clause_reference  TEXT NOT NULL,
		formula           TEXT NOT NULL,
		description       TEXT NOT NULL,
		status            TEXT NOT NULL,
		created_by        INTEGER NOT NULL,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		version           INTEGER NOT NULL,
		rejection_reason  TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_timesheets_tutor_course_week
		ON timesheets(tutor_id, course_id, week_start);
	CREATE INDEX IF NOT EXISTS idx_timesheets_course_status
		ON timesheets(course_id, status);
	CREATE INDEX IF NOT EXISTS idx_timesheets_tutor_status
		ON timesheets(tutor_id, status);

	-- Append-only audit trail: one row per transition, never updated.
	CREATE TABLE IF NOT EXISTS approval_history (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		timesheet_id INTEGER NOT NULL,
		action       TEXT NOT NULL,
		from_status  TEXT NOT NULL,
		to_status    TEXT NOT NULL,
		actor_id     INTEGER NOT NULL,
		actor_role   TEXT NOT NULL,
		comment      TEXT NOT NULL DEFAULT '',
		occurred_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_approval_history_timesheet
		ON approval_history(timesheet_id, id ASC);

	CREATE TABLE IF NOT EXISTS courses (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		code        TEXT NOT NULL,
		name        TEXT NOT NULL,
		lecturer_id INTEGER NOT NULL,
		budget_cap  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS policy_rows (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		task_type         TEXT NOT NULL,
		qualification     TEXT NOT NULL,
		repeat            BOOLEAN NOT NULL DEFAULT 0,
		effective_from    TEXT NOT NULL,
		effective_to      TEXT,
		rate_code         TEXT NOT NULL,
		hourly_rate       TEXT NOT NULL,
		clause_reference  TEXT NOT NULL,
		formula_template  TEXT NOT NULL,
		standard_cap      TEXT,
		repeat_cap        TEXT,
		contemporaneous   BOOLEAN NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const timeLayout = time.RFC3339

// querier is the subset of *sql.DB / *sql.Tx the timesheet repository
// methods below need. Parameterizing over it lets the same query logic
// run either directly against s.db (the normal, self-locking path) or
// against a single *sql.Tx shared by every call inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TIMESHEET REPOSITORY
// =============================================================================

func (s *Store) Create(ctx context.Context, ts *timesheet.Timesheet) (core.TimesheetID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createTimesheet(ctx, s.db, ts)
}

func createTimesheet(ctx context.Context, q querier, ts *timesheet.Timesheet) (core.TimesheetID, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO timesheets
		(tutor_id, course_id, week_start, task_type, qualification, repeat,
		 delivery_hours, associated_hours, hourly_rate, rate_code, clause_reference,
		 formula, description, status, created_by, created_at, updated_at, version,
		 rejection_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.TutorID, ts.CourseID, ts.WeekStart.String(), ts.TaskType, ts.Qualification, ts.Repeat,
		ts.DeliveryHours.String(), ts.AssociatedHours.String(), ts.HourlyRate.String(), ts.RateCode,
		ts.ClauseReference, ts.Formula, ts.Description, ts.Status, ts.CreatedBy,
		ts.CreatedAt.Format(timeLayout), ts.UpdatedAt.Format(timeLayout), ts.Version,
		ts.RejectionReason,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, core.ErrDuplicateTimesheet
		}
		return 0, core.FromError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.FromError(err)
	}
	ts.ID = core.TimesheetID(id)
	return ts.ID, nil
}

func (s *Store) Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTimesheet(ctx, s.db, id)
}

func getTimesheet(ctx context.Context, q querier, id core.TimesheetID) (*timesheet.Timesheet, error) {
	ts, err := scanTimesheetRow(q.QueryRowContext(ctx, timesheetSelectColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	history, err := loadHistory(ctx, q, id)
	if err != nil {
		return nil, err
	}
	ts.History = history
	return ts, nil
}

func (s *Store) Update(ctx context.Context, ts *timesheet.Timesheet, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FromError(err)
	}
	defer tx.Rollback()

	if err := updateTimesheet(ctx, tx, ts, expectedVersion); err != nil {
		return err
	}
	return core.FromError(tx.Commit())
}

func updateTimesheet(ctx context.Context, q querier, ts *timesheet.Timesheet, expectedVersion int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE timesheets SET
			task_type = ?, qualification = ?, repeat = ?, delivery_hours = ?,
			associated_hours = ?, hourly_rate = ?, rate_code = ?, clause_reference = ?,
			formula = ?, description = ?, status = ?, updated_at = ?, version = ?,
			rejection_reason = ?
		WHERE id = ? AND version = ?`,
		ts.TaskType, ts.Qualification, ts.Repeat, ts.DeliveryHours.String(),
		ts.AssociatedHours.String(), ts.HourlyRate.String(), ts.RateCode, ts.ClauseReference,
		ts.Formula, ts.Description, ts.Status, ts.UpdatedAt.Format(timeLayout), ts.Version,
		ts.RejectionReason, ts.ID, expectedVersion,
	)
	if err != nil {
		return core.FromError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.FromError(err)
	}
	if affected == 0 {
		return core.ErrConcurrentModification
	}

	if len(ts.History) > 0 {
		last := ts.History[len(ts.History)-1]
		if _, err := q.ExecContext(ctx, `
			INSERT INTO approval_history
			(timesheet_id, action, from_status, to_status, actor_id, actor_role, comment, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			last.TimesheetID, last.Action, last.FromStatus, last.ToStatus, last.ActorID,
			last.ActorRole, last.Comment, last.Timestamp.Format(timeLayout),
		); err != nil {
			return core.FromError(err)
		}
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id core.TimesheetID, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteTimesheet(ctx, s.db, id, expectedVersion)
}

func deleteTimesheet(ctx context.Context, q querier, id core.TimesheetID, expectedVersion int) error {
	res, err := q.ExecContext(ctx, `DELETE FROM timesheets WHERE id = ? AND version = ?`, id, expectedVersion)
	if err != nil {
		return core.FromError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.FromError(err)
	}
	if affected == 0 {
		return core.ErrConcurrentModification
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTimesheets(ctx, s.db, filter)
}

func listTimesheets(ctx context.Context, q querier, filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	query := timesheetSelectColumns + ` WHERE 1 = 1`
	var args []any

	if filter.TutorID != nil {
		query += ` AND tutor_id = ?`
		args = append(args, *filter.TutorID)
	}
	if filter.CourseID != nil {
		query += ` AND course_id = ?`
		args = append(args, *filter.CourseID)
	}
	if filter.WeekStart != nil {
		query += ` AND week_start = ?`
		args = append(args, filter.WeekStart.String())
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (`
		for i, st := range filter.Statuses {
			if i > 0 {
				query += `, `
			}
			query += `?`
			args = append(args, st)
		}
		query += `)`
	}
	query += ` ORDER BY week_start DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.FromError(err)
	}
	defer rows.Close()

	var out []*timesheet.Timesheet
	for rows.Next() {
		ts, err := scanTimesheetRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, core.FromError(rows.Err())
}

func (s *Store) ExistsForTutorCourseWeek(ctx context.Context, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return existsForTutorCourseWeek(ctx, s.db, tutorID, courseID, weekStart)
}

func existsForTutorCourseWeek(ctx context.Context, q querier, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM timesheets WHERE tutor_id = ? AND course_id = ? AND week_start = ?`,
		tutorID, courseID, weekStart.String(),
	).Scan(&count)
	return count > 0, core.FromError(err)
}

func (s *Store) SumBudgetUsed(ctx context.Context, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumBudgetUsed(ctx, s.db, courseID, excludeStatuses)
}

func sumBudgetUsed(ctx context.Context, q querier, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	query := `SELECT delivery_hours, associated_hours, hourly_rate FROM timesheets WHERE course_id = ?`
	args := []any{courseID}
	excluded := make(map[core.Status]bool, len(excludeStatuses))
	for _, st := range excludeStatuses {
		excluded[st] = true
	}
	if len(excluded) > 0 {
		query += ` AND status NOT IN (`
		i := 0
		for st := range excluded {
			if i > 0 {
				query += `, `
			}
			query += `?`
			args = append(args, st)
			i++
		}
		query += `)`
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return core.ZeroMoney(), core.FromError(err)
	}
	defer rows.Close()

	total := core.ZeroMoney()
	for rows.Next() {
		var deliveryStr, associatedStr, rateStr string
		if err := rows.Scan(&deliveryStr, &associatedStr, &rateStr); err != nil {
			return core.ZeroMoney(), core.FromError(err)
		}
		delivery, err1 := core.ParseHours(deliveryStr)
		associated, err2 := core.ParseHours(associatedStr)
		rate, err3 := core.ParseMoney(rateStr)
		if err1 != nil || err2 != nil || err3 != nil {
			return core.ZeroMoney(), core.ErrPersistenceFailure
		}
		amount := rate.Mul(delivery.Add(associated).Decimal).Round2()
		total = total.Add(amount)
	}
	return total, core.FromError(rows.Err())
}

// WithTx runs fn against a store.TimesheetRepository view backed by a
// single *sql.Tx, holding s.mu for fn's entire duration so a budget check
// and the create/update it gates can't interleave with another WithTx
// call or a plain Create/Update. Grounded on store/sqlite/sqlite.go's
// Store.WithTx in the teacher (same BeginTx-under-lock, defer Rollback,
// commit-on-success shape), adapted to hand back a TimesheetRepository
// instead of the teacher's append-only generic.Store.
func (s *Store) WithTx(ctx context.Context, fn func(store.TimesheetRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FromError(err)
	}
	defer tx.Rollback()

	if err := fn(&txTimesheetRepository{tx: tx}); err != nil {
		return err
	}
	return core.FromError(tx.Commit())
}

// txTimesheetRepository is the store.TimesheetRepository view WithTx
// hands to fn. Every method runs its query against the shared *sql.Tx
// rather than s.db, and none of them take s.mu — WithTx already holds it
// for the whole call.
type txTimesheetRepository struct {
	tx *sql.Tx
}

func (t *txTimesheetRepository) Create(ctx context.Context, ts *timesheet.Timesheet) (core.TimesheetID, error) {
	return createTimesheet(ctx, t.tx, ts)
}

func (t *txTimesheetRepository) Get(ctx context.Context, id core.TimesheetID) (*timesheet.Timesheet, error) {
	return getTimesheet(ctx, t.tx, id)
}

func (t *txTimesheetRepository) Update(ctx context.Context, ts *timesheet.Timesheet, expectedVersion int) error {
	return updateTimesheet(ctx, t.tx, ts, expectedVersion)
}

func (t *txTimesheetRepository) Delete(ctx context.Context, id core.TimesheetID, expectedVersion int) error {
	return deleteTimesheet(ctx, t.tx, id, expectedVersion)
}

func (t *txTimesheetRepository) List(ctx context.Context, filter store.TimesheetFilter) ([]*timesheet.Timesheet, error) {
	return listTimesheets(ctx, t.tx, filter)
}

func (t *txTimesheetRepository) ExistsForTutorCourseWeek(ctx context.Context, tutorID core.UserID, courseID core.CourseID, weekStart core.Week) (bool, error) {
	return existsForTutorCourseWeek(ctx, t.tx, tutorID, courseID, weekStart)
}

func (t *txTimesheetRepository) SumBudgetUsed(ctx context.Context, courseID core.CourseID, excludeStatuses []core.Status) (core.Money, error) {
	return sumBudgetUsed(ctx, t.tx, courseID, excludeStatuses)
}

const timesheetSelectColumns = `
	SELECT id, tutor_id, course_id, week_start, task_type, qualification, repeat,
	       delivery_hours, associated_hours, hourly_rate, rate_code, clause_reference,
	       formula, description, status, created_by, created_at, updated_at, version,
	       rejection_reason
	FROM timesheets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimesheetRow(row rowScanner) (*timesheet.Timesheet, error) {
	var (
		ts                                        timesheet.Timesheet
		weekStartStr, deliveryStr, associatedStr  string
		rateStr, createdAtStr, updatedAtStr       string
	)

	err := row.Scan(
		&ts.ID, &ts.TutorID, &ts.CourseID, &weekStartStr, &ts.TaskType, &ts.Qualification, &ts.Repeat,
		&deliveryStr, &associatedStr, &rateStr, &ts.RateCode, &ts.ClauseReference,
		&ts.Formula, &ts.Description, &ts.Status, &ts.CreatedBy, &createdAtStr, &updatedAtStr, &ts.Version,
		&ts.RejectionReason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrResourceNotFound
		}
		return nil, core.FromError(err)
	}

	week, err := core.ParseWeek(weekStartStr)
	if err != nil {
		return nil, core.ErrPersistenceFailure
	}
	ts.WeekStart = week

	delivery, err1 := core.ParseHours(deliveryStr)
	associated, err2 := core.ParseHours(associatedStr)
	rate, err3 := core.ParseMoney(rateStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, core.ErrPersistenceFailure
	}
	ts.DeliveryHours = delivery
	ts.AssociatedHours = associated
	ts.HourlyRate = rate

	ts.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, core.ErrPersistenceFailure
	}
	ts.UpdatedAt, err = time.Parse(timeLayout, updatedAtStr)
	if err != nil {
		return nil, core.ErrPersistenceFailure
	}
	return &ts, nil
}

func loadHistory(ctx context.Context, q querier, id core.TimesheetID) ([]timesheet.ApprovalHistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT timesheet_id, action, from_status, to_status, actor_id, actor_role, comment, occurred_at
		FROM approval_history WHERE timesheet_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, core.FromError(err)
	}
	defer rows.Close()

	var out []timesheet.ApprovalHistoryEntry
	for rows.Next() {
		var e timesheet.ApprovalHistoryEntry
		var occurredAtStr string
		if err := rows.Scan(&e.TimesheetID, &e.Action, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.ActorRole, &e.Comment, &occurredAtStr); err != nil {
			return nil, core.FromError(err)
		}
		e.Timestamp, err = time.Parse(timeLayout, occurredAtStr)
		if err != nil {
			return nil, core.ErrPersistenceFailure
		}
		out = append(out, e)
	}
	return out, core.FromError(rows.Err())
}

// =============================================================================
// COURSE / USER / POLICY REPOSITORIES
// =============================================================================

func (s *Store) GetCourse(ctx context.Context, id core.CourseID) (*store.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c store.Course
	var capStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, lecturer_id, budget_cap FROM courses WHERE id = ?`, id,
	).Scan(&c.ID, &c.Code, &c.Name, &c.LecturerID, &capStr)
	if err == sql.ErrNoRows {
		return nil, core.ErrResourceNotFound
	}
	if err != nil {
		return nil, core.FromError(err)
	}
	cap, err := core.ParseMoney(capStr)
	if err != nil {
		return nil, core.ErrPersistenceFailure
	}
	c.BudgetCap = cap
	return &c, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]*store.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name, lecturer_id, budget_cap FROM courses`)
	if err != nil {
		return nil, core.FromError(err)
	}
	defer rows.Close()

	var out []*store.Course
	for rows.Next() {
		var c store.Course
		var capStr string
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.LecturerID, &capStr); err != nil {
			return nil, core.FromError(err)
		}
		cap, err := core.ParseMoney(capStr)
		if err != nil {
			return nil, core.ErrPersistenceFailure
		}
		c.BudgetCap = cap
		out = append(out, &c)
	}
	return out, core.FromError(rows.Err())
}

func (s *Store) GetUser(ctx context.Context, id core.UserID) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u store.User
	err := s.db.QueryRowContext(ctx, `SELECT id, name, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Role)
	if err == sql.ErrNoRows {
		return nil, core.ErrResourceNotFound
	}
	if err != nil {
		return nil, core.FromError(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role FROM users`)
	if err != nil {
		return nil, core.FromError(err)
	}
	defer rows.Close()

	var out []*store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, core.FromError(err)
		}
		out = append(out, &u)
	}
	return out, core.FromError(rows.Err())
}

func (s *Store) LoadRows(ctx context.Context) ([]policy.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_type, qualification, repeat, effective_from, effective_to, rate_code,
		       hourly_rate, clause_reference, formula_template, standard_cap, repeat_cap, contemporaneous
		FROM policy_rows`)
	if err != nil {
		return nil, core.FromError(err)
	}
	defer rows.Close()

	var out []policy.Row
	for rows.Next() {
		var (
			r                              policy.Row
			fromStr                        string
			toStr, stdCapStr, repeatCapStr sql.NullString
			rateStr                        string
		)
		if err := rows.Scan(&r.TaskType, &r.Qualification, &r.Repeat, &fromStr, &toStr, &r.RateCode,
			&rateStr, &r.ClauseReference, &r.FormulaTemplate, &stdCapStr, &repeatCapStr, &r.Contemporaneous); err != nil {
			return nil, core.FromError(err)
		}

		from, err := core.ParseWeek(fromStr)
		if err != nil {
			return nil, core.ErrPersistenceFailure
		}
		r.EffectiveFrom = from

		if toStr.Valid && toStr.String != "" {
			to, err := core.ParseWeek(toStr.String)
			if err != nil {
				return nil, core.ErrPersistenceFailure
			}
			r.EffectiveTo = &to
		}

		rate, err := core.ParseMoney(rateStr)
		if err != nil {
			return nil, core.ErrPersistenceFailure
		}
		r.HourlyRate = rate

		if stdCapStr.Valid {
			h, err := core.ParseHours(stdCapStr.String)
			if err != nil {
				return nil, core.ErrPersistenceFailure
			}
			r.StandardCap = &h
		}
		if repeatCapStr.Valid {
			h, err := core.ParseHours(repeatCapStr.String)
			if err != nil {
				return nil, core.ErrPersistenceFailure
			}
			r.RepeatCap = &h
		}

		out = append(out, r)
	}
	return out, core.FromError(rows.Err())
}

func isUniqueConstraintError(err error) bool {
	return err != nil && containsAny(err.Error(), "UNIQUE constraint failed", "constraint failed: UNIQUE")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
