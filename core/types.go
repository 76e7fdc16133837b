/*
Package core provides the shared primitives used across every component of
the timesheet approval and payroll engine: money/hours arithmetic, the
Monday-anchored Week type, the role/task/status enums, and the typed error
used to carry a domain error code to any caller.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a decimal amount, always rounded half-up to 2 places at the point
    it becomes a payable total (never at intermediate steps).
  - Hours: a decimal quantity of hours, stored with 2 fractional digits.
  - Week: a Monday-anchored calendar week, used for week-start-date.
  - Role, TaskType, Qualification, Status, Action: the closed enums the rest
    of the engine switches over.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal throughout, never float64, for anything that
     reaches a payslip.
  2. Determinism: Quote/Calculate are pure functions of their inputs plus the
     policy snapshot in effect — no wall-clock reads inside them.
  3. Type safety: Role/TaskType/Qualification/Status/Action are distinct
     string-backed types so a mismatched enum is a compile error.

SEE ALSO:
  - errors.go: the Error type and sentinel error values.
  - week.go: Week arithmetic.
  - log.go: the leveled logger used by every service.
*/
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount. Half-up rounding to 2 places is applied only
// at the point a value becomes a payable total (Round2); intermediate
// multiplications keep full decimal precision.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal.Decimal as Money.
func NewMoney(d decimal.Decimal) Money { return Money{d} }

// MoneyFromFloat constructs Money from a float64 literal (test/seed data only).
func MoneyFromFloat(v float64) Money { return Money{decimal.NewFromFloat(v)} }

// ZeroMoney returns the zero Money value.
func ZeroMoney() Money { return Money{decimal.Zero} }

// Round2 returns the value rounded half-up to 2 fractional digits.
func (m Money) Round2() Money { return Money{m.Decimal.Round(2)} }

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{m.Decimal.Add(other.Decimal)} }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return Money{m.Decimal.Sub(other.Decimal)} }

// Mul returns m * factor.
func (m Money) Mul(factor decimal.Decimal) Money { return Money{m.Decimal.Mul(factor)} }

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool { return m.Decimal.GreaterThan(other.Decimal) }

// LessThanOrEqual reports whether m <= other.
func (m Money) LessThanOrEqual(other Money) bool { return m.Decimal.LessThanOrEqual(other.Decimal) }

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool { return m.Decimal.IsPositive() }

// ParseMoney parses a decimal string as produced by Money.String(). Used
// by store/sqlite when reading persisted monetary columns.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// Hours is a quantity of hours, stored with 2 fractional digits.
type Hours struct {
	decimal.Decimal
}

// NewHours constructs Hours from a float64 (request/DTO boundary only).
func NewHours(v float64) Hours { return Hours{decimal.NewFromFloat(v).Round(2)} }

// HoursFromDecimal wraps an existing decimal as Hours, rounded to 2 places.
func HoursFromDecimal(d decimal.Decimal) Hours { return Hours{d.Round(2)} }

func (h Hours) Add(other Hours) Hours { return Hours{h.Decimal.Add(other.Decimal).Round(2)} }

func (h Hours) GreaterThan(other Hours) bool { return h.Decimal.GreaterThan(other.Decimal) }

func (h Hours) LessThan(other Hours) bool { return h.Decimal.LessThan(other.Decimal) }

func (h Hours) Equal(other Hours) bool { return h.Decimal.Equal(other.Decimal) }

func (h Hours) IsZero() bool { return h.Decimal.IsZero() }

func (h Hours) IsNegative() bool { return h.Decimal.IsNegative() }

// ParseHours parses a decimal string as produced by Hours.String(). Used
// by store/sqlite when reading persisted hours columns.
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}, err
	}
	return Hours{d.Round(2)}, nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TimesheetID int64
type UserID int64
type CourseID int64

// =============================================================================
// ROLE
// =============================================================================

type Role string

const (
	RoleTutor    Role = "TUTOR"
	RoleLecturer Role = "LECTURER"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTutor, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// =============================================================================
// TASK TYPE / QUALIFICATION
// =============================================================================

type TaskType string

const (
	TaskTutorial TaskType = "TUTORIAL"
	TaskLecture  TaskType = "LECTURE"
	TaskORAA     TaskType = "ORAA"
	TaskDemo     TaskType = "DEMO"
	TaskMarking  TaskType = "MARKING"
	TaskOther    TaskType = "OTHER"
)

type Qualification string

const (
	QualificationStandard    Qualification = "STANDARD"
	QualificationPhD         Qualification = "PHD"
	QualificationCoordinator Qualification = "COORDINATOR"
)

// =============================================================================
// STATUS / ACTION
// =============================================================================

type Status string

const (
	StatusDraft                   Status = "DRAFT"
	StatusPendingTutorConfirm     Status = "PENDING_TUTOR_CONFIRMATION"
	StatusTutorConfirmed          Status = "TUTOR_CONFIRMED"
	StatusLecturerConfirmed       Status = "LECTURER_CONFIRMED"
	StatusFinalConfirmed          Status = "FINAL_CONFIRMED"
	StatusRejected                Status = "REJECTED"
	StatusModificationRequested   Status = "MODIFICATION_REQUESTED"
)

// Editable reports whether a Timesheet in this status may have its hours,
// description, task type, qualification, repeat flag, or week-start mutated.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusModificationRequested
}

type Action string

const (
	ActionSubmitForApproval    Action = "SUBMIT_FOR_APPROVAL"
	ActionTutorConfirm         Action = "TUTOR_CONFIRM"
	ActionLecturerConfirm      Action = "LECTURER_CONFIRM"
	ActionHRConfirm            Action = "HR_CONFIRM"
	ActionReject               Action = "REJECT"
	ActionRequestModification  Action = "REQUEST_MODIFICATION"
)

// CommentRequired reports whether the action must carry a non-blank comment.
func (a Action) CommentRequired() bool {
	return a == ActionReject || a == ActionRequestModification
}
