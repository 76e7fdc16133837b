/*
errors.go - the typed domain error carried out of every core operation

PURPOSE:
  Every exit path from the core produces either a successful result or a
  *Error. Nothing is silently swallowed (spec §7). Error.Status mirrors the
  HTTP status a transport collaborator should map the code to, carried as
  plain data — no core package performs HTTP translation itself.

USAGE:
  if err := svc.Create(ctx, input); err != nil {
      var domainErr *core.Error
      if errors.As(err, &domainErr) && domainErr.Code == core.CodeBudgetExceeded {
          ...
      }
  }

SEE ALSO:
  - types.go: the enums referenced by validation errors.
*/
package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error with an HTTP-shaped status and a stable code.
type Error struct {
	Code    string
	Message string
	Status  int
	Fields  map[string]string // field -> message, populated for VALIDATION_FAILED
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a code/status/message to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WithFields returns a copy of e carrying field-level validation messages.
func (e *Error) WithFields(fields map[string]string) *Error {
	clone := *e
	clone.Fields = fields
	return &clone
}

// Clone returns a copy of err, optionally overriding the message.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromError normalizes any error into an *Error, wrapping unexpected causes
// as PERSISTENCE_FAILURE. It returns the error interface, not *Error,
// specifically so that a nil err produces a true nil interface — callers
// that pass the result straight back as a function's error return value
// (e.g. store/sqlite's repository methods) never get a non-nil interface
// wrapping a nil *Error.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrPersistenceFailure.Code, ErrPersistenceFailure.Status, ErrPersistenceFailure.Message)
}

// Stable error codes, matching spec §7 exactly.
const (
	CodeValidationFailed                 = "VALIDATION_FAILED"
	CodeInvalidTutorialDelivery           = "INVALID_TUTORIAL_DELIVERY"
	CodeWeekNotMonday                     = "WEEK_NOT_MONDAY"
	CodeWeekInFuture                      = "WEEK_IN_FUTURE"
	CodeHoursOutOfRange                   = "HOURS_OUT_OF_RANGE"
	CodeNonPositiveHours                  = "NON_POSITIVE_HOURS"
	CodeDescriptionRequired               = "DESCRIPTION_REQUIRED"
	CodeCommentRequired                   = "COMMENT_REQUIRED"
	CodeUnsupportedTaskType               = "UNSUPPORTED_TASK_TYPE"
	CodeContemporaneousMarkingNotPayable  = "CONTEMPORANEOUS_MARKING_NOT_PAYABLE"
	CodePolicyNotFound                    = "POLICY_NOT_FOUND"
	CodeDuplicateTimesheet                = "DUPLICATE_TIMESHEET"
	CodeBudgetExceeded                    = "BUDGET_EXCEEDED"
	CodeNotEditable                       = "NOT_EDITABLE"
	CodeInvalidTransition                 = "INVALID_TRANSITION"
	CodeConcurrentModification            = "CONCURRENT_MODIFICATION"
	CodeAuthorizationFailed               = "AUTHORIZATION_FAILED"
	CodeResourceNotFound                  = "RESOURCE_NOT_FOUND"
	CodePersistenceFailure                = "PERSISTENCE_FAILURE"
)

// Predefined sentinel errors. Services return Clone(...) of these to
// customize the message without losing the code/status.
var (
	ErrValidationFailed                = New(CodeValidationFailed, http.StatusBadRequest, "validation failed")
	ErrInvalidTutorialDelivery         = New(CodeInvalidTutorialDelivery, http.StatusBadRequest, "tutorial delivery hours must be exactly 1.0")
	ErrWeekNotMonday                   = New(CodeWeekNotMonday, http.StatusBadRequest, "week start date must be a Monday")
	ErrWeekInFuture                    = New(CodeWeekInFuture, http.StatusBadRequest, "week start date must not be in the future")
	ErrHoursOutOfRange                 = New(CodeHoursOutOfRange, http.StatusBadRequest, "delivery hours out of range")
	ErrNonPositiveHours                = New(CodeNonPositiveHours, http.StatusBadRequest, "delivery hours must be positive")
	ErrDescriptionRequired             = New(CodeDescriptionRequired, http.StatusBadRequest, "description is required")
	ErrCommentRequired                 = New(CodeCommentRequired, http.StatusBadRequest, "comment is required for this action")
	ErrUnsupportedTaskType             = New(CodeUnsupportedTaskType, http.StatusUnprocessableEntity, "task type is not payable under Schedule 1")
	ErrContemporaneousMarkingNotPayable = New(CodeContemporaneousMarkingNotPayable, http.StatusUnprocessableEntity, "contemporaneous marking is not separately payable")
	ErrPolicyNotFound                  = New(CodePolicyNotFound, http.StatusUnprocessableEntity, "no policy row matches the requested parameters")
	ErrDuplicateTimesheet              = New(CodeDuplicateTimesheet, http.StatusConflict, "a timesheet already exists for this tutor, course, and week")
	ErrBudgetExceeded                  = New(CodeBudgetExceeded, http.StatusUnprocessableEntity, "course budget would be exceeded")
	ErrNotEditable                     = New(CodeNotEditable, http.StatusUnprocessableEntity, "timesheet is not editable in its current status")
	ErrInvalidTransition               = New(CodeInvalidTransition, http.StatusUnprocessableEntity, "action is not permitted from the current status")
	ErrConcurrentModification          = New(CodeConcurrentModification, http.StatusConflict, "timesheet was modified concurrently")
	ErrAuthorizationFailed             = New(CodeAuthorizationFailed, http.StatusForbidden, "actor is not authorized to perform this action")
	ErrResourceNotFound                = New(CodeResourceNotFound, http.StatusNotFound, "resource not found")
	ErrPersistenceFailure              = New(CodePersistenceFailure, http.StatusInternalServerError, "persistence failure")
)

// AsError normalizes any error into *Error, wrapping unexpected causes as
// PERSISTENCE_FAILURE. Unlike FromError (which returns the error
// interface so a nil input produces a true nil interface for direct
// passthrough), AsError is for callers whose own return type is
// *Error — lifecycle/approvalsvc/query compare err.Code after a
// repository call, so they want the concrete type back, and a nil
// *Error pointer compares correctly against nil in that context.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrPersistenceFailure.Code, ErrPersistenceFailure.Status, ErrPersistenceFailure.Message)
}

// IsRetryable reports whether retrying the same operation might succeed.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeConcurrentModification
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Code == CodeResourceNotFound || e.Code == CodePolicyNotFound)
}
