package core

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id does not exist in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTurnInFlight is returned when a turn is submitted for a session that is
// already processing another turn. Turns for one session never run concurrently.
var ErrTurnInFlight = errors.New("turn already in flight for session")

// VersionConflictError reports a rejected session write whose expected version
// no longer matches the stored version. The write is rejected as a whole; no
// partial state is applied.
type VersionConflictError struct {
	SessionID string
	Expected  int64
	Actual    int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("session %s version conflict: expected %d, actual %d", e.SessionID, e.Expected, e.Actual)
}

// IsVersionConflict reports whether err is (or wraps) a VersionConflictError.
func IsVersionConflict(err error) bool {
	var vc *VersionConflictError
	return errors.As(err, &vc)
}

// SessionConflictError is returned when the runner exhausts its reload-and-retry
// attempts without committing the turn.
type SessionConflictError struct {
	SessionID string
	Attempts  int
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("session %s could not be updated after %d attempts", e.SessionID, e.Attempts)
}

// RetrievalUnavailableError signals that the retrieval backend (typically the
// embedding service) could not be reached. The operation is retryable.
type RetrievalUnavailableError struct {
	Cause error
}

func (e *RetrievalUnavailableError) Error() string {
	return fmt.Sprintf("retrieval unavailable: %v", e.Cause)
}

func (e *RetrievalUnavailableError) Unwrap() error { return e.Cause }

// Retryable marks the error as transient.
func (e *RetrievalUnavailableError) Retryable() bool { return true }

// IsRetrievalUnavailable reports whether err is (or wraps) a
// RetrievalUnavailableError.
func IsRetrievalUnavailable(err error) bool {
	var ru *RetrievalUnavailableError
	return errors.As(err, &ru)
}

// TaskFailReason classifies why a delegated task failed.
type TaskFailReason string

const (
	// TaskFailBudgetExceeded means the task spent its tool call budget without
	// producing a final answer.
	TaskFailBudgetExceeded TaskFailReason = "budget_exceeded"
	// TaskFailTimeout means the per-task deadline expired.
	TaskFailTimeout TaskFailReason = "timeout"
	// TaskFailCanceled means the turn was canceled while the task ran.
	TaskFailCanceled TaskFailReason = "canceled"
	// TaskFailModelError means the model backend returned an error.
	TaskFailModelError TaskFailReason = "model_error"
	// TaskFailRetriesExhausted means the task kept failing past its retry limit.
	TaskFailRetriesExhausted TaskFailReason = "retries_exhausted"
)

// TaskFailedError reports a failed task along with the partial trace collected
// before the failure.
type TaskFailedError struct {
	TaskID string
	Agent  string
	Reason TaskFailReason
	Trace  []TraceStep
	Err    error
}

func (e *TaskFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %s (%s) failed: %s: %v", e.TaskID, e.Agent, e.Reason, e.Err)
	}
	return fmt.Sprintf("task %s (%s) failed: %s", e.TaskID, e.Agent, e.Reason)
}

func (e *TaskFailedError) Unwrap() error { return e.Err }
