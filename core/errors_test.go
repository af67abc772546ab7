package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestVersionConflictError_Matching(t *testing.T) {
	base := &VersionConflictError{SessionID: "s1", Expected: 3, Actual: 5}
	wrapped := fmt.Errorf("append failed: %w", base)

	if !IsVersionConflict(wrapped) {
		t.Error("wrapped conflict should still match")
	}
	if IsVersionConflict(errors.New("other")) {
		t.Error("unrelated error should not match")
	}

	var vc *VersionConflictError
	if !errors.As(wrapped, &vc) || vc.Actual != 5 {
		t.Errorf("expected actual version 5, got %+v", vc)
	}
}

func TestRetrievalUnavailableError_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &RetrievalUnavailableError{Cause: cause}

	if !IsRetrievalUnavailable(err) {
		t.Error("should match itself")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !err.Retryable() {
		t.Error("retrieval outage is retryable")
	}
}

func TestTaskFailedError_Message(t *testing.T) {
	err := &TaskFailedError{TaskID: "t1", Agent: "data_scientist", Reason: TaskFailBudgetExceeded}
	want := "task t1 (data_scientist) failed: budget_exceeded"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestHashArtifact_Deterministic(t *testing.T) {
	a := HashArtifact([]byte("report"))
	b := HashArtifact([]byte("report"))
	c := HashArtifact([]byte("other"))
	if a != b {
		t.Error("same payload must hash to same id")
	}
	if a == c {
		t.Error("different payloads must not collide")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256 length 64, got %d", len(a))
	}
}
