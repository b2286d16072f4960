package dataobjects

import (
	"testing"
	"time"
)

func TestRoundLifecycleScenario(t *testing.T) {
	round := &Round{
		ID:      "round-2026-W10",
		ISOWeek: "2026-W10",
		Status:  RoundInProgress,
	}

	// submission with zero observations is refused
	err := round.ApplySubmit("Kouassi", time.Now())
	if err != ErrEmptyRound {
		t.Fatalf("expected ErrEmptyRound, got %v", err)
	}
	if round.Status != RoundInProgress {
		t.Fatalf("failed submission must not change the status")
	}

	round.FilledCount = 1
	round.TotalCount = 12
	submittedAt := time.Now()
	err = round.ApplySubmit("Kouassi", submittedAt)
	if err != nil {
		t.Fatal(err)
	}
	if round.Status != RoundAwaitingValidation {
		t.Fatalf("expected AWAITING_VALIDATION, got %s", round.Status)
	}
	if !round.Submitted || round.SubmittedBy != "Kouassi" || !round.SubmittedAt.Equal(submittedAt) {
		t.Errorf("submission metadata not recorded: %+v", round)
	}

	err = round.ApplyReturnToEdit()
	if err != nil {
		t.Fatal(err)
	}
	if round.Status != RoundInProgress {
		t.Fatalf("expected IN_PROGRESS after return to edit, got %s", round.Status)
	}
	if round.Submitted || round.SubmittedBy != "" || !round.SubmittedAt.IsZero() {
		t.Errorf("submission metadata not cleared: %+v", round)
	}

	err = round.ApplySubmit("Kouassi", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	global := 92.5
	err = round.ApplyValidate("Alice", "RAS", time.Now(), &global)
	if err != nil {
		t.Fatal(err)
	}
	if round.Status != RoundValidated {
		t.Fatalf("expected VALIDATED, got %s", round.Status)
	}
	if !round.Validated || round.ValidatedBy != "Alice" || round.GlobalRemark != "RAS" {
		t.Errorf("validation metadata not recorded: %+v", round)
	}
	if round.GlobalAvailability == nil || *round.GlobalAvailability != 92.5 {
		t.Errorf("global availability not stored on the round")
	}
}

func TestNoShortcutTransitions(t *testing.T) {
	global := 100.0

	// validation requires the submission checkpoint
	round := &Round{Status: RoundInProgress, FilledCount: 5}
	if err := round.ApplyValidate("Alice", "", time.Now(), &global); err != ErrInvalidTransition {
		t.Errorf("IN_PROGRESS → VALIDATED must be refused, got %v", err)
	}
	if err := round.ApplyReturnToEdit(); err != ErrInvalidTransition {
		t.Errorf("IN_PROGRESS → return-to-edit must be refused, got %v", err)
	}

	round = &Round{Status: RoundValidated, FilledCount: 5}
	if err := round.ApplySubmit("Kouassi", time.Now()); err != ErrInvalidTransition {
		t.Errorf("submitting a validated round must be refused, got %v", err)
	}
	if err := round.ApplyReturnToEdit(); err != ErrInvalidTransition {
		t.Errorf("returning a validated round to edit must be refused, got %v", err)
	}
	if err := round.ApplyValidate("Alice", "", time.Now(), &global); err != ErrInvalidTransition {
		t.Errorf("re-validating a validated round must be refused, got %v", err)
	}

	round = &Round{Status: RoundAwaitingValidation, FilledCount: 5}
	if err := round.ApplySubmit("Kouassi", time.Now()); err != ErrInvalidTransition {
		t.Errorf("re-submitting a submitted round must be refused, got %v", err)
	}
}

func TestEquipmentStatusHelpers(t *testing.T) {
	if !StatusDegraded.Anomalous() || !StatusOutOfService.Anomalous() {
		t.Errorf("degraded and out-of-service must be anomalous")
	}
	if StatusOperational.Anomalous() {
		t.Errorf("operational must not be anomalous")
	}
	if !StatusOperational.Valid() || EquipmentStatus("BROKEN").Valid() {
		t.Errorf("status validity check is wrong")
	}

	line := &RoundLine{}
	if line.Observed() {
		t.Errorf("a line without status must not count as observed")
	}
	line.Status = StatusOperational
	if !line.Observed() {
		t.Errorf("a line with a status must count as observed")
	}
}
