package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAssignResetsStateRegardlessOfPriorState(t *testing.T) {
	now := time.Now()
	later := now.Add(48 * time.Hour)

	state := SequenceState{
		Sequence:     SequenceColdOutreach,
		Step:         7,
		NextEmailAt:  &later,
		Paused:       true,
		PausedReason: PauseReplied,
	}

	next, err := state.Assign(SequenceCalculatorNurture, true, now)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	if next.Sequence != SequenceCalculatorNurture {
		t.Errorf("sequence = %q, want %q", next.Sequence, SequenceCalculatorNurture)
	}
	if next.Step != 0 {
		t.Errorf("step = %d, want 0", next.Step)
	}
	if next.Paused || next.PausedReason != "" {
		t.Errorf("pause not cleared: paused=%v reason=%q", next.Paused, next.PausedReason)
	}
	if next.NextEmailAt == nil || !next.NextEmailAt.Equal(now) {
		t.Errorf("nextEmailAt = %v, want %v", next.NextEmailAt, now)
	}
}

func TestAssignWithoutStartLeavesSchedulingToCaller(t *testing.T) {
	next, err := SequenceState{}.Assign(SequenceColdOutreach, false, time.Now())
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if next.NextEmailAt != nil {
		t.Fatalf("expected nil nextEmailAt, got %v", next.NextEmailAt)
	}
}

func TestAssignRejectsUnknownSequence(t *testing.T) {
	_, err := SequenceState{}.Assign("win_back", true, time.Now())
	if !errors.Is(err, ErrUnknownSequence) {
		t.Fatalf("expected ErrUnknownSequence, got %v", err)
	}
}

func TestAdvanceIncrementsStepAndMakesLeadDue(t *testing.T) {
	now := time.Now()
	state := SequenceState{Sequence: SequenceColdOutreach, Step: 2}

	next, err := state.Advance(now)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if next.Step != 3 {
		t.Errorf("step = %d, want 3", next.Step)
	}
	if next.NextEmailAt == nil || !next.NextEmailAt.Equal(now) {
		t.Errorf("nextEmailAt = %v, want %v", next.NextEmailAt, now)
	}
}

func TestAdvanceRequiresAssignedSequence(t *testing.T) {
	_, err := SequenceState{}.Advance(time.Now())
	if !errors.Is(err, ErrSequenceUnassigned) {
		t.Fatalf("expected ErrSequenceUnassigned, got %v", err)
	}
}

func TestPauseValidatesReason(t *testing.T) {
	state := SequenceState{Sequence: SequenceColdOutreach}

	next, err := state.Pause(PauseBounced)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if !next.Paused || next.PausedReason != PauseBounced {
		t.Errorf("pause not applied: paused=%v reason=%q", next.Paused, next.PausedReason)
	}

	if _, err := state.Pause("vacation"); !errors.Is(err, ErrUnknownPauseReason) {
		t.Fatalf("expected ErrUnknownPauseReason, got %v", err)
	}
}

func TestPauseOverwritesExistingReason(t *testing.T) {
	state := SequenceState{Sequence: SequenceColdOutreach, Paused: true, PausedReason: PauseManual}

	next, err := state.Pause(PauseUnsubscribed)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if next.PausedReason != PauseUnsubscribed {
		t.Fatalf("reason = %q, want %q", next.PausedReason, PauseUnsubscribed)
	}
}

func TestResumeClearsReasonButNotSchedule(t *testing.T) {
	at := time.Now().Add(-time.Hour)
	state := SequenceState{
		Sequence:     SequenceColdOutreach,
		Step:         4,
		NextEmailAt:  &at,
		Paused:       true,
		PausedReason: PauseManual,
	}

	next := state.Resume()
	if next.Paused || next.PausedReason != "" {
		t.Errorf("resume did not clear pause: paused=%v reason=%q", next.Paused, next.PausedReason)
	}
	if next.NextEmailAt == nil || !next.NextEmailAt.Equal(at) {
		t.Errorf("resume must not touch nextEmailAt: got %v, want %v", next.NextEmailAt, at)
	}
	if next.Step != 4 {
		t.Errorf("resume must not touch step: got %d", next.Step)
	}
}

func TestCompletedIsInferredFromMaxActiveStep(t *testing.T) {
	state := SequenceState{Sequence: SequenceColdOutreach, Step: 5}

	if state.Completed(5) {
		t.Error("step equal to max active step is not yet complete")
	}
	if !state.Completed(4) {
		t.Error("step past max active step should be complete")
	}
	if (SequenceState{}).Completed(0) {
		t.Error("unassigned lead can never be complete")
	}
}

func TestUpgradeToEngaged(t *testing.T) {
	cases := []struct {
		current string
		want    string
	}{
		{StatusNew, StatusEngaged},
		{StatusNurturing, StatusEngaged},
		{StatusEngaged, StatusEngaged},
		{StatusQualified, StatusQualified},
		{StatusInConversation, StatusInConversation},
		{StatusSigned, StatusSigned},
	}

	for _, tc := range cases {
		if got := UpgradeToEngaged(tc.current); got != tc.want {
			t.Errorf("UpgradeToEngaged(%q) = %q, want %q", tc.current, got, tc.want)
		}
	}
}
