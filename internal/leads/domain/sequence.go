package domain

import (
	"errors"
	"time"
)

// Known sequence names.
const (
	SequenceColdOutreach      = "cold_outreach"
	SequenceCalculatorNurture = "calculator_nurture"
)

// Pause reasons. A paused lead is never picked up by the dispatcher,
// whatever next_email_at says.
const (
	PauseReplied        = "replied"
	PauseManual         = "manual"
	PauseUnsubscribed   = "unsubscribed"
	PauseNoConsent      = "no_consent"
	PauseSigned         = "signed"
	PauseBounced        = "bounced"
	PauseSequencePaused = "sequence_paused"
)

var (
	ErrUnknownSequence    = errors.New("unknown sequence name")
	ErrUnknownPauseReason = errors.New("unknown pause reason")
	ErrSequenceUnassigned = errors.New("lead has no sequence assigned")
)

var knownSequences = map[string]struct{}{
	SequenceColdOutreach:      {},
	SequenceCalculatorNurture: {},
}

var knownPauseReasons = map[string]struct{}{
	PauseReplied:        {},
	PauseManual:         {},
	PauseUnsubscribed:   {},
	PauseNoConsent:      {},
	PauseSigned:         {},
	PauseBounced:        {},
	PauseSequencePaused: {},
}

// IsKnownSequence reports whether the name is a recognized sequence.
func IsKnownSequence(name string) bool {
	_, ok := knownSequences[name]
	return ok
}

// IsKnownPauseReason reports whether the reason is a recognized pause reason.
func IsKnownPauseReason(reason string) bool {
	_, ok := knownPauseReasons[reason]
	return ok
}

// SequenceState is the sequencing slice of a lead, modeled as an explicit
// state with named transitions instead of ad-hoc field writes. States:
// unassigned (Sequence empty), active (Step, NextEmailAt), paused (Reason).
// Transitions return a new value; the receiver is never mutated.
type SequenceState struct {
	Sequence     string
	Step         int
	NextEmailAt  *time.Time
	Paused       bool
	PausedReason string
}

// Assign enrolls the lead in a sequence: step resets to 0 and any pause
// is cleared, regardless of prior state. When startImmediately is set the
// lead is due right away; otherwise scheduling is left to the caller.
func (s SequenceState) Assign(sequence string, startImmediately bool, now time.Time) (SequenceState, error) {
	if !IsKnownSequence(sequence) {
		return s, ErrUnknownSequence
	}

	next := s
	next.Sequence = sequence
	next.Step = 0
	next.Paused = false
	next.PausedReason = ""
	next.NextEmailAt = nil
	if startImmediately {
		next.NextEmailAt = &now
	}
	return next, nil
}

// Advance skips the lead past the current pending email: step increments
// and the lead becomes due immediately. No email is sent.
func (s SequenceState) Advance(now time.Time) (SequenceState, error) {
	if s.Sequence == "" {
		return s, ErrSequenceUnassigned
	}

	next := s
	next.Step++
	next.NextEmailAt = &now
	return next, nil
}

// Pause suppresses further automated sends. Pausing an already-paused
// lead overwrites the reason with the newer one.
func (s SequenceState) Pause(reason string) (SequenceState, error) {
	if !IsKnownPauseReason(reason) {
		return s, ErrUnknownPauseReason
	}

	next := s
	next.Paused = true
	next.PausedReason = reason
	return next, nil
}

// Resume clears the pause unconditionally. It does not restore a previous
// schedule or recompute NextEmailAt; callers reschedule if they want the
// lead due again.
func (s SequenceState) Resume() SequenceState {
	next := s
	next.Paused = false
	next.PausedReason = ""
	return next
}

// Completed reports whether the lead has walked past the last active
// template step. Completion is inferred, never stored.
func (s SequenceState) Completed(maxActiveStep int) bool {
	return s.Sequence != "" && s.Step > maxActiveStep
}
