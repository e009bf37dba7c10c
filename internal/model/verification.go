package model

import "time"

// ProofKind identifies what a verification proof attests to.
type ProofKind string

// Proof kinds.
const (
	ProofRequirements ProofKind = "requirements"
	ProofMedicalExam  ProofKind = "medical_exam"
)

// ProofStatus is the outcome recorded for a single proof.
type ProofStatus string

// Proof statuses.
const (
	ProofVerified ProofStatus = "verified"
	ProofMissing  ProofStatus = "missing"
	ProofFailed   ProofStatus = "failed"
)

// VerificationProof is one verified fact synced from the upstream identity system.
type VerificationProof struct {
	LastSynced time.Time
	Kind       ProofKind
	Headline   string
	Detail     string
	Source     string
	Reference  string
	Status     ProofStatus
}

// VerificationSnapshot is the result of one provider fetch. Snapshots are
// immutable; a refresh produces a new one.
type VerificationSnapshot struct {
	FetchedAt time.Time
	SubjectID string
	Proofs    []VerificationProof
}

// Proof returns the proof of the given kind, if present.
func (s *VerificationSnapshot) Proof(kind ProofKind) (VerificationProof, bool) {
	for _, p := range s.Proofs {
		if p.Kind == kind {
			return p, true
		}
	}
	return VerificationProof{}, false
}

// Age returns how old the snapshot is relative to now.
func (s *VerificationSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// VerificationPhase is the mode of the verification cache.
type VerificationPhase string

// Verification phases.
const (
	VerificationIdle    VerificationPhase = "idle"
	VerificationLoading VerificationPhase = "loading"
	VerificationLoaded  VerificationPhase = "loaded"
	VerificationFailed  VerificationPhase = "failed"
)

// VerificationState is the session-scoped verification mode. Message is set
// only for the failed phase.
type VerificationState struct {
	Phase   VerificationPhase
	Message string
}

// VerificationStateIdle returns the idle state.
func VerificationStateIdle() VerificationState {
	return VerificationState{Phase: VerificationIdle}
}

// VerificationStateLoading returns the loading state.
func VerificationStateLoading() VerificationState {
	return VerificationState{Phase: VerificationLoading}
}

// VerificationStateLoaded returns the loaded state.
func VerificationStateLoaded() VerificationState {
	return VerificationState{Phase: VerificationLoaded}
}

// VerificationStateFailed returns a failed state carrying a human-readable message.
func VerificationStateFailed(message string) VerificationState {
	return VerificationState{Phase: VerificationFailed, Message: message}
}

// CanRetry reports whether the presentation layer should offer a retry.
func (s VerificationState) CanRetry() bool {
	return s.Phase == VerificationFailed
}
