package auth

import "time"

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 24 * time.Hour
)

type LockState struct {
	Locked         bool
	FailedAttempts int
	LockedAt       *time.Time
}

// LockedUntil returns when a locked state becomes eligible for auto-unlock.
func (s LockState) LockedUntil(cooldown time.Duration) time.Time {
	if !s.Locked || s.LockedAt == nil {
		return time.Time{}
	}
	return s.LockedAt.Add(cooldown)
}

type LockEvent int

const (
	// EventAttempt is applied before the password is checked.
	EventAttempt LockEvent = iota
	EventFailure
	EventSuccess
)

type LockOutcome int

const (
	OutcomeProceed LockOutcome = iota
	OutcomeLocked
	OutcomeInvalidCredentials
	OutcomeLockedJustNow
	OutcomeAuthenticated
)

func (o LockOutcome) String() string {
	switch o {
	case OutcomeProceed:
		return "proceed"
	case OutcomeLocked:
		return "locked"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeLockedJustNow:
		return "locked_just_now"
	case OutcomeAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

type LockPolicy struct {
	MaxAttempts int
	Cooldown    time.Duration
}

func DefaultLockPolicy() LockPolicy {
	return LockPolicy{MaxAttempts: defaultMaxAttempts, Cooldown: defaultLockWindow}
}

// Apply returns the state that follows event at now. It never mutates its
// input.
func (p LockPolicy) Apply(state LockState, event LockEvent, now time.Time) (LockState, LockOutcome) {
	switch event {
	case EventAttempt:
		if !state.Locked {
			return state, OutcomeProceed
		}
		if now.Before(state.LockedUntil(p.Cooldown)) {
			return state, OutcomeLocked
		}
		// Cooldown elapsed (or no lock time was recorded): unlock and let the
		// password check run in this same request.
		return LockState{}, OutcomeProceed

	case EventFailure:
		if state.Locked {
			return state, OutcomeLocked
		}
		failed := state.FailedAttempts + 1
		if failed >= p.MaxAttempts {
			lockedAt := now
			return LockState{Locked: true, LockedAt: &lockedAt}, OutcomeLockedJustNow
		}
		return LockState{FailedAttempts: failed}, OutcomeInvalidCredentials

	case EventSuccess:
		if state.Locked {
			return state, OutcomeLocked
		}
		return LockState{}, OutcomeAuthenticated
	}

	return state, OutcomeLocked
}
