package auth

import "time"

type Account struct {
	ID             string
	Identifier     string
	PasswordHash   string
	Email          string
	Enabled        bool
	Locked         bool
	FailedAttempts int
	LockedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LockState is the part of an account the lock policy reads and rewrites.
func (a Account) LockState() LockState {
	return LockState{
		Locked:         a.Locked,
		FailedAttempts: a.FailedAttempts,
		LockedAt:       a.LockedAt,
	}
}

func (a Account) withLockState(state LockState) Account {
	a.Locked = state.Locked
	a.FailedAttempts = state.FailedAttempts
	a.LockedAt = state.LockedAt
	return a
}

func (a Account) View() AccountView {
	return AccountView{
		UserID:    a.Identifier,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountView is the public projection of an account. It never carries the
// password hash or lock internals.
type AccountView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SignupInput struct {
	Identifier string
	Password   string
	Email      string
}

type IssuedToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"`
	ExpiresAt time.Time `json:"-"`
}

// Identity is the subject a validated token speaks for.
type Identity struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
