package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store  AccountStore
	hasher Hasher
	clock  Clock
	tokens *TokenService
	policy LockPolicy
	locks  *keyedMutex
}

func NewService(store AccountStore, hasher Hasher, clock Clock, tokens *TokenService) *Service {
	if clock == nil {
		clock = SystemClock{}
	}

	return &Service{
		store:  store,
		hasher: hasher,
		clock:  clock,
		tokens: tokens,
		policy: DefaultLockPolicy(),
		locks:  newKeyedMutex(),
	}
}

func (s *Service) WithLockPolicy(maxAttempts int, cooldown time.Duration) *Service {
	if maxAttempts > 0 {
		s.policy.MaxAttempts = maxAttempts
	}
	if cooldown > 0 {
		s.policy.Cooldown = cooldown
	}
	return s
}

func (s *Service) Signup(ctx context.Context, input SignupInput) (AccountView, error) {
	identifier := strings.TrimSpace(input.Identifier)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	exists, err := s.store.ExistsByIdentifier(ctx, identifier)
	if err != nil {
		return AccountView{}, internalError("check user id", err)
	}
	if exists {
		return AccountView{}, ErrDuplicateIdentifier
	}

	exists, err = s.store.ExistsByContact(ctx, email)
	if err != nil {
		return AccountView{}, internalError("check email", err)
	}
	if exists {
		return AccountView{}, ErrDuplicateContact
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return AccountView{}, internalError("hash password", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return AccountView{}, internalError("generate account id", err)
	}

	now := s.clock.Now().UTC()
	account := Account{
		ID:           id.String(),
		Identifier:   identifier,
		PasswordHash: hash,
		Email:        email,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Save(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateIdentifier) || errors.Is(err, ErrDuplicateContact) {
			return AccountView{}, err
		}
		return AccountView{}, internalError("save account", err)
	}

	return account.View(), nil
}

// Login checks the account's lock state before the password so a locked
// account never reaches the hasher and never advances its counter.
func (s *Service) Login(ctx context.Context, identifier, password string) (IssuedToken, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return IssuedToken{}, ErrInvalidCredentials
	}

	unlock := s.locks.Lock(identifier)
	defer unlock()

	account, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return IssuedToken{}, ErrInvalidCredentials
		}
		return IssuedToken{}, internalError("load account", err)
	}

	if !account.Enabled {
		return IssuedToken{}, ErrAccountDisabled
	}

	now := s.clock.Now().UTC()
	state, outcome := s.policy.Apply(account.LockState(), EventAttempt, now)
	if outcome == OutcomeLocked {
		return IssuedToken{}, LockError{Kind: ErrAccountLocked, Until: state.LockedUntil(s.policy.Cooldown)}
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return IssuedToken{}, internalError("verify password", err)
	}

	if !ok {
		state, outcome = s.policy.Apply(state, EventFailure, now)
		if err := s.persist(ctx, account, state, now); err != nil {
			return IssuedToken{}, err
		}
		if outcome == OutcomeLockedJustNow {
			return IssuedToken{}, LockError{Kind: ErrLockedJustNow, Until: state.LockedUntil(s.policy.Cooldown)}
		}
		return IssuedToken{}, ErrInvalidCredentials
	}

	state, _ = s.policy.Apply(state, EventSuccess, now)
	if err := s.persist(ctx, account, state, now); err != nil {
		return IssuedToken{}, err
	}

	issued, err := s.tokens.Issue(account.Identifier)
	if err != nil {
		return IssuedToken{}, internalError("issue token", err)
	}

	return issued, nil
}

func (s *Service) persist(ctx context.Context, account Account, state LockState, now time.Time) error {
	account = account.withLockState(state)
	account.UpdatedAt = now
	if err := s.store.Save(ctx, account); err != nil {
		return internalError("save account", err)
	}
	return nil
}

// ValidateRequestToken resolves the identity behind an Authorization header
// value. Tokens are not checked against account state: a token issued before
// a lock or disable stays valid until it expires.
func (s *Service) ValidateRequestToken(header string) (Identity, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Identity{}, err
	}
	return s.tokens.Validate(token)
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountView, error) {
	accounts, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, internalError("list accounts", err)
	}

	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, account.View())
	}
	return views, nil
}

// ReleaseExpiredLocks unlocks up to limit accounts whose cooldown has elapsed.
// Login performs the same transition on demand; this only tidies stored state.
func (s *Service) ReleaseExpiredLocks(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now().UTC()
	candidates, err := s.store.FindLocked(ctx, now.Add(-s.policy.Cooldown), limit)
	if err != nil {
		return 0, internalError("find locked accounts", err)
	}

	released := 0
	for _, candidate := range candidates {
		n, err := s.releaseLock(ctx, candidate.Identifier, now)
		if err != nil {
			return released, err
		}
		released += n
	}

	return released, nil
}

func (s *Service) releaseLock(ctx context.Context, identifier string, now time.Time) (int, error) {
	unlock := s.locks.Lock(identifier)
	defer unlock()

	// Reload under the lock; a concurrent login may already have unlocked it.
	account, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, internalError("load account", err)
	}
	if !account.Locked {
		return 0, nil
	}

	state, outcome := s.policy.Apply(account.LockState(), EventAttempt, now)
	if outcome == OutcomeLocked {
		return 0, nil
	}
	if err := s.persist(ctx, account, state, now); err != nil {
		return 0, fmt.Errorf("release lock for %s: %w", identifier, err)
	}
	return 1, nil
}

// BootstrapFromEnv seeds an initial account when all three values are set.
// An existing account with the same user id is left untouched.
func (s *Service) BootstrapFromEnv(ctx context.Context, identifier, password, email string) error {
	identifier = strings.TrimSpace(identifier)
	email = strings.TrimSpace(email)

	if identifier == "" && password == "" && email == "" {
		return nil
	}
	if identifier == "" || password == "" || email == "" {
		return fmt.Errorf("ADMIN_USERNAME, ADMIN_PASSWORD and ADMIN_EMAIL are required together")
	}

	_, err := s.Signup(ctx, SignupInput{Identifier: identifier, Password: password, Email: email})
	if errors.Is(err, ErrDuplicateIdentifier) {
		return nil
	}
	return err
}
