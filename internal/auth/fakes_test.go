package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingHasher struct {
	inner  Hasher
	mu     sync.Mutex
	hashes int
	checks int
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: NewBcryptHasher(bcrypt.MinCost)}
}

func (h *countingHasher) Hash(secret string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.inner.Hash(secret)
}

func (h *countingHasher) Verify(secret, digest string) (bool, error) {
	h.mu.Lock()
	h.checks++
	h.mu.Unlock()
	return h.inner.Verify(secret, digest)
}

func (h *countingHasher) Checks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checks
}

type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	saves    int
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (m *memoryStore) FindByIdentifier(ctx context.Context, identifier string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Account{}, m.failWith
	}
	for _, account := range m.accounts {
		if account.Identifier == identifier {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memoryStore) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	_, err := m.FindByIdentifier(ctx, identifier)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryStore) ExistsByContact(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	for _, account := range m.accounts {
		if account.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Save(ctx context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.saves++
	m.accounts[account.ID] = account
	return nil
}

func (m *memoryStore) FindAll(ctx context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (m *memoryStore) FindLocked(ctx context.Context, lockedBefore time.Time, limit int) ([]Account, error) {
	all, err := m.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0)
	for _, account := range all {
		if account.Locked && account.LockedAt != nil && !account.LockedAt.After(lockedBefore) {
			out = append(out, account)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memoryStore) mustGet(identifier string) Account {
	account, err := m.FindByIdentifier(context.Background(), identifier)
	if err != nil {
		panic(err)
	}
	return account
}

func (m *memoryStore) update(identifier string, mutate func(*Account)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, account := range m.accounts {
		if account.Identifier == identifier {
			mutate(&account)
			m.accounts[id] = account
			return
		}
	}
}
