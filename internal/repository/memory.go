package repository

import (
	"context"
	"crypto/subtle"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

type memAccount struct {
	models.Account
	pinIssuedAt time.Time
	verified    bool
	verifiedAt  time.Time
}

type memEntry struct {
	models.Entry
	seq int
}

// MemoryStore is an in-process account and entry store for local runs without
// PostgreSQL. It provides the same atomicity guarantees as the PostgreSQL
// repositories: unique emails and compare-and-swap PIN consumption.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*memAccount // keyed by email
	entries  map[string]*memEntry   // keyed by entry ID
	seq      int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*memAccount),
		entries:  make(map[string]*memEntry),
	}
}

// CreateAccount implements service.AccountRepository.
func (m *MemoryStore) CreateAccount(_ context.Context, email, passwordHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[email]; ok {
		return "", models.ErrDuplicate
	}
	id := uuid.NewString()
	m.accounts[email] = &memAccount{Account: models.Account{ID: id, Email: email, PasswordHash: passwordHash}}
	return id, nil
}

// GetAccountByEmail implements service.AccountRepository.
func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := acc.Account
	return &cp, nil
}

// GetAccountByID implements service.AccountRepository.
func (m *MemoryStore) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.ID == id {
			cp := acc.Account
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// SetResetPin implements service.RecoveryRepository.
func (m *MemoryStore) SetResetPin(_ context.Context, email, pin string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	acc.ResetPin = pin
	acc.pinIssuedAt = time.Now()
	acc.verified = false
	acc.verifiedAt = time.Time{}
	cp := acc.Account
	return &cp, nil
}

// ConsumeResetPin implements service.RecoveryRepository.
func (m *MemoryStore) ConsumeResetPin(_ context.Context, email, pin string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[email]
	if !ok || acc.ResetPin == "" || subtle.ConstantTimeCompare([]byte(acc.ResetPin), []byte(pin)) != 1 {
		return false, nil
	}
	acc.ResetPin = ""
	acc.pinIssuedAt = time.Time{}
	acc.verified = true
	acc.verifiedAt = time.Now()
	return true, nil
}

// ResetPasswordWithGrant implements service.RecoveryRepository.
func (m *MemoryStore) ResetPasswordWithGrant(_ context.Context, email, passwordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[email]
	if !ok || !acc.verified {
		return false, nil
	}
	acc.PasswordHash = passwordHash
	acc.verified = false
	acc.verifiedAt = time.Time{}
	return true, nil
}

// SweepStaleResets clears PINs issued and grants recorded before cutoff.
func (m *MemoryStore) SweepStaleResets(_ context.Context, cutoff time.Time) (pins, grants int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, acc := range m.accounts {
		if acc.ResetPin != "" && acc.pinIssuedAt.Before(cutoff) {
			acc.ResetPin = ""
			acc.pinIssuedAt = time.Time{}
			pins++
		}
		if acc.verified && acc.verifiedAt.Before(cutoff) {
			acc.verified = false
			acc.verifiedAt = time.Time{}
			grants++
		}
	}
	return pins, grants, nil
}

// UpdatePasswordHash implements service.RecoveryRepository.
func (m *MemoryStore) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[email]
	if !ok {
		return models.ErrNotFound
	}
	acc.PasswordHash = passwordHash
	return nil
}

// CreateEntry implements service.EntryRepository.
func (m *MemoryStore) CreateEntry(_ context.Context, userID string, e models.Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	e.ID = uuid.NewString()
	e.UserID = userID
	m.entries[e.ID] = &memEntry{Entry: e, seq: m.seq}
	return e.ID, nil
}

// ListEntries implements service.EntryRepository.
func (m *MemoryStore) ListEntries(_ context.Context, userID string) ([]models.Entry, error) {
	return m.filter(func(e models.Entry) bool { return e.UserID == userID }), nil
}

// SearchEntries implements service.EntryRepository.
func (m *MemoryStore) SearchEntries(_ context.Context, userID, q string) ([]models.Entry, error) {
	return m.filter(func(e models.Entry) bool {
		return e.UserID == userID && (strings.EqualFold(e.Date, q) || strings.EqualFold(e.Title, q))
	}), nil
}

func (m *MemoryStore) filter(keep func(models.Entry) bool) []models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*memEntry, 0)
	for _, e := range m.entries {
		if keep(e.Entry) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]models.Entry, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.Entry)
	}
	return out
}

// GetEntry implements service.EntryRepository.
func (m *MemoryStore) GetEntry(_ context.Context, userID, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return nil, models.ErrNotFound
	}
	cp := e.Entry
	return &cp, nil
}

// UpdateEntry implements service.EntryRepository.
func (m *MemoryStore) UpdateEntry(_ context.Context, userID string, e models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.entries[e.ID]
	if !ok || cur.UserID != userID {
		return models.ErrNotFound
	}
	cur.Title, cur.Date, cur.Memory = e.Title, e.Date, e.Memory
	return nil
}

// DeleteEntry implements service.EntryRepository.
func (m *MemoryStore) DeleteEntry(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return models.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}
