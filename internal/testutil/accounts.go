package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-connect-server/internal/model"
)

// MemoryAccountStore is a concurrency safe in-memory model.AccountStore.
// It rejects duplicate emails the way the unique index does.
type MemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
}

var _ model.AccountStore = (*MemoryAccountStore)(nil)

// NewMemoryAccountStore creates an empty MemoryAccountStore.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: map[string]model.Account{}}
}

func (s *MemoryAccountStore) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return a, nil
}

func (s *MemoryAccountStore) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID(id)
}

func (s *MemoryAccountStore) Create(_ context.Context, a model.Account) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; ok {
		return model.Account{}, model.ErrEmailTaken
	}
	s.accounts[a.Email] = a
	return a, nil
}

// List returns accounts newest first.
func (s *MemoryAccountStore) List(context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryAccountStore) SetVerified(_ context.Context, id uuid.UUID) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.byID(id)
	if err != nil {
		return model.Account{}, err
	}
	a.Verified = true
	s.accounts[a.Email] = a
	return a, nil
}

func (s *MemoryAccountStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.byID(id)
	if err != nil {
		return err
	}
	delete(s.accounts, a.Email)
	return nil
}

func (s *MemoryAccountStore) byID(id uuid.UUID) (model.Account, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

// PlainHasher stores passwords as is. Tests only.
type PlainHasher struct{}

var _ model.PasswordHasher = PlainHasher{}

func (PlainHasher) Hash(password string) ([]byte, error) {
	return []byte(password), nil
}

func (PlainHasher) Compare(hash []byte, password string) error {
	if string(hash) != password {
		return model.ErrAuthenticationFailed
	}
	return nil
}
