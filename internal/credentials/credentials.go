// Package credentials keeps the bearer credential of the signed-in user.
package credentials

import (
	"errors"
	"sync"
	"time"
)

// ErrEmptyToken is returned by Set for a credential without token.
var ErrEmptyToken = errors.New("credential token cannot be empty")

// Credential is what the persistence service needs to authenticate a caller.
type Credential struct {
	Token    string    `yaml:"token" json:"token"`
	UserID   string    `yaml:"user_id" json:"user_id"`
	Email    string    `yaml:"email" json:"email"`
	IssuedAt time.Time `yaml:"issued_at" json:"issued_at"`
}

// Store holds at most one credential.
type Store interface {
	Current() (Credential, bool)
	Set(c Credential) error
	Clear() error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Current() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

func (m *MemoryStore) Set(c Credential) error {
	if c.Token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	m.cred = &c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.cred = nil
	m.mu.Unlock()
	return nil
}
