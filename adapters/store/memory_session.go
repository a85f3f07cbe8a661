package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
)

// MemorySessionStore is an in-memory SessionStore, primarily intended for
// testing.
type MemorySessionStore struct {
	sessions map[string]core.Session
	mu       sync.RWMutex
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() ports.SessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]core.Session),
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) GetByID(ctx context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := session
	return &copied, nil
}

func (s *MemorySessionStore) FindActiveByDevice(ctx context.Context, userID, hardwareID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.UserID == userID && session.IsActive && session.DeviceFingerprint.HardwareID == hardwareID {
			copied := session
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemorySessionStore) Update(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// MemoryUserStore is an in-memory UserStore, primarily intended for testing.
type MemoryUserStore struct {
	byWallet map[string]core.User
	byID     map[string]core.User
	mu       sync.Mutex
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() ports.UserStore {
	return &MemoryUserStore{
		byWallet: make(map[string]core.User),
		byID:     make(map[string]core.User),
	}
}

func (s *MemoryUserStore) GetOrCreateByWallet(ctx context.Context, walletAddress string) (*core.User, error) {
	wallet := strings.ToLower(walletAddress)

	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.byWallet[wallet]; ok {
		copied := user
		return &copied, nil
	}

	user := core.User{
		ID:            uuid.New().String(),
		WalletAddress: wallet,
		Role:          "user",
	}
	s.byWallet[wallet] = user
	s.byID[user.ID] = user

	copied := user
	return &copied, nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}
