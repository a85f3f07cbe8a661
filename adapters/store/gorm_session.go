package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
	"gorm.io/gorm"
)

// GormSessionStore persists sessions in Postgres.
type GormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore creates a new gorm-backed session store.
func NewGormSessionStore(db *gorm.DB) ports.SessionStore {
	return &GormSessionStore{db: db}
}

func (s *GormSessionStore) Create(ctx context.Context, session *core.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *GormSessionStore) GetByID(ctx context.Context, id string) (*core.Session, error) {
	var session core.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// FindActiveByDevice matches on the serialized fingerprint's hardware id.
// The fingerprint column is JSON, so the lookup filters by user first and
// compares hardware ids in memory; a user holds at most a handful of active
// sessions.
func (s *GormSessionStore) FindActiveByDevice(ctx context.Context, userID, hardwareID string) (*core.Session, error) {
	var sessions []core.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	for i := range sessions {
		if sessions[i].DeviceFingerprint.HardwareID == hardwareID {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

func (s *GormSessionStore) Update(ctx context.Context, session *core.Session) error {
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}
