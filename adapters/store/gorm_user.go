package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserStore persists accounts in Postgres.
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore creates a new gorm-backed user store.
func NewGormUserStore(db *gorm.DB) ports.UserStore {
	return &GormUserStore{db: db}
}

// GetOrCreateByWallet returns the account for a wallet address, creating it on
// first sight. The address is lowercased before lookup so comparisons stay
// case-insensitive.
func (s *GormUserStore) GetOrCreateByWallet(ctx context.Context, walletAddress string) (*core.User, error) {
	wallet := strings.ToLower(walletAddress)

	user := core.User{
		ID:            uuid.New().String(),
		WalletAddress: wallet,
		Role:          "user",
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			DoNothing: true,
		}).
		Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var existing core.User
	if err := s.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &existing, nil
}

func (s *GormUserStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	var user core.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
