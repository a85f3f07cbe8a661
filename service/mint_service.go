package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MintService manages minting records and the dispatch queue.
type MintService struct {
	store ports.MintStore
	log   zerolog.Logger
}

// NewMintService creates a new mint service.
func NewMintService(store ports.MintStore, log zerolog.Logger) *MintService {
	return &MintService{
		store: store,
		log:   log.With().Str("component", "mint_service").Logger(),
	}
}

// RequestMint creates a minting record and queues it for dispatch.
func (s *MintService) RequestMint(ctx context.Context, userID, recipientAddress string, amount decimal.Decimal, networkID string, priority int) (*core.MintingRecord, *core.MintingQueueItem, error) {
	record := &core.MintingRecord{
		ID:               uuid.New().String(),
		UserID:           userID,
		Amount:           amount,
		RecipientAddress: recipientAddress,
		Status:           core.MintStatusPending,
		NetworkID:        networkID,
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, nil, err
	}

	item, err := s.Enqueue(ctx, record.ID, priority)
	if err != nil {
		return nil, nil, err
	}
	return record, item, nil
}

// Enqueue inserts a pending queue item for an existing minting record.
func (s *MintService) Enqueue(ctx context.Context, mintingRecordID string, priority int) (*core.MintingQueueItem, error) {
	record, err := s.store.GetRecord(ctx, mintingRecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("record %q: %w", mintingRecordID, core.ErrRecordNotFound)
	}

	item := &core.MintingQueueItem{
		ID:              uuid.New().String(),
		MintingRecordID: record.ID,
		Status:          core.MintStatusPending,
		Priority:        priority,
		CreatedAt:       time.Now(),
	}
	if err := s.store.Enqueue(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("item_id", item.ID).
		Str("record_id", record.ID).
		Int("priority", priority).
		Msg("mint request enqueued")

	return item, nil
}

// RetryFailedItems resets failed queue items to pending and clears their
// batch id, making them eligible for the next dispatcher run. Failed batches
// are never retried automatically.
func (s *MintService) RetryFailedItems(ctx context.Context, itemIDs []string) (int64, error) {
	reset, err := s.store.ResetFailed(ctx, itemIDs)
	if err != nil {
		return 0, err
	}

	s.log.Info().Int64("reset", reset).Msg("failed items reset for retry")
	return reset, nil
}
