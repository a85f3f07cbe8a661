package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMintStore persists minting records and the dispatch queue in Postgres.
type GormMintStore struct {
	db *gorm.DB
}

// NewGormMintStore creates a new gorm-backed mint store.
func NewGormMintStore(db *gorm.DB) ports.MintStore {
	return &GormMintStore{db: db}
}

func (s *GormMintStore) CreateRecord(ctx context.Context, record *core.MintingRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create minting record: %w", err)
	}
	return nil
}

func (s *GormMintStore) GetRecord(ctx context.Context, id string) (*core.MintingRecord, error) {
	var record core.MintingRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load minting record: %w", err)
	}
	return &record, nil
}

func (s *GormMintStore) GetRecords(ctx context.Context, ids []string) ([]core.MintingRecord, error) {
	var records []core.MintingRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load minting records: %w", err)
	}
	return records, nil
}

func (s *GormMintStore) Enqueue(ctx context.Context, item *core.MintingQueueItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}
	return nil
}

func (s *GormMintStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&core.MintingQueueItem{}).
		Where("status = ?", core.MintStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}
	return count, nil
}

// ClaimBatch selects and claims pending items inside one transaction. Row
// locks with SKIP LOCKED keep a second dispatcher from grabbing the same rows
// mid-claim.
func (s *GormMintStore) ClaimBatch(ctx context.Context, batchID string, limit int) ([]core.MintingQueueItem, error) {
	var items []core.MintingQueueItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", core.MintStatusPending).
			Order("priority DESC, created_at ASC").
			Limit(limit).
			Find(&items).Error
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		itemIDs := make([]string, 0, len(items))
		recordIDs := make([]string, 0, len(items))
		for i := range items {
			itemIDs = append(itemIDs, items[i].ID)
			recordIDs = append(recordIDs, items[i].MintingRecordID)
		}

		err = tx.Model(&core.MintingQueueItem{}).
			Where("id IN ?", itemIDs).
			Updates(map[string]interface{}{
				"status":   core.MintStatusProcessing,
				"batch_id": batchID,
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&core.MintingRecord{}).
			Where("id IN ?", recordIDs).
			Update("status", core.MintStatusProcessing).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim batch: %w", err)
	}

	for i := range items {
		items[i].Status = core.MintStatusProcessing
		items[i].BatchID = &batchID
	}
	return items, nil
}

// CompleteBatch marks every item and record in the batch complete with the
// shared transaction hash, atomically across both tables.
func (s *GormMintStore) CompleteBatch(ctx context.Context, batchID, txHash string) error {
	return s.finishBatch(ctx, batchID, core.MintStatusComplete, &txHash, nil)
}

// FailBatch marks every item and record in the batch failed with the captured
// error message, atomically across both tables.
func (s *GormMintStore) FailBatch(ctx context.Context, batchID, errMsg string) error {
	return s.finishBatch(ctx, batchID, core.MintStatusFailed, nil, &errMsg)
}

func (s *GormMintStore) finishBatch(ctx context.Context, batchID, status string, txHash, errMsg *string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []core.MintingQueueItem
		if err := tx.Where("batch_id = ?", batchID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		recordIDs := make([]string, 0, len(items))
		for i := range items {
			recordIDs = append(recordIDs, items[i].MintingRecordID)
		}

		now := time.Now()
		err := tx.Model(&core.MintingQueueItem{}).
			Where("batch_id = ?", batchID).
			Updates(map[string]interface{}{
				"status":       status,
				"processed_at": now,
			}).Error
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"status": status}
		if txHash != nil {
			updates["transaction_hash"] = *txHash
		}
		if errMsg != nil {
			updates["error"] = *errMsg
		}

		return tx.Model(&core.MintingRecord{}).
			Where("id IN ?", recordIDs).
			Updates(updates).Error
	})
	if err != nil {
		return fmt.Errorf("failed to finish batch: %w", err)
	}
	return nil
}

// ResetFailed makes failed items eligible for the next dispatcher run.
func (s *GormMintStore) ResetFailed(ctx context.Context, itemIDs []string) (int64, error) {
	var reset int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []core.MintingQueueItem
		err := tx.
			Where("id IN ? AND status = ?", itemIDs, core.MintStatusFailed).
			Find(&items).Error
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		ids := make([]string, 0, len(items))
		recordIDs := make([]string, 0, len(items))
		for i := range items {
			ids = append(ids, items[i].ID)
			recordIDs = append(recordIDs, items[i].MintingRecordID)
		}

		err = tx.Model(&core.MintingQueueItem{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":       core.MintStatusPending,
				"batch_id":     nil,
				"processed_at": nil,
			}).Error
		if err != nil {
			return err
		}

		err = tx.Model(&core.MintingRecord{}).
			Where("id IN ?", recordIDs).
			Updates(map[string]interface{}{
				"status": core.MintStatusPending,
				"error":  nil,
			}).Error
		if err != nil {
			return err
		}

		reset = int64(len(items))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset items: %w", err)
	}
	return reset, nil
}
