package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/ports"
)

// MemoryMintStore is an in-memory MintStore, primarily intended for testing.
// It applies the same claim ordering as the Postgres store: priority
// descending, creation time ascending.
type MemoryMintStore struct {
	records map[string]core.MintingRecord
	items   map[string]core.MintingQueueItem
	mu      sync.Mutex
}

// NewMemoryMintStore creates a new in-memory mint store.
func NewMemoryMintStore() ports.MintStore {
	return &MemoryMintStore{
		records: make(map[string]core.MintingRecord),
		items:   make(map[string]core.MintingQueueItem),
	}
}

func (s *MemoryMintStore) CreateRecord(ctx context.Context, record *core.MintingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

func (s *MemoryMintStore) GetRecord(ctx context.Context, id string) (*core.MintingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (s *MemoryMintStore) GetRecords(ctx context.Context, ids []string) ([]core.MintingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]core.MintingRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *MemoryMintStore) Enqueue(ctx context.Context, item *core.MintingQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryMintStore) CountPending(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, item := range s.items {
		if item.Status == core.MintStatusPending {
			count++
		}
	}
	return count, nil
}

func (s *MemoryMintStore) ClaimBatch(ctx context.Context, batchID string, limit int) ([]core.MintingQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]core.MintingQueueItem, 0)
	for _, item := range s.items {
		if item.Status == core.MintStatusPending {
			pending = append(pending, item)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}

	for i := range pending {
		pending[i].Status = core.MintStatusProcessing
		pending[i].BatchID = &batchID
		s.items[pending[i].ID] = pending[i]

		if record, ok := s.records[pending[i].MintingRecordID]; ok {
			record.Status = core.MintStatusProcessing
			s.records[record.ID] = record
		}
	}

	return pending, nil
}

func (s *MemoryMintStore) CompleteBatch(ctx context.Context, batchID, txHash string) error {
	return s.finishBatch(batchID, core.MintStatusComplete, &txHash, nil)
}

func (s *MemoryMintStore) FailBatch(ctx context.Context, batchID, errMsg string) error {
	return s.finishBatch(batchID, core.MintStatusFailed, nil, &errMsg)
}

func (s *MemoryMintStore) finishBatch(batchID, status string, txHash, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, item := range s.items {
		if item.BatchID == nil || *item.BatchID != batchID {
			continue
		}
		item.Status = status
		item.ProcessedAt = &now
		s.items[id] = item

		record, ok := s.records[item.MintingRecordID]
		if !ok {
			continue
		}
		record.Status = status
		record.TransactionHash = txHash
		record.Error = errMsg
		s.records[record.ID] = record
	}
	return nil
}

func (s *MemoryMintStore) ResetFailed(ctx context.Context, itemIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset int64
	for _, id := range itemIDs {
		item, ok := s.items[id]
		if !ok || item.Status != core.MintStatusFailed {
			continue
		}
		item.Status = core.MintStatusPending
		item.BatchID = nil
		item.ProcessedAt = nil
		s.items[id] = item

		if record, ok := s.records[item.MintingRecordID]; ok {
			record.Status = core.MintStatusPending
			record.Error = nil
			s.records[record.ID] = record
		}
		reset++
	}
	return reset, nil
}
