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

// DispatcherConfig carries the tunables of the batch dispatcher.
type DispatcherConfig struct {
	Interval      time.Duration
	MaxBatchSize  int
	SubmitTimeout time.Duration
}

// Dispatcher drains the minting queue on a fixed interval and submits one
// aggregated transaction per batch through the hot wallet. A run is
// all-or-nothing: the whole batch lands complete or failed, never split.
type Dispatcher struct {
	store ports.MintStore
	chain ports.ChainClient
	log   zerolog.Logger

	interval      time.Duration
	maxBatchSize  int
	submitTimeout time.Duration
}

// NewDispatcher creates a new batch dispatcher.
func NewDispatcher(store ports.MintStore, chain ports.ChainClient, log zerolog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 10
	}
	if cfg.SubmitTimeout == 0 {
		cfg.SubmitTimeout = 2 * time.Minute
	}

	return &Dispatcher{
		store:         store,
		chain:         chain,
		log:           log.With().Str("component", "dispatcher").Logger(),
		interval:      cfg.Interval,
		maxBatchSize:  cfg.MaxBatchSize,
		submitTimeout: cfg.SubmitTimeout,
	}
}

// Run processes one batch immediately, then ticks until the context is
// cancelled. A failed run updates queue state and logs; the next tick
// proceeds regardless.
func (d *Dispatcher) Run(ctx context.Context) {
	d.runOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *Dispatcher) runOnce(ctx context.Context) {
	if err := d.Dispatch(ctx); err != nil {
		d.log.Error().Err(err).Msg("dispatch run failed")
	}
}

// Dispatch claims and submits a single batch. Exposed for tests and for
// operational one-shot runs.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	pending, err := d.store.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending items: %w", err)
	}
	if pending == 0 {
		return nil
	}

	batchID := uuid.New().String()
	items, err := d.store.ClaimBatch(ctx, batchID, d.maxBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim batch: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	recordIDs := make([]string, 0, len(items))
	for i := range items {
		recordIDs = append(recordIDs, items[i].MintingRecordID)
	}

	records, err := d.store.GetRecords(ctx, recordIDs)
	if err != nil {
		d.failBatch(ctx, batchID, err)
		return fmt.Errorf("failed to load records for batch %s: %w", batchID, err)
	}

	recipients := make([]string, 0, len(records))
	amounts := make([]decimal.Decimal, 0, len(records))
	for i := range records {
		recipients = append(recipients, records[i].RecipientAddress)
		amounts = append(amounts, records[i].Amount)
	}

	d.log.Info().
		Str("batch_id", batchID).
		Int("items", len(items)).
		Int64("pending", pending).
		Msg("dispatching batch")

	submitCtx, cancel := context.WithTimeout(ctx, d.submitTimeout)
	txHash, err := d.chain.BatchMint(submitCtx, recipients, amounts)
	cancel()
	if err != nil {
		d.failBatch(ctx, batchID, err)
		return fmt.Errorf("batch %s: %w: %w", batchID, core.ErrDispatchFailure, err)
	}

	if err := d.store.CompleteBatch(ctx, batchID, txHash); err != nil {
		return fmt.Errorf("failed to complete batch %s: %w", batchID, err)
	}

	d.log.Info().
		Str("batch_id", batchID).
		Str("tx", txHash).
		Int("items", len(items)).
		Msg("batch complete")

	return nil
}

// failBatch rolls every claimed item to failed so nothing stays stuck in
// processing.
func (d *Dispatcher) failBatch(ctx context.Context, batchID string, cause error) {
	if err := d.store.FailBatch(ctx, batchID, cause.Error()); err != nil {
		d.log.Error().Err(err).Str("batch_id", batchID).Msg("failed to mark batch failed")
	}
}
