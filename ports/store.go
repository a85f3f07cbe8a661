package ports

import (
	"context"
	"time"

	"github.com/mintaka-labs/warden/core"
)

// ChallengeStore holds issued nonces for one-time, time-bounded consumption.
// Take must be atomic: a nonce can be consumed at most once even under
// concurrent callers.
type ChallengeStore interface {
	Put(ctx context.Context, nonce string, issuedAt time.Time, ttl time.Duration) error
	Take(ctx context.Context, nonce string) (issuedAt time.Time, ok bool, err error)
}

// SessionStore persists authenticated sessions.
type SessionStore interface {
	Create(ctx context.Context, session *core.Session) error
	GetByID(ctx context.Context, id string) (*core.Session, error)
	// FindActiveByDevice returns the active session for a (user, hardware id)
	// pair, or nil when none exists.
	FindActiveByDevice(ctx context.Context, userID, hardwareID string) (*core.Session, error)
	Update(ctx context.Context, session *core.Session) error
}

// UserStore looks up or creates accounts keyed by lowercased wallet address.
type UserStore interface {
	GetOrCreateByWallet(ctx context.Context, walletAddress string) (*core.User, error)
	GetByID(ctx context.Context, id string) (*core.User, error)
}

// MintStore persists minting records and the dispatch queue. CompleteBatch
// and FailBatch must update both tables atomically so a crash never leaves
// record and queue-item status split.
type MintStore interface {
	CreateRecord(ctx context.Context, record *core.MintingRecord) error
	GetRecord(ctx context.Context, id string) (*core.MintingRecord, error)
	GetRecords(ctx context.Context, ids []string) ([]core.MintingRecord, error)

	Enqueue(ctx context.Context, item *core.MintingQueueItem) error
	CountPending(ctx context.Context) (int64, error)
	// ClaimBatch selects up to limit pending items ordered by priority
	// descending then creation time ascending, flips them to processing and
	// stamps batchID, all within one transaction.
	ClaimBatch(ctx context.Context, batchID string, limit int) ([]core.MintingQueueItem, error)
	CompleteBatch(ctx context.Context, batchID, txHash string) error
	FailBatch(ctx context.Context, batchID, errMsg string) error
	// ResetFailed flips failed items back to pending and clears their batch
	// id, returning how many were reset.
	ResetFailed(ctx context.Context, itemIDs []string) (int64, error)
}
