package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Minting statuses, shared by queue items and records.
const (
	MintStatusPending    = "pending"
	MintStatusProcessing = "processing"
	MintStatusComplete   = "complete"
	MintStatusFailed     = "failed"
)

// MintingRecord is a logical request to issue token balance to a recipient.
type MintingRecord struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           string          `json:"userId" gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(38,18);not null"`
	RecipientAddress string          `json:"recipientAddress" gorm:"size:64;not null"`
	TransactionHash  *string         `json:"transactionHash,omitempty" gorm:"size:80"`
	Status           string          `json:"status" gorm:"size:16;index"`
	NetworkID        string          `json:"networkId" gorm:"size:32"`
	Error            *string         `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// MintingQueueItem is one pending unit of work for the batch dispatcher.
// Higher priority is served first; equal priorities drain oldest-first.
type MintingQueueItem struct {
	ID              string     `json:"id" gorm:"type:uuid;primaryKey"`
	MintingRecordID string     `json:"mintingRecordId" gorm:"type:uuid;not null;index"`
	BatchID         *string    `json:"batchId,omitempty" gorm:"type:uuid;index"`
	Status          string     `json:"status" gorm:"size:16;index"`
	Priority        int        `json:"priority" gorm:"default:0"`
	CreatedAt       time.Time  `json:"createdAt"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
}
