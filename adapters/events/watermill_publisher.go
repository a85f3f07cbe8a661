package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/mintaka-labs/warden/ports"
)

const TopicSessionEnded = "warden.session.ended"
const TopicSecurityFlag = "warden.security.flag"

// SessionEndedEvent is emitted when a session becomes terminal, either by
// logout or by a device mismatch kill.
type SessionEndedEvent struct {
	SessionID     string    `json:"session_id"`
	WalletAddress string    `json:"wallet_address"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// SecurityFlagEvent is emitted when an advisory flag is appended to a
// session, e.g. LOCATION_CHANGE.
type SecurityFlagEvent struct {
	SessionID     string    `json:"session_id"`
	WalletAddress string    `json:"wallet_address"`
	Flag          string    `json:"flag"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishSessionEnded publishes a session-ended event.
func (p *WatermillPublisher) PublishSessionEnded(ctx context.Context, sessionID, walletAddress, reason string) error {
	return p.publish(TopicSessionEnded, SessionEndedEvent{
		SessionID:     sessionID,
		WalletAddress: walletAddress,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})
}

// PublishSecurityFlag publishes a security-flag event.
func (p *WatermillPublisher) PublishSecurityFlag(ctx context.Context, sessionID, walletAddress, flag string) error {
	return p.publish(TopicSecurityFlag, SecurityFlagEvent{
		SessionID:     sessionID,
		WalletAddress: walletAddress,
		Flag:          flag,
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards all events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishSessionEnded(ctx context.Context, sessionID, walletAddress, reason string) error {
	return nil
}

func (NopPublisher) PublishSecurityFlag(ctx context.Context, sessionID, walletAddress, flag string) error {
	return nil
}
