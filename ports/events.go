package ports

import "context"

// EventPublisher notifies other components about session lifecycle and
// security signals. Publishing is best-effort; callers log failures and move
// on.
type EventPublisher interface {
	PublishSessionEnded(ctx context.Context, sessionID, walletAddress, reason string) error
	PublishSecurityFlag(ctx context.Context, sessionID, walletAddress, flag string) error
}
