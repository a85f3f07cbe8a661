package ports

import "github.com/mintaka-labs/warden/core"

// Tokenizer converts between sessions and bearer tokens.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToIdentity(token string) (*core.TokenIdentity, error)

	SessionToRefreshToken(session *core.Session) (string, error)
	// RefreshTokenSessionID validates a refresh token and returns the session
	// id it was issued for.
	RefreshTokenSessionID(token string) (string, error)
}
