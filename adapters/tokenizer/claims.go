package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with the session fields consumed by
// the bearer middleware.
type AccessClaims struct {
	jwt.RegisteredClaims
	Wallet    string `json:"wallet"`
	SessionID string `json:"sid"`
	ChainID   string `json:"chain_id"`
}

// RefreshClaims carry only the session id; the authoritative token value
// lives on the session row and is compared exactly on refresh.
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}
