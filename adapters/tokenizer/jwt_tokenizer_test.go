package tokenizer_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/mintaka-labs/warden/adapters/tokenizer"
	"github.com/mintaka-labs/warden/core"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func testSession() *core.Session {
	return &core.Session{
		ID:            "session-1",
		UserID:        "user-1",
		WalletAddress: "0xabc0000000000000000000000000000000000def",
		ChainID:       "84532",
		IsActive:      true,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)
	session := testSession()

	token, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)

	identity, err := tk.AccessTokenToIdentity(token)
	require.NoError(t, err)
	require.Equal(t, session.UserID, identity.UserID)
	require.Equal(t, session.WalletAddress, identity.WalletAddress)
	require.Equal(t, session.ID, identity.SessionID)
	require.Equal(t, session.ChainID, identity.ChainID)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), identity.ExpiresAt, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)
	session := testSession()

	token, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)

	sessionID, err := tk.RefreshTokenSessionID(token)
	require.NoError(t, err)
	require.Equal(t, session.ID, sessionID)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)
	session := testSession()

	first, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)
	second, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)
	require.NotEqual(t, first, second, "each refresh token carries a fresh jti")
}

func TestAudienceConfusionRejected(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)
	session := testSession()

	refresh, err := tk.SessionToRefreshToken(session)
	require.NoError(t, err)
	_, err = tk.AccessTokenToIdentity(refresh)
	require.Error(t, err, "refresh token must not validate as access token")

	access, err := tk.SessionToAccessToken(session)
	require.NoError(t, err)
	_, err = tk.RefreshTokenSessionID(access)
	require.Error(t, err, "access token must not validate as refresh token")
}

func TestExpiredAccessToken(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), -time.Minute, time.Hour)

	token, err := tk.SessionToAccessToken(testSession())
	require.NoError(t, err)

	_, err = tk.AccessTokenToIdentity(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestForeignKeyRejected(t *testing.T) {
	tk := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)
	other := tokenizer.NewJWTTokenizer(newKey(t), 5*time.Minute, time.Hour)

	token, err := tk.SessionToAccessToken(testSession())
	require.NoError(t, err)

	_, err = other.AccessTokenToIdentity(token)
	require.Error(t, err)
}
