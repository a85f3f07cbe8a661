package service_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mintaka-labs/warden/adapters/events"
	"github.com/mintaka-labs/warden/adapters/store"
	"github.com/mintaka-labs/warden/adapters/tokenizer"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/internal/eth"
	"github.com/mintaka-labs/warden/ports"
	"github.com/mintaka-labs/warden/service"
)

const testChainID = "84532"

type authFixture struct {
	challenges ports.ChallengeStore
	sessions   ports.SessionStore
	svc        *service.AuthService

	walletKey *ecdsa.PrivateKey
	address   string
}

func newAuthFixture(t *testing.T, cfg service.AuthConfig) *authFixture {
	t.Helper()

	if cfg.SupportedChainIDs == nil {
		cfg.SupportedChainIDs = []string{testChainID}
	}

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	walletKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	challenges := store.NewMemoryChallengeStore()
	sessions := store.NewMemorySessionStore()

	svc := service.NewAuthService(
		challenges,
		sessions,
		store.NewMemoryUserStore(),
		tokenizer.NewJWTTokenizer(signKey, 5*time.Minute, time.Hour),
		events.NopPublisher{},
		zerolog.Nop(),
		cfg,
	)

	return &authFixture{
		challenges: challenges,
		sessions:   sessions,
		svc:        svc,
		walletKey:  walletKey,
		address:    ethcrypto.PubkeyToAddress(walletKey.PublicKey).Hex(),
	}
}

func testDevice() core.DeviceFingerprint {
	return core.DeviceFingerprint{
		HardwareID:  "hw-test-1",
		BrowserName: "Firefox",
		Timezone:    "Europe/Berlin",
		CanvasHash:  "canvas-1",
	}
}

func testLocation(lat, lon float64) *core.LocationData {
	return &core.LocationData{
		IP:        "203.0.113.7",
		Latitude:  &lat,
		Longitude: &lon,
		Timestamp: time.Now(),
	}
}

// signedAuthInput issues a challenge, signs it with the fixture wallet and
// returns a ready authenticate payload.
func (f *authFixture) signedAuthInput(t *testing.T) service.AuthenticateInput {
	t.Helper()

	message, nonce, err := f.svc.IssueChallenge(context.Background())
	require.NoError(t, err)

	signature, err := eth.Sign(f.walletKey, message)
	require.NoError(t, err)

	return service.AuthenticateInput{
		WalletAddress:     f.address,
		Signature:         signature,
		Nonce:             nonce,
		DeviceFingerprint: testDevice(),
		LocationData:      testLocation(52.52, 13.405),
		ChainID:           testChainID,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	result, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.True(t, result.Session.IsActive)
	require.Equal(t, result.User.ID, result.Session.UserID)
	require.Equal(t, "0x", result.Session.WalletAddress[:2])
}

func TestAuthenticateNonceSingleUse(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})
	in := f.signedAuthInput(t)

	_, err := f.svc.Authenticate(context.Background(), in)
	require.NoError(t, err)

	// The identical retry must fail: the nonce was consumed on success.
	_, err = f.svc.Authenticate(context.Background(), in)
	require.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestAuthenticateUnknownNonce(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})
	in := f.signedAuthInput(t)
	in.Nonce = "deadbeef"

	_, err := f.svc.Authenticate(context.Background(), in)
	require.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestAuthenticateExpiredChallenge(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{ChallengeTTL: time.Minute})

	// Plant a nonce issued well before the expiry window. The expiry check
	// runs before signature verification, so the signature can be anything.
	stale := time.Now().Add(-10 * time.Minute)
	require.NoError(t, f.challenges.Put(context.Background(), "stale-nonce", stale, time.Hour))

	in := f.signedAuthInput(t)
	in.Nonce = "stale-nonce"

	_, err := f.svc.Authenticate(context.Background(), in)
	require.ErrorIs(t, err, core.ErrChallengeExpired)
}

func TestAuthenticateInvalidSignature(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	message, nonce, err := f.svc.IssueChallenge(context.Background())
	require.NoError(t, err)
	signature, err := eth.Sign(otherKey, message)
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), service.AuthenticateInput{
		WalletAddress:     f.address,
		Signature:         signature,
		Nonce:             nonce,
		DeviceFingerprint: testDevice(),
		ChainID:           testChainID,
	})
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestAuthenticateUnsupportedNetwork(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})
	in := f.signedAuthInput(t)
	in.ChainID = "1"

	_, err := f.svc.Authenticate(context.Background(), in)
	require.ErrorIs(t, err, core.ErrUnsupportedNetwork)
}

func TestAuthenticateReusesSessionForSameDevice(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	first, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	second, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	require.Equal(t, first.Session.ID, second.Session.ID, "same device reuses the session row")
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	authed, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), authed.RefreshToken, testDevice(), testLocation(52.52, 13.405))
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, authed.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token must be rejected on reuse.
	_, err = f.svc.Refresh(context.Background(), authed.RefreshToken, testDevice(), nil)
	require.ErrorIs(t, err, core.ErrInvalidSession)

	// The fresh one still works.
	_, err = f.svc.Refresh(context.Background(), refreshed.RefreshToken, testDevice(), nil)
	require.NoError(t, err)
}

func TestRefreshGarbageToken(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	_, err := f.svc.Refresh(context.Background(), "not-a-jwt", testDevice(), nil)
	require.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestRefreshDeviceMismatchKillsSession(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	authed, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	hijacked := testDevice()
	hijacked.HardwareID = "hw-other"

	_, err = f.svc.Refresh(context.Background(), authed.RefreshToken, hijacked, nil)
	require.ErrorIs(t, err, core.ErrDeviceMismatch)

	// The session was killed server-side: heartbeat sees it inactive.
	ok := f.svc.Heartbeat(context.Background(), authed.Session.ID, time.Now(), nil)
	require.False(t, ok)

	// And it stays dead: even the stored refresh token is gone.
	_, err = f.svc.Refresh(context.Background(), authed.RefreshToken, testDevice(), nil)
	require.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestRefreshLocationDriftFlagsSession(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{LocationThresholdKm: 100})

	in := f.signedAuthInput(t)
	in.LocationData = testLocation(0, 0)

	authed, err := f.svc.Authenticate(context.Background(), in)
	require.NoError(t, err)

	// (0,0) -> (10,10) is over 1500 km, far beyond the 100 km threshold.
	refreshed, err := f.svc.Refresh(context.Background(), authed.RefreshToken, testDevice(), testLocation(10, 10))
	require.NoError(t, err, "location drift is advisory, not a failure")
	require.Contains(t, refreshed.Session.SecurityFlags, core.FlagLocationChange)
}

func TestRefreshNearbyLocationNotFlagged(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	in := f.signedAuthInput(t)
	in.LocationData = testLocation(52.52, 13.405)

	authed, err := f.svc.Authenticate(context.Background(), in)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), authed.RefreshToken, testDevice(), testLocation(52.51, 13.40))
	require.NoError(t, err)
	require.NotContains(t, refreshed.Session.SecurityFlags, core.FlagLocationChange)
}

func TestHeartbeat(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	authed, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	now := time.Now()
	require.True(t, f.svc.Heartbeat(context.Background(), authed.Session.ID, now, testLocation(52.52, 13.405)))

	// A stale timestamp never moves lastActiveTime backwards.
	require.True(t, f.svc.Heartbeat(context.Background(), authed.Session.ID, now.Add(-time.Hour), nil))
	session, err := f.sessions.GetByID(context.Background(), authed.Session.ID)
	require.NoError(t, err)
	require.False(t, session.LastActiveTime.Before(now.Add(-time.Second)))

	require.False(t, f.svc.Heartbeat(context.Background(), "unknown-session", now, nil))
}

func TestEndSessionIdempotent(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	authed, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	require.True(t, f.svc.EndSession(context.Background(), authed.Session.ID))
	require.True(t, f.svc.EndSession(context.Background(), authed.Session.ID), "ending twice is a no-op success")
	require.False(t, f.svc.EndSession(context.Background(), "unknown-session"))

	session, err := f.sessions.GetByID(context.Background(), authed.Session.ID)
	require.NoError(t, err)
	require.False(t, session.IsActive)
	require.NotNil(t, session.EndTime)
}

func TestValidateAccessTokenRequiresActiveSession(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})

	authed, err := f.svc.Authenticate(context.Background(), f.signedAuthInput(t))
	require.NoError(t, err)

	identity, err := f.svc.ValidateAccessToken(context.Background(), authed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, authed.Session.ID, identity.SessionID)

	require.True(t, f.svc.EndSession(context.Background(), authed.Session.ID))

	_, err = f.svc.ValidateAccessToken(context.Background(), authed.AccessToken)
	require.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestEndToEndChallengeLoginRefresh(t *testing.T) {
	f := newAuthFixture(t, service.AuthConfig{})
	ctx := context.Background()

	message, nonce, err := f.svc.IssueChallenge(ctx)
	require.NoError(t, err)

	signature, err := eth.Sign(f.walletKey, message)
	require.NoError(t, err)

	authed, err := f.svc.Authenticate(ctx, service.AuthenticateInput{
		WalletAddress:     f.address,
		Signature:         signature,
		Nonce:             nonce,
		DeviceFingerprint: testDevice(),
		LocationData:      testLocation(52.52, 13.405),
		ChainID:           testChainID,
	})
	require.NoError(t, err)

	time.Sleep(time.Second)

	refreshed, err := f.svc.Refresh(ctx, authed.RefreshToken, testDevice(), testLocation(52.52, 13.405))
	require.NoError(t, err)
	require.NotEqual(t, authed.RefreshToken, refreshed.RefreshToken)

	_, err = f.svc.Refresh(ctx, authed.RefreshToken, testDevice(), nil)
	require.ErrorIs(t, err, core.ErrInvalidSession)

	require.True(t, refreshed.Session.LastActiveTime.After(authed.Session.StartTime))
}
