package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/internal/eth"
	"github.com/mintaka-labs/warden/ports"
	"github.com/rs/zerolog"
)

// challengeTemplate is the canonical sign-in message. The server rebuilds it
// from the stored nonce and issue time during verification, so both sides
// must format identically.
const challengeTemplate = "warden wants you to sign in with your wallet.\n\nNonce: %s\nIssued At: %s"

const reasonLogout = "logout"
const reasonDeviceMismatch = "device_mismatch"

// AuthConfig carries the tunables of the authentication flow.
type AuthConfig struct {
	ChallengeTTL        time.Duration
	LocationThresholdKm float64
	// SupportedChainIDs gates authenticate to a restricted set of networks.
	SupportedChainIDs []string
}

// AuthResult is returned by Authenticate and Refresh.
type AuthResult struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	User         *core.User    `json:"user"`
	Session      *core.Session `json:"session"`
}

// AuthService orchestrates the wallet session lifecycle: challenge issuance,
// signature verification, session creation, refresh rotation, liveness and
// termination.
type AuthService struct {
	challenges ports.ChallengeStore
	sessions   ports.SessionStore
	users      ports.UserStore
	tokenizer  ports.Tokenizer
	events     ports.EventPublisher
	log        zerolog.Logger

	challengeTTL        time.Duration
	locationThresholdKm float64
	supportedChains     map[string]struct{}

	now func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	challenges ports.ChallengeStore,
	sessions ports.SessionStore,
	users ports.UserStore,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	log zerolog.Logger,
	cfg AuthConfig,
) *AuthService {
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.LocationThresholdKm == 0 {
		cfg.LocationThresholdKm = core.DefaultLocationThresholdKm
	}

	supported := make(map[string]struct{}, len(cfg.SupportedChainIDs))
	for _, id := range cfg.SupportedChainIDs {
		supported[id] = struct{}{}
	}

	return &AuthService{
		challenges:          challenges,
		sessions:            sessions,
		users:               users,
		tokenizer:           tokenizer,
		events:              events,
		log:                 log.With().Str("component", "auth_service").Logger(),
		challengeTTL:        cfg.ChallengeTTL,
		locationThresholdKm: cfg.LocationThresholdKm,
		supportedChains:     supported,
		now:                 time.Now,
	}
}

// IssueChallenge generates a one-time nonce and the message the wallet must
// sign. The nonce is stored with a TTL twice the logical expiry window so the
// service can distinguish an expired challenge from an unknown one.
func (s *AuthService) IssueChallenge(ctx context.Context) (message, nonce string, err error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce = hex.EncodeToString(nonceBytes)

	issuedAt := s.now().UTC().Truncate(time.Second)
	if err := s.challenges.Put(ctx, nonce, issuedAt, 2*s.challengeTTL); err != nil {
		return "", "", fmt.Errorf("failed to store challenge: %w", err)
	}

	return s.challengeMessage(nonce, issuedAt), nonce, nil
}

func (s *AuthService) challengeMessage(nonce string, issuedAt time.Time) string {
	return fmt.Sprintf(challengeTemplate, nonce, issuedAt.UTC().Format(time.RFC3339))
}

// AuthenticateInput is the payload of an authenticate call.
type AuthenticateInput struct {
	WalletAddress     string
	Signature         string
	Nonce             string
	DeviceFingerprint core.DeviceFingerprint
	LocationData      *core.LocationData
	ChainID           string
}

// Authenticate verifies a signed challenge and opens (or reuses) a session.
// The nonce is consumed on lookup, so a retried request fails with
// ErrChallengeNotFound even after a successful first call.
func (s *AuthService) Authenticate(ctx context.Context, in AuthenticateInput) (*AuthResult, error) {
	if _, ok := s.supportedChains[in.ChainID]; !ok {
		return nil, fmt.Errorf("chain %q: %w", in.ChainID, core.ErrUnsupportedNetwork)
	}

	issuedAt, ok, err := s.challenges.Take(ctx, in.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !ok {
		return nil, core.ErrChallengeNotFound
	}
	if s.now().Sub(issuedAt) > s.challengeTTL {
		return nil, core.ErrChallengeExpired
	}

	message := s.challengeMessage(in.Nonce, issuedAt)
	if !eth.Verify(in.WalletAddress, message, in.Signature) {
		return nil, core.ErrInvalidSignature
	}

	wallet := strings.ToLower(in.WalletAddress)
	user, err := s.users.GetOrCreateByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	now := s.now()
	session, err := s.sessions.FindActiveByDevice(ctx, user.ID, in.DeviceFingerprint.HardwareID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	created := session == nil
	if created {
		session = &core.Session{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			StartTime: now,
			IsActive:  true,
		}
	}

	session.WalletAddress = wallet
	session.DeviceFingerprint = in.DeviceFingerprint
	session.LocationData = in.LocationData
	session.LastActiveTime = now
	session.ChainID = in.ChainID

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	session.RefreshToken = &refreshToken

	if created {
		err = s.sessions.Create(ctx, session)
	} else {
		err = s.sessions.Update(ctx, session)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID).
		Str("wallet", wallet).
		Bool("reused", !created).
		Msg("wallet authenticated")

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		Session:      session,
	}, nil
}

// Refresh rotates the token pair on an active session. The presented refresh
// token must match the stored value exactly; a stale token from a previous
// rotation fails with ErrInvalidSession. A hardware id mismatch kills the
// session before returning ErrDeviceMismatch. Location drift beyond the
// threshold only appends LOCATION_CHANGE.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, fingerprint core.DeviceFingerprint, location *core.LocationData) (*AuthResult, error) {
	sessionID, err := s.tokenizer.RefreshTokenSessionID(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidSession, err)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || !session.IsActive {
		return nil, core.ErrInvalidSession
	}
	if session.RefreshToken == nil || *session.RefreshToken != refreshToken {
		// Reuse of a rotated-out token. Treated the same as an unknown one.
		return nil, core.ErrInvalidSession
	}

	mismatch, flags := core.CompareFingerprints(session.DeviceFingerprint, fingerprint)
	if mismatch {
		s.endSession(ctx, session, reasonDeviceMismatch)
		return nil, core.ErrDeviceMismatch
	}

	if session.LocationData.HasCoordinates() && location.HasCoordinates() {
		distance := core.HaversineKm(
			*session.LocationData.Latitude, *session.LocationData.Longitude,
			*location.Latitude, *location.Longitude,
		)
		if distance > s.locationThresholdKm {
			flags = append(flags, core.FlagLocationChange)
			s.log.Warn().
				Str("session_id", session.ID).
				Float64("distance_km", distance).
				Msg("location drift on refresh")
		}
	}

	for _, flag := range flags {
		session.AddSecurityFlag(flag)
		if err := s.events.PublishSecurityFlag(ctx, session.ID, session.WalletAddress, flag); err != nil {
			s.log.Warn().Err(err).Str("flag", flag).Msg("failed to publish security flag")
		}
	}

	now := s.now()
	if now.After(session.LastActiveTime) {
		session.LastActiveTime = now
	}
	if location != nil {
		session.LocationData = location
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	newRefreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	session.RefreshToken = &newRefreshToken

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         user,
		Session:      session,
	}, nil
}

// Heartbeat is a best-effort liveness ping. It returns false instead of an
// error when the session is unknown or inactive. lastActiveTime never moves
// backwards.
func (s *AuthService) Heartbeat(ctx context.Context, sessionID string, lastActive time.Time, location *core.LocationData) bool {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("heartbeat lookup failed")
		return false
	}
	if session == nil || !session.IsActive {
		return false
	}

	if lastActive.After(session.LastActiveTime) {
		session.LastActiveTime = lastActive
	}
	if location != nil {
		session.LocationData = location
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("heartbeat update failed")
		return false
	}
	return true
}

// EndSession terminates a session. Ending an already-inactive session is a
// no-op success; an unknown session yields false.
func (s *AuthService) EndSession(ctx context.Context, sessionID string) bool {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("end-session lookup failed")
		return false
	}
	if session == nil {
		return false
	}
	if !session.IsActive {
		return true
	}

	s.endSession(ctx, session, reasonLogout)
	return true
}

// ValidateAccessToken checks a bearer token and confirms its session is still
// active, so killed sessions lose access before the token expires.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.TokenIdentity, error) {
	identity, err := s.tokenizer.AccessTokenToIdentity(accessToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, identity.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || !session.IsActive {
		return nil, core.ErrInvalidSession
	}

	return identity, nil
}

func (s *AuthService) endSession(ctx context.Context, session *core.Session, reason string) {
	now := s.now()
	session.IsActive = false
	session.EndTime = &now
	session.RefreshToken = nil

	if err := s.sessions.Update(ctx, session); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to end session")
		return
	}

	if err := s.events.PublishSessionEnded(ctx, session.ID, session.WalletAddress, reason); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to publish session end")
	}

	s.log.Info().Str("session_id", session.ID).Str("reason", reason).Msg("session ended")
}
