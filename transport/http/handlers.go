package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mintaka-labs/warden/core"
	"github.com/mintaka-labs/warden/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handlers contains the HTTP handlers for auth and minting endpoints.
type Handlers struct {
	auth *service.AuthService
	mint *service.MintService
	log  zerolog.Logger
}

// NewHandlers creates new handlers.
func NewHandlers(auth *service.AuthService, mint *service.MintService, log zerolog.Logger) *Handlers {
	return &Handlers{
		auth: auth,
		mint: mint,
		log:  log.With().Str("component", "http").Logger(),
	}
}

// Challenge issues a nonce and the message the wallet must sign.
func (h *Handlers) Challenge(c *gin.Context) {
	message, nonce, err := h.auth.IssueChallenge(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "nonce": nonce})
}

// Authenticate verifies a signed challenge and opens a session.
func (h *Handlers) Authenticate(c *gin.Context) {
	var req struct {
		WalletAddress     string                 `json:"walletAddress" binding:"required"`
		Signature         string                 `json:"signature" binding:"required"`
		Nonce             string                 `json:"nonce" binding:"required"`
		DeviceFingerprint core.DeviceFingerprint `json:"deviceFingerprint" binding:"required"`
		LocationData      *core.LocationData     `json:"locationData"`
		ChainID           string                 `json:"chainId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.auth.Authenticate(c.Request.Context(), service.AuthenticateInput{
		WalletAddress:     req.WalletAddress,
		Signature:         req.Signature,
		Nonce:             req.Nonce,
		DeviceFingerprint: req.DeviceFingerprint,
		LocationData:      req.LocationData,
		ChainID:           req.ChainID,
	})
	if err != nil {
		h.authFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RefreshToken rotates the token pair on an active session.
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken      string                 `json:"refreshToken" binding:"required"`
		DeviceFingerprint core.DeviceFingerprint `json:"deviceFingerprint" binding:"required"`
		LocationData      *core.LocationData     `json:"locationData"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, req.DeviceFingerprint, req.LocationData)
	if err != nil {
		h.authFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionHeartbeat updates liveness on an active session. Best-effort: a
// missing or inactive session yields success=false, not an error status.
func (h *Handlers) SessionHeartbeat(c *gin.Context) {
	var req struct {
		SessionID      string             `json:"sessionId" binding:"required"`
		LastActiveTime time.Time          `json:"lastActiveTime"`
		LocationData   *core.LocationData `json:"locationData"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.LastActiveTime.IsZero() {
		req.LastActiveTime = time.Now()
	}

	ok := h.auth.Heartbeat(c.Request.Context(), req.SessionID, req.LastActiveTime, req.LocationData)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// EndSession terminates a session. Idempotent.
func (h *Handlers) EndSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ok := h.auth.EndSession(c.Request.Context(), req.SessionID)
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// EnqueueMint creates a minting record and queues it for batch dispatch.
func (h *Handlers) EnqueueMint(c *gin.Context) {
	var req struct {
		RecipientAddress string          `json:"recipientAddress" binding:"required"`
		Amount           decimal.Decimal `json:"amount" binding:"required"`
		NetworkID        string          `json:"networkId" binding:"required"`
		Priority         int             `json:"priority"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity := identityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, item, err := h.mint.RequestMint(c.Request.Context(), identity.UserID, req.RecipientAddress, req.Amount, req.NetworkID, req.Priority)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found", "code": "RECORD_NOT_FOUND"})
			return
		}
		h.log.Error().Err(err).Msg("failed to enqueue mint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue mint"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record, "queueItem": item})
}

// RetryMints resets failed queue items for the next dispatcher run.
func (h *Handlers) RetryMints(c *gin.Context) {
	var req struct {
		ItemIDs []string `json:"itemIds" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	reset, err := h.mint.RetryFailedItems(c.Request.Context(), req.ItemIDs)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to retry items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": reset})
}

// authFailure maps service errors to status codes and stable machine codes.
// The human-readable message stays generic so callers cannot probe which
// check failed.
func (h *Handlers) authFailure(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	code := "AUTH_FAILED"

	switch {
	case errors.Is(err, core.ErrUnsupportedNetwork):
		status = http.StatusBadRequest
		code = "UNSUPPORTED_NETWORK"
	case errors.Is(err, core.ErrChallengeNotFound):
		code = "CHALLENGE_NOT_FOUND"
	case errors.Is(err, core.ErrChallengeExpired):
		code = "CHALLENGE_EXPIRED"
	case errors.Is(err, core.ErrInvalidSignature):
		code = "INVALID_SIGNATURE"
	case errors.Is(err, core.ErrDeviceMismatch):
		code = "DEVICE_MISMATCH"
	case errors.Is(err, core.ErrInvalidSession), errors.Is(err, core.ErrTokenExpired), errors.Is(err, core.ErrInvalidToken):
		code = "INVALID_SESSION"
	default:
		h.log.Error().Err(err).Msg("authentication failed")
		status = http.StatusInternalServerError
	}

	if status != http.StatusInternalServerError {
		h.log.Warn().Str("code", code).Err(err).Msg("authentication rejected")
	}

	c.JSON(status, gin.H{"error": "authentication failed", "code": code})
}
