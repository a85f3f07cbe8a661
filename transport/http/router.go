package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mintaka-labs/warden/service"
	"github.com/rs/zerolog"
)

// SetupRouter sets up the Gin router.
func SetupRouter(authService *service.AuthService, mintService *service.MintService, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewHandlers(authService, mintService, log)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth/web3")
	{
		auth.GET("/challenge", handlers.Challenge)
		auth.POST("/authenticate", handlers.Authenticate)
		auth.POST("/refresh-token", handlers.RefreshToken)
	}

	authed := router.Group("/auth/web3")
	authed.Use(AuthMiddleware(authService))
	{
		authed.POST("/session-heartbeat", handlers.SessionHeartbeat)
		authed.POST("/end-session", handlers.EndSession)
	}

	minting := router.Group("/minting")
	minting.Use(AuthMiddleware(authService))
	{
		minting.POST("/enqueue", handlers.EnqueueMint)
		minting.POST("/retry", handlers.RetryMints)
	}

	return router
}
