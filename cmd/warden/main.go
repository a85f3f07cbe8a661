package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mintaka-labs/warden/adapters/chain"
	"github.com/mintaka-labs/warden/adapters/events"
	"github.com/mintaka-labs/warden/adapters/store"
	"github.com/mintaka-labs/warden/adapters/tokenizer"
	"github.com/mintaka-labs/warden/config"
	"github.com/mintaka-labs/warden/ports"
	"github.com/mintaka-labs/warden/service"
	"github.com/mintaka-labs/warden/transport/http"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	signKey, err := loadSignKey(cfg.JWTSignKeyHex)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signing key")
	}

	db, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	authService := service.NewAuthService(
		store.NewRedisChallengeStore(redisClient),
		store.NewGormSessionStore(db),
		store.NewGormUserStore(db),
		tokenizer.NewJWTTokenizer(signKey, cfg.AccessTTL, cfg.RefreshTTL),
		events.NewWatermillPublisher(publisher),
		log,
		service.AuthConfig{
			ChallengeTTL:        cfg.ChallengeTTL,
			LocationThresholdKm: cfg.LocationThresholdKm,
			SupportedChainIDs:   cfg.SupportedChainIDs,
		},
	)

	mintStore := store.NewGormMintStore(db)
	mintService := service.NewMintService(mintStore, log)

	if cfg.ChainRPCURL != "" && cfg.MinterKeyHex != "" {
		var chainClient ports.ChainClient
		chainClient, err = chain.NewHotWallet(ctx, cfg.ChainRPCURL, cfg.MinterKeyHex, cfg.TokenContract, cfg.TokenDecimals, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create hot wallet")
		}

		dispatcher := service.NewDispatcher(mintStore, chainClient, log, service.DispatcherConfig{
			Interval:      cfg.DispatchInterval,
			MaxBatchSize:  cfg.MaxBatchSize,
			SubmitTimeout: cfg.SubmitTimeout,
		})
		go dispatcher.Run(ctx)
	} else {
		log.Warn().Msg("chain rpc not configured, batch dispatcher disabled")
	}

	router := http.SetupRouter(authService, mintService, log)

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// loadSignKey parses a hex-encoded P-256 scalar, or generates an ephemeral
// key when none is configured. Ephemeral keys invalidate all outstanding
// tokens on restart, which is acceptable for development only.
func loadSignKey(keyHex string) (*ecdsa.PrivateKey, error) {
	if keyHex == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, err
	}

	curve := elliptic.P256()
	key := new(ecdsa.PrivateKey)
	key.Curve = curve
	key.D = new(big.Int).SetBytes(raw)
	key.PublicKey.X, key.PublicKey.Y = curve.ScalarBaseMult(raw)
	return key, nil
}
