package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sudigital-labs/token-engine/internal/adapter"
	"github.com/sudigital-labs/token-engine/internal/api/middleware"
	"github.com/sudigital-labs/token-engine/internal/api/server"
	"github.com/sudigital-labs/token-engine/internal/config"
	"github.com/sudigital-labs/token-engine/internal/engine"
	"github.com/sudigital-labs/token-engine/internal/logger"
	"github.com/sudigital-labs/token-engine/internal/messaging"
	"github.com/sudigital-labs/token-engine/internal/payment"
	"github.com/sudigital-labs/token-engine/internal/providers/jetstream"
	"github.com/sudigital-labs/token-engine/internal/relay"
	"github.com/sudigital-labs/token-engine/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadServiceConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "tokend",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting token engine",
		zap.String("name", cfg.Token.Name),
		zap.String("symbol", cfg.Token.Symbol),
	)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize journal store
	journal := store.NewPGStore(db)

	// Connect to NATS when configured; events are dropped from the broker
	// side otherwise but still journaled
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		publisher = messaging.NewNoopPublisher()
		logger.WarnCtx(ctx, "NATS URL not configured, events will not be published")
	}
	defer publisher.Close()

	// Create the event relay
	eventRelay := relay.New(relay.Config{
		PoolSize:  cfg.Relay.PoolSize,
		QueueSize: cfg.Relay.QueueSize,
	}, journal, publisher)
	defer eventRelay.Close()

	// Build the engine
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.Token.PriceScaleDecimals)), nil)
	contractAddress := common.HexToAddress(cfg.Token.Address)
	collector := payment.NewSettlement(contractAddress)
	eng := engine.New(engine.Config{
		Name:                 cfg.Token.Name,
		Symbol:               cfg.Token.Symbol,
		Version:              cfg.Token.Version,
		ChainID:              big.NewInt(cfg.Token.ChainID),
		Address:              contractAddress,
		Owner:                common.HexToAddress(cfg.Token.Owner),
		PrimarySaleRecipient: common.HexToAddress(cfg.Token.PrimarySaleRecipient),
		ContractURI:          cfg.Token.ContractURI,
		Scale:                scale,
	}, collector, adapter.NewClock(), engine.WithSink(eventRelay.Handle))

	// Rehydrate from the journal
	events, err := journal.ListEvents(ctx, 0, 0)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load event journal", zap.Error(err))
	}
	if err := eng.Replay(events); err != nil {
		logger.FatalCtx(ctx, "Failed to replay event journal", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Replayed event journal",
		zap.Int("events", len(events)),
		zap.Uint64("sequence", eng.Sequence()),
	)
	journalSeq, err := journal.LatestSequence(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to read journal sequence", zap.Error(err))
	}
	if journalSeq != eng.Sequence() {
		logger.WarnCtx(ctx, "Journal sequence does not match replayed state",
			zap.Uint64("journal_sequence", journalSeq),
			zap.Uint64("engine_sequence", eng.Sequence()),
		)
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	srv := server.New(serverConfig, eng)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.InfoCtx(shutdownCtx, "Server shutdown complete")
}
