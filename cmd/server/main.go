package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memberly/edge-gateway/internal/api"
	"github.com/memberly/edge-gateway/internal/audit"
	"github.com/memberly/edge-gateway/internal/core/service"
	"github.com/memberly/edge-gateway/internal/infrastructure/config"
	gwmongo "github.com/memberly/edge-gateway/internal/infrastructure/db/mongo"
	gwredis "github.com/memberly/edge-gateway/internal/infrastructure/db/redis"
	"github.com/memberly/edge-gateway/internal/ratelimit"
	"github.com/memberly/edge-gateway/internal/session"
	"github.com/memberly/edge-gateway/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "edge-gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{
		Config:   cfg,
		Proxy:    service.NewProxyService(cfg.Backend.BaseURL, cfg.Backend.Timeout, log),
		Sessions: session.NewManager(cfg.SessionSecret, cfg.CookieTTL, log),
		Logger:   log,
	}

	// Rate limiter: shared Redis counters when configured, otherwise the
	// process-local fixed window.
	if cfg.RateLimit.Store == "redis" {
		rdb, err := gwredis.Connect(ctx, gwredis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		deps.Redis = rdb
		deps.Limiter = gwredis.NewRateLimiter(rdb, cfg.RateLimit.Window)
	} else {
		mem := ratelimit.NewMemory(cfg.RateLimit.Window)
		defer mem.Stop()
		deps.Limiter = mem
	}

	// Audit trail: optional, best-effort.
	deps.Audit = audit.Noop{}
	if cfg.Mongo.URI != "" {
		client, db, err := gwmongo.Connect(ctx, gwmongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		deps.Mongo = db
		sink := audit.NewSink(gwmongo.NewAuditRepository(db), log)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sink.Close(closeCtx)
		}()
		deps.Audit = sink
	}

	e := api.NewRouter(deps)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Backend.BaseURL).
		Str("env", cfg.Env).
		Msg("edge gateway started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
