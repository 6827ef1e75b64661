package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborview/homehub/internal/auth"
	"github.com/harborview/homehub/internal/cache"
	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/db"
	httpx "github.com/harborview/homehub/internal/http"
	"github.com/harborview/homehub/internal/http/handlers"
	"github.com/harborview/homehub/internal/observability"
	"github.com/harborview/homehub/internal/repo/postgres"
	"github.com/harborview/homehub/internal/storage"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	// tracing is optional; without an endpoint spans just never export
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "homehub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	// schema first, pool second
	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// redis-backed search cache; requests work without it
	searchCache := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.CacheTTL)

	defer searchCache.Close()

	if err := searchCache.Ping(ctx); err != nil {
		log.Warn("redis unreachable, search cache disabled", "err", err)
	}

	var media handlers.Presigner

	if cfg.S3AccessKey != "" {
		m, err := storage.NewMediaStore(ctx, storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})

		if err != nil {
			log.Error("media store init failed", "err", err)
			os.Exit(1)
		}

		media = m
	} else {
		log.Warn("no S3 credentials, upload endpoint disabled")
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	ping := func() error {
		pctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return pool.Ping(pctx)
	}

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Accounts:    postgres.NewAccountsRepo(pool, prom),
		Listings:    postgres.NewListingsRepo(pool, prom),
		Tokens:      tokens,
		Verifier:    tokens,
		SearchCache: searchCache,
		Media:       media,
		Prom:        prom,
		Registry:    registry,
		Ping:        ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(sctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
