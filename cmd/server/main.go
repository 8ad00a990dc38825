package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdvcaixa/internal/cache"
	"pdvcaixa/internal/config"
	"pdvcaixa/internal/httpapi"
	"pdvcaixa/internal/logger"
	"pdvcaixa/internal/receipt"
	"pdvcaixa/internal/scanner"
	"pdvcaixa/internal/service"
	"pdvcaixa/internal/store"
	"pdvcaixa/internal/store/file"
	"pdvcaixa/internal/store/memory"
	pgstore "pdvcaixa/internal/store/postgres"
	"pdvcaixa/internal/store/redisstore"
	"pdvcaixa/internal/suggestion"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalw("invalid security configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	repo, closeRepo, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		log.Fatalw("snapshot storage unavailable", "backend", cfg.SnapshotBackend, "error", err)
	}
	closers = append(closers, closeRepo)
	log.Infow("snapshot storage ready", "backend", cfg.SnapshotBackend)

	svc, err := service.New(ctx, repo, log, service.Options{SeedAdminPassword: cfg.SeedAdminPassword})
	if err != nil {
		log.Fatalw("restore till state", "error", err)
	}

	cacheStore := cache.SuggestionCache(cache.NoopSuggestionCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSuggestionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnw("redis unavailable, suggestions are not cached", "error", err)
			_ = redisCache.Close()
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Infow("suggestion cache: redis")
		}
	}

	var suggester suggestion.Suggester = suggestion.NewLedgerSuggester(svc)
	if cfg.GeminiAPIKey != "" {
		gemini, err := suggestion.NewGeminiSuggester(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warnw("gemini unavailable, using sales history for suggestions", "error", err)
		} else {
			suggester = gemini
			closers = append(closers, gemini.Close)
			log.Infow("suggestions: gemini", "model", cfg.GeminiModel)
		}
	}
	engine := suggestion.NewEngine(suggester, cacheStore, time.Duration(cfg.SuggestionTTLSeconds)*time.Second, log)

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		Suggestions:   engine,
		Receipt: receipt.Header{
			StoreName: cfg.StoreName,
			Address:   cfg.StoreAddress,
			Document:  cfg.StoreDocument,
			Location:  time.Local,
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("till listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	scanCtx, stopScanner := context.WithCancel(context.Background())
	defer stopScanner()
	if cfg.ScannerStdin {
		go func() {
			onPIX := func(payload string) { log.Infow("pix payload scanned", "length", len(payload)) }
			lines := scanner.NewLineScanner(os.Stdin)
			defer lines.Close()
			if err := scanner.Pump(scanCtx, lines, svc, onPIX, log.WithComponent("scanner")); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnw("scanner stopped", "error", err)
			}
		}()
		log.Infow("reading barcodes from stdin")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	stopScanner()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warnw("close error", "error", err)
		}
	}
	log.Infow("server stopped")
}

// openSnapshotStore connects the configured backend. A configured database
// that cannot be reached is an error; the till never silently falls back to
// a volatile store.
func openSnapshotStore(ctx context.Context, cfg config.Config) (store.SnapshotStore, func() error, error) {
	switch cfg.SnapshotBackend {
	case "memory":
		s := memory.New()
		return s, s.Close, nil
	case "file":
		s, err := file.New(cfg.SnapshotFile)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, nil, errors.New("REDIS_ADDR is required for the redis backend")
		}
		s, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotKey)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		s, err := pgstore.New(ctx, cfg.DatabaseURL, cfg.SnapshotKey)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return errors.New("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return errors.New("ALLOWED_ORIGIN must name the till front end, not *")
	}
	return nil
}
