// Package main initializes and starts the diary HTTP server,
// setting up configuration, logging, storage, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/auth"
	"github.com/surya9901/diary-manager-backend/internal/config"
	"github.com/surya9901/diary-manager-backend/internal/db"
	"github.com/surya9901/diary-manager-backend/internal/logger"
	"github.com/surya9901/diary-manager-backend/internal/metrics"
	"github.com/surya9901/diary-manager-backend/internal/notify"
	"github.com/surya9901/diary-manager-backend/internal/repository"
	"github.com/surya9901/diary-manager-backend/internal/server/handler/http"
	"github.com/surya9901/diary-manager-backend/internal/service"
)

const appName = "Diary Manager"

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// accountStore is the account side of a storage backend.
type accountStore interface {
	service.AccountRepository
	service.RecoveryRepository
	db.ResetSweeper
}

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	// Initialize storage: PostgreSQL when a DSN is configured, memory otherwise.
	var (
		accounts accountStore
		entries  service.EntryRepository
		health   http.Pinger
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()

		accounts = repository.NewPostgresAccountRepository(postgresDB)
		entries = repository.NewPostgresEntryRepository(postgresDB)
		health = postgresDB
	} else {
		zapLogger.Warn("no database configured, data is kept in memory")
		store := repository.NewMemoryStore()
		accounts = store
		entries = store
	}

	db.StartStalePinSweeper(ctx, accounts,
		options.SweepInterval,
		options.PinRetention,
		m.PinsSweptTotal,
		zapLogger,
	)

	// Reset PIN delivery: SMTP when a host is configured, the log otherwise.
	var notifier service.Notifier
	if options.Mail.Host != "" {
		smtp, err := notify.NewSMTPNotifier(options.Mail, appName)
		if err != nil {
			zapLogger.Fatal("cannot init mail client", zap.Error(err))
		}
		notifier = smtp
	} else {
		zapLogger.Warn("no SMTP host configured, reset PINs are written to the log")
		notifier = notify.NewLogNotifier(zapLogger)
	}

	hasher := auth.NewHasher(auth.DefaultCost)
	tokens := auth.NewTokenService([]byte(options.JWTSecret))

	// Initialize business-logic services.
	accountService := service.NewAccountService(accounts, hasher, tokens, zapLogger)
	recoveryService := service.NewRecoveryService(accounts, hasher, notifier, zapLogger,
		service.WithStrictReset(options.StrictReset),
		service.WithRecorder(m),
	)
	entryService := service.NewEntryService(entries)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterConfig{
		Accounts: &http.AccountHandler{AccountService: accountService, Log: zapLogger},
		Recovery: &http.RecoveryHandler{RecoveryService: recoveryService, Log: zapLogger},
		Entries:  &http.EntryHandler{EntryService: entryService, Log: zapLogger},
		Health:   &http.HealthHandler{Store: health, Log: zapLogger},
		Tokens:   tokens,
		Metrics:  m,
		Logger:   zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
