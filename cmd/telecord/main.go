package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telecord/internal/config"
	"telecord/internal/constants"
	"telecord/internal/database"
	"telecord/internal/retry"
	"telecord/internal/service"
	"telecord/internal/session"
	"telecord/internal/tracing"
	"telecord/pkg/discord"
	"telecord/pkg/media"
	"telecord/pkg/telegram"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	version = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Telecord %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting Telecord")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize OpenTelemetry tracing
	tracingManager := tracing.NewManager(tracing.Config{
		ServiceName:    "telecord",
		ServiceVersion: Version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}, logger)

	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Initialize database with exponential backoff retry
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(constants.DefaultRetryBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(constants.DefaultMaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})

	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	sessionStore, err := session.NewFileStore(cfg.Telegram.SessionFile)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	connector := telegram.NewConnector(cfg.Telegram, sessionStore, terminalPrompts(), cfg.Relay.QueueSize, logger)

	stager, err := media.NewStager(cfg.Media.Dir, connector, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize media stager: %w", err)
	}

	forwarder := discord.NewClient(&http.Client{}, logger)
	profiles := service.NewProfileService(db, connector, stager, cfg.AvatarBaseURL(), logger)
	relay := service.NewRelayService(db, profiles, stager, forwarder, logger)

	if err := connector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram connector: %w", err)
	}
	defer connector.Disconnect()

	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(relayCtx, connector.Messages(), cfg.Relay.Workers)
	}()

	scheduler := service.NewScheduler(stager, cfg.Media.StagingMaxAgeMin, cfg.Media.StagingSweepMin, logger)
	go scheduler.Start(ctx)
	defer scheduler.Stop()

	server := NewServer(cfg.Server, db, stager.AvatarDir(), logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	connector.Disconnect()
	cancelRelay()

	select {
	case <-relayDone:
	case <-time.After(time.Duration(constants.DefaultGracefulShutdownSec) * time.Second):
		logger.Warn("Timed out waiting for relay workers to drain")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

// terminalPrompts reads first-run authentication input from stdin. After the
// session credential is persisted these are never consulted again.
func terminalPrompts() telegram.AuthPrompts {
	reader := bufio.NewReader(os.Stdin)
	readLine := func(prompt string) (string, error) {
		fmt.Print(prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	return telegram.AuthPrompts{
		Code: func(_ context.Context) (string, error) {
			return readLine("Enter the login code sent to your Telegram account: ")
		},
		Password: func(_ context.Context) (string, error) {
			return readLine("Enter your two-factor authentication password: ")
		},
	}
}
