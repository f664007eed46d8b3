package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/strategylab/internal/analytics"
	"github.com/newthinker/strategylab/internal/api"
	"github.com/newthinker/strategylab/internal/apiclient"
	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/logger"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/storage/archive"
	"github.com/newthinker/strategylab/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sweepInterval is how often idle workspaces are dropped.
const sweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front-end",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(debug, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults and environment")
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer closeStore()

	var collector analytics.Collector = analytics.Nop{}
	if cfg.Analytics.Enabled {
		ph, err := analytics.NewPostHog(cfg.Analytics.Key, cfg.Analytics.Host, log)
		if err != nil {
			return err
		}
		defer ph.Close()
		collector = ph
	}

	var (
		registry *metrics.Registry
		recorder workspace.Recorder
	)
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		recorder = registry
	}

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Logger:  log,
	})

	workspaces := workspace.NewStore(client, workspace.Options{
		MaxSize:    cfg.Workspace.MaxWorkspaces,
		TTL:        cfg.Workspace.TTL,
		RunTimeout: cfg.Workspace.RunTimeout,
		PageSize:   cfg.Table.PageSize,
	}, collector, recorder, log)
	defer workspaces.Close()

	sessions := session.NewManager(store, collector, session.Options{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		MaxAge:     cfg.Session.MaxAge,
	}, log)
	sessions.OnLogout(workspaces.Discard)

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		TemplatesDir: cfg.Server.TemplatesDir,
		MetricsPath:  cfg.Metrics.Path,
	}, api.Dependencies{
		Sessions:   sessions,
		Auth:       client,
		Workspaces: workspaces,
		Metrics:    registry,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go workspaces.Run(ctx, sweepInterval)

	log.Info("starting StrategyLab",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("session_store", cfg.Session.Store),
	)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down StrategyLab")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// newSessionStore builds the configured session store and its closer.
func newSessionStore(cfg *config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session.Store {
	case "sqlite":
		s, err := session.NewSQLiteStore(cfg.Session.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "archive":
		blobs, err := archive.New(archive.Options{
			Type: cfg.Archive.Type,
			Path: cfg.Archive.Path,
			S3: archive.S3Config{
				Bucket:    cfg.Archive.S3.Bucket,
				Endpoint:  cfg.Archive.S3.Endpoint,
				Region:    cfg.Archive.S3.Region,
				AccessKey: cfg.Archive.S3.AccessKey,
				SecretKey: cfg.Archive.S3.SecretKey,
				Prefix:    cfg.Archive.S3.Prefix,
			},
		})
		if err != nil {
			return nil, nil, err
		}
		return session.NewArchiveStore(blobs), noop, nil
	default:
		return session.NewMemoryStore(), noop, nil
	}
}
