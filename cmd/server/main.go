package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/formvcm/postulaciones/internal/config"
	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/logging"
	"github.com/formvcm/postulaciones/internal/metrics"
	"github.com/formvcm/postulaciones/internal/sinks/localfile"
	"github.com/formvcm/postulaciones/internal/sinks/postgres"
	"github.com/formvcm/postulaciones/internal/sinks/sheets"
	"github.com/formvcm/postulaciones/internal/web"
)

func main() {
	// Load .env file if it exists; variables already set in the environment win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	m := metrics.New()

	store := localfile.New(cfg.Storage.DataDir, localfile.WithSkipHook(m.RecordSkipped))
	sinks := []core.Sink{store}

	sheetsSink := newSheetsSink(ctx, cfg)
	if sheetsSink != nil {
		sinks = append(sinks, sheetsSink)
	}

	pool, dbSink := newDatabaseSink(ctx, cfg)
	if pool != nil {
		defer pool.Close()
		sinks = append(sinks, dbSink)
	}

	limiter := core.NewIntakeLimiter(cfg.Intake.MaxConcurrent, cfg.Intake.MaxWaitTime)
	intake, err := core.NewCoordinator(sinks,
		core.WithReader(store),
		core.WithLimiter(limiter),
		core.WithMetrics(m),
	)
	if err != nil {
		slog.Error("failed to create intake coordinator", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(intake, cfg, m)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := limiter.Status(); st.Active > 0 {
			slog.Info("waiting for submissions to finish", "active", st.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	banner(cfg, sheetsSink != nil, pool != nil)

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}

	// Start returns as soon as Shutdown begins; wait for the drain.
	<-done
	slog.Info("server stopped")
}

// newSheetsSink returns nil when the mirror is not configured or cannot be
// initialised. The service runs local-only in that case.
func newSheetsSink(ctx context.Context, cfg *config.Config) *sheets.Sink {
	if !cfg.Sheets.Configured() {
		slog.Warn("Google Sheets disabled: SPREADSHEET_ID not set; submissions are stored locally only")
		return nil
	}

	client, err := sheets.NewClientFromFile(ctx, cfg.Sheets.CredentialsPath)
	if err != nil {
		slog.Warn("Google Sheets disabled: could not initialise client; submissions are stored locally only",
			"credentials", cfg.Sheets.CredentialsPath,
			"error", err,
		)
		return nil
	}

	sink, err := sheets.NewSink(client, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range, cfg.Sheets.Timeout)
	if err != nil {
		slog.Warn("Google Sheets disabled", "error", err)
		return nil
	}

	slog.Info("Google Sheets enabled",
		"spreadsheet_id", cfg.Sheets.SpreadsheetID,
		"range", cfg.Sheets.Range,
		"service_account", client.ServiceAccount,
	)
	return sink
}

// newDatabaseSink connects the optional PostgreSQL sink. A configured but
// unreachable database is fatal: the operator asked for it explicitly.
func newDatabaseSink(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *postgres.Sink) {
	if !cfg.Database.Configured() {
		return nil, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	sink, err := postgres.NewSink(pool, cfg.Database.Timeout)
	if err != nil {
		pool.Close()
		slog.Error("failed to create database sink", "error", err)
		os.Exit(1)
	}
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		slog.Error("failed to prepare database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("connected to database", "database", poolConfig.ConnConfig.Database)
	return pool, sink
}

func banner(cfg *config.Config, sheetsEnabled, dbEnabled bool) {
	onOff := func(b bool) string {
		if b {
			return "habilitado"
		}
		return "deshabilitado"
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	slog.Info("Servidor de Postulaciones iniciado",
		"url", "http://"+net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)),
		"google_sheets", onOff(sheetsEnabled),
		"almacenamiento_local", onOff(true),
		"base_de_datos", onOff(dbEnabled),
		"data_dir", cfg.Storage.DataDir,
	)
}
