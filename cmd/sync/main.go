package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/tgaskin/cardvault/internal/config"
	"github.com/tgaskin/cardvault/internal/database"
	"github.com/tgaskin/cardvault/internal/scrydex"
	"github.com/tgaskin/cardvault/internal/syncer"
)

type cmdFlags struct {
	kind      string
	maxPages  int
	pageSize  int
	batchSize int
	delayMs   int
	resume    bool
	jsonLogs  bool
}

func initCmdFlags() *cmdFlags {
	var flags cmdFlags
	pflag.StringVarP(&flags.kind, "kind", "k", "full", "Sync kind: full, pricing, comprehensive, or test")
	pflag.IntVarP(&flags.maxPages, "max-pages", "m", 0, "Stop after this many pages (0 = kind default)")
	pflag.IntVarP(&flags.pageSize, "page-size", "p", 0, "Records per page (0 = kind default)")
	pflag.IntVarP(&flags.batchSize, "batch-size", "b", 0, "Records per upsert chunk (0 = kind default)")
	pflag.IntVarP(&flags.delayMs, "delay-ms", "d", -1, "Delay between pages in milliseconds (-1 = kind default)")
	pflag.BoolVarP(&flags.resume, "resume", "r", false, "Resume from the estimated last position")
	pflag.BoolVarP(&flags.jsonLogs, "json-logs", "j", false, "Emit JSON log lines")
	pflag.Parse()
	return &flags
}

func main() {
	flags := initCmdFlags()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("configuration error")
	}

	logger := newLogger(flags.jsonLogs || cfg.JSONLogs)

	kind, err := syncer.ParseKind(flags.kind)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid sync kind")
	}

	pipelineCfg := syncer.ConfigForKind(kind)
	if flags.maxPages > 0 {
		pipelineCfg.MaxPages = flags.maxPages
	}
	if flags.pageSize > 0 {
		pipelineCfg.PageSize = flags.pageSize
	}
	if flags.batchSize > 0 {
		pipelineCfg.BatchSize = flags.batchSize
	}
	if flags.delayMs >= 0 {
		pipelineCfg.PageDelay = time.Duration(flags.delayMs) * time.Millisecond
	}
	if flags.resume {
		pipelineCfg.Resume = true
	}

	// A run can be stopped between pages; in-flight page work finishes
	// before the walker sees the cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Fatal and os.Exit skip deferred calls, so the pool is closed
	// explicitly on every path out.
	if err := db.CreateTables(ctx); err != nil {
		db.Close()
		logger.Fatal().Err(err).Msg("failed to create tables")
	}

	client := scrydex.NewClient(cfg.ScrydexBaseURL, cfg.ScrydexAPIKey, cfg.ScrydexTeamID, logger)

	pipeline := syncer.NewPipeline(pipelineCfg, client, db, logger)
	err = pipeline.Run(ctx)
	db.Close()
	if err != nil {
		logger.Error().Err(err).Str("kind", string(kind)).Msg("sync run failed")
		os.Exit(1)
	}
}

func newLogger(jsonLogs bool) zerolog.Logger {
	if jsonLogs {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
