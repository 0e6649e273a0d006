package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/tgaskin/cardvault/internal/api"
	"github.com/tgaskin/cardvault/internal/config"
	"github.com/tgaskin/cardvault/internal/database"
	"github.com/tgaskin/cardvault/internal/scrydex"
	"github.com/tgaskin/cardvault/internal/syncer"
	"github.com/valyala/fasthttp"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("configuration error")
	}

	logger := newLogger(cfg)

	db, err := database.New(context.Background(), cfg.ConnString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.CreateTables(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to create tables")
	}

	client := scrydex.NewClient(cfg.ScrydexBaseURL, cfg.ScrydexAPIKey, cfg.ScrydexTeamID, logger)

	trigger := func(ctx context.Context, kind syncer.Kind) error {
		pipeline := syncer.NewPipeline(syncer.ConfigForKind(kind), client, db, logger)
		return pipeline.Run(ctx)
	}

	handler := api.NewHandler(db, trigger, logger)

	logger.Info().Str("port", cfg.Port).Msg("starting API server")
	if err := fasthttp.ListenAndServe(":"+cfg.Port, handler.HandleRequest); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.JSONLogs {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
