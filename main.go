package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/board"
	"github.com/robalobadob/boggle/internal/config"
	"github.com/robalobadob/boggle/internal/httpserver"
	"github.com/robalobadob/boggle/internal/registry"
	"github.com/robalobadob/boggle/internal/store"
	"github.com/robalobadob/boggle/internal/users"
	"github.com/robalobadob/boggle/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	dict, err := words.Load(cfg.DictionaryFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionary")
	}
	log.Info().Int("words", dict.Len()).Msg("dictionary loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}

	gen := board.NewGenerator()
	if cfg.BoardSeed != nil {
		gen = board.NewSeededGenerator(*cfg.BoardSeed)
		log.Warn().Int64("seed", *cfg.BoardSeed).Msg("boards are deterministic")
	}

	reg := registry.New(st, users.NewIssuer(cfg.TokenSecret), gen, dict)
	srv := httpserver.New(reg, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log.Logger,
	})

	go func() {
		<-ctx.Done()
		stop() // a second signal kills the process
		log.Info().Msg("shutting down")
	}()

	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting boggle server")
	runErr := srv.Run(ctx, ":"+cfg.Port, 10*time.Second)
	if err := st.Close(); err != nil {
		log.Error().Err(err).Msg("closing store")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverSQLite:
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
