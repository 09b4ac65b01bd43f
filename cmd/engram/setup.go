package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/engram/internal/config"
	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/providers/llm"
	"github.com/sandevgo/engram/internal/service/assembler"
	"github.com/sandevgo/engram/internal/service/command"
	"github.com/sandevgo/engram/internal/service/memory"
	"github.com/sandevgo/engram/internal/service/pipeline"
	"github.com/sandevgo/engram/internal/storage/sqlite"
	"github.com/sandevgo/engram/internal/transport/cli"
	enghttp "github.com/sandevgo/engram/internal/transport/http"
	"github.com/sandevgo/engram/pkg/log"
	"github.com/sandevgo/engram/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Storage
	db, history, sessions, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. Model Provider
	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Memory engine and context assembler
	store := memory.NewStore()
	asm := assembler.New(appCfg.ContextTokenBudget)

	// 5. Turn pipeline
	p := pipeline.NewPipeline(store, history, sessions, provider, asm, llmCfg.GetModel())

	// 6. Transports
	router := command.New(command.NewCommands(store, history, sessions, provider))
	transports, err := initTransports(ctx, appCfg, p, router, store, history, sessions)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, core.HistoryRepository, core.SessionRepository, error) {
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, nil, err
	}
	return db, sqlite.NewHistory(db), sqlite.NewSessions(db), nil
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	p *pipeline.Pipeline,
	router core.CmdRouter,
	store *memory.Store,
	history core.HistoryRepository,
	sessions core.SessionRepository,
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.IsHTTPSelected() {
		httpCfg := config.NewHTTPConfig(ctx)
		services = append(services, enghttp.NewServer(httpCfg, p, store, history, sessions))
	}

	if cfg.IsCLISelected() {
		rl, err := cli.NewReadLine(p, router, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
