package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/engram/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"ENGRAM_RUNTIME_PATH" envDefault:".engram"`
	// Allow selecting the provider
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openrouter"`

	// Transport Flags
	EnableHTTP bool `env:"ENABLE_HTTP" envDefault:"true"`
	EnableCLI  bool `env:"ENABLE_CLI" envDefault:"false"`

	// Context Management
	ContextTokenBudget int `env:"CONTEXT_TOKEN_BUDGET" envDefault:"0"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "engram.db")
}

func (c AppConfig) IsHTTPSelected() bool {
	return c.EnableHTTP
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
