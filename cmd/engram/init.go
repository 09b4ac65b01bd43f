package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/engram/internal/config"
	"github.com/sandevgo/engram/pkg/env"
	"github.com/sandevgo/engram/pkg/log"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:           "init",
	Short:         "Create the runtime directory and a starter .env",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Setup logger
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}

		envPath := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			logger.Info().Str("path", envPath).Msg(".env already exists, leaving it untouched")
			return nil
		}

		content, err := starterEnv()
		if err != nil {
			return err
		}

		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write .env: %w", err)
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Edit the .env with your provider key, then run 'engram serve'.")
		return nil
	},
}

// starterEnv renders the default configuration as .env content.
func starterEnv() (string, error) {
	app := &config.AppConfig{
		LLMProvider: "openrouter",
		EnableHTTP:  true,
	}
	llm := &config.LLMConfig{
		Provider: "openrouter",
		Model:    "google/gemma-3-27b-it:free",
	}
	http := &config.HTTPConfig{
		Addr: ":8080",
	}

	var content string
	for _, c := range []any{app, llm, http} {
		part, err := env.MarshalEnv(c)
		if err != nil {
			return "", fmt.Errorf("failed to marshal config: %w", err)
		}
		content += part
	}
	return content, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
