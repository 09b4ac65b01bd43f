// Package cli runs an interactive readline chat loop against the local
// pipeline. Useful for poking at the memory engine without an HTTP client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/engram/internal/config"
	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/internal/service/pipeline"
	"github.com/sandevgo/engram/pkg/log"
)

const localUserID = "cli-local"

type ReadLine struct {
	cfg      *config.AppConfig
	pipeline *pipeline.Pipeline
	router   core.CmdRouter
	rl       *readline.Instance
}

func NewReadLine(p *pipeline.Pipeline, router core.CmdRouter, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.GetRuntimePath(), "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:      cfg,
		pipeline: p,
		router:   router,
		rl:       rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit, /help for commands.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		if out, handled := r.router.Execute(ctx, localUserID, line); handled {
			fmt.Fprint(r.rl.Stdout(), out)
			continue
		}

		resp, err := r.pipeline.Run(ctx, core.TurnRequest{
			UserID: localUserID,
			Mode:   core.ModeChat,
			Messages: []core.Message{
				{Role: core.RoleUser, Content: line},
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("turn failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(r.rl.Stdout(), "%s\n", resp.Reply)
		if !resp.Verification.Passed {
			for _, e := range resp.Verification.Errors {
				fmt.Fprintf(r.rl.Stdout(), "[verification] %s\n", e)
			}
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
