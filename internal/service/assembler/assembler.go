// Package assembler compresses an unbounded turn history into a bounded
// prompt context. The first turns of a conversation are locked in regardless
// of history length, so the original intent is never silently dropped.
package assembler

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/engram/internal/core"
	"github.com/sandevgo/engram/pkg/log"
)

const (
	genesisSize    = 5
	workingWindow  = 40
	dedupPrefixLen = 50

	noContextSentinel = "No prior context."

	compressionMarker = "[SYSTEM]: [earlier conversation compressed]"
)

type Assembler struct {
	// MaxTokens bounds the rendered context. Zero means unlimited. Trimming
	// removes working-window turns oldest first; the genesis set is never
	// trimmed.
	maxTokens int
	enc       *tiktoken.Tiktoken
}

func New(maxTokens int) *Assembler {
	a := &Assembler{maxTokens: maxTokens}
	// The encoder needs its BPE ranks available; without them token
	// accounting is skipped and the turn-count bounds still apply.
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		a.enc = enc
	}
	return a
}

// Assemble renders the bounded context block for a full oldest-first history.
func (a *Assembler) Assemble(ctx context.Context, history []core.Message) string {
	logger := log.FromCtx(ctx)

	if len(history) == 0 {
		return noContextSentinel
	}

	genesis := history
	if len(genesis) > genesisSize {
		genesis = genesis[:genesisSize]
	}

	window := history
	if len(window) > workingWindow {
		window = window[len(window)-workingWindow:]
	}

	// Genesis and window overlap whenever the history is short enough;
	// dedup by content prefix so no turn renders twice.
	seen := make(map[uint32]struct{}, genesisSize+workingWindow)
	lines := make([]string, 0, genesisSize+workingWindow+1)

	for _, msg := range genesis {
		key := prefixHash(msg.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		lines = append(lines, renderLine(msg))
	}

	if len(history) > genesisSize {
		lines = append(lines, compressionMarker)
	}

	windowLines := make([]string, 0, len(window))
	for _, msg := range window {
		key := prefixHash(msg.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		windowLines = append(windowLines, renderLine(msg))
	}

	windowLines, trimmed := a.fitBudget(lines, windowLines)
	block := strings.Join(append(lines, windowLines...), "\n\n")

	if a.enc != nil {
		ev := logger.Debug().
			Int("turns", len(history)).
			Int("tokens", len(a.enc.Encode(block, nil, nil)))
		if trimmed > 0 {
			ev = ev.Int("trimmed", trimmed)
		}
		ev.Msg("assembled context")
	}
	return block
}

// fitBudget drops working-window lines oldest first until the rendered block
// fits MaxTokens. Genesis lines are untouchable. Reports how many lines were
// dropped.
func (a *Assembler) fitBudget(genesis, window []string) ([]string, int) {
	if a.maxTokens <= 0 || a.enc == nil {
		return window, 0
	}

	trimmed := 0
	for len(window) > 0 {
		block := strings.Join(append(genesis[:len(genesis):len(genesis)], window...), "\n\n")
		if len(a.enc.Encode(block, nil, nil)) <= a.maxTokens {
			break
		}
		window = window[1:]
		trimmed++
	}
	return window, trimmed
}

func renderLine(msg core.Message) string {
	role := msg.Role
	if role == "" {
		role = core.RoleSystem
	}
	return fmt.Sprintf("[%s]: %s", strings.ToUpper(role), msg.Content)
}

// prefixHash hashes the first dedupPrefixLen characters of content so the
// same turn appearing in both the genesis set and the working window is
// rendered once.
func prefixHash(content string) uint32 {
	runes := []rune(content)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	h := fnv.New32a()
	h.Write([]byte(string(runes)))
	return h.Sum32()
}
