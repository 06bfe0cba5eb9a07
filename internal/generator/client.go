// Package generator abstracts the code-writing backends behind a single
// capability: given a task description and optional prior-failure feedback,
// produce candidate source text. The loop never branches on which provider
// is active; provider selection is configuration.
package generator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
)

// Client is the minimal interface a generative backend must offer.
type Client interface {
	// Name identifies the provider for logs and diagnostics.
	Name() string
	// CompleteWithSystem sends a system + user prompt pair and returns the
	// free-form reply text.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Request carries everything one generation attempt needs. Stateless;
// constructed fresh each iteration.
type Request struct {
	TargetName string
	Header     string // CSV header of the ground-truth table
	Feedback   *contract.FeedbackRecord
}

// Error wraps a backend failure so the loop can tell infrastructure errors
// apart from validation failures. Policy: a backend error is fatal to the
// run and consumes the attempt; the loop cannot tell bad code from bad infra
// without extra signal.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation failed (provider %s): %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Generator drives one backend with a per-call timeout so a hung request
// cannot stall a target indefinitely.
type Generator struct {
	client  Client
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a Generator around a backend client.
func New(client Client, timeout time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Generator{client: client, timeout: timeout, logger: logger}
}

// Generate produces raw candidate text for the request. Backend errors are
// returned as *Error.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	system, user := BuildPrompt(req)
	g.logger.Debug("requesting candidate",
		zap.String("provider", g.client.Name()),
		zap.String("target", req.TargetName),
		zap.Bool("has_feedback", req.Feedback != nil))

	raw, err := g.client.CompleteWithSystem(callCtx, system, user)
	if err != nil {
		return "", &Error{Provider: g.client.Name(), Err: err}
	}
	g.logger.Debug("received candidate text",
		zap.String("provider", g.client.Name()),
		zap.Int("bytes", len(raw)))
	return raw, nil
}
