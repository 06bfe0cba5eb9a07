// Package agent implements the bounded self-correction loop: generate a
// candidate, sanitize it, persist it, validate it against the contract, and
// feed the failure back into the next attempt until a verdict passes or the
// attempt budget runs out.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
	"github.com/shark4real/ai-agent-challenge/internal/generator"
	"github.com/shark4real/ai-agent-challenge/internal/sanitize"
	"github.com/shark4real/ai-agent-challenge/internal/store"
	"github.com/shark4real/ai-agent-challenge/internal/target"
	"github.com/shark4real/ai-agent-challenge/internal/validate"
)

// DefaultMaxAttempts bounds the generate/validate cycles per target.
const DefaultMaxAttempts = 3

// Stage identifies where in the loop a run is (or terminated).
type Stage int

const (
	StageIdle Stage = iota
	StageGenerating
	StageSanitizing
	StageValidating
	StageRetrying
	StageDoneSuccess
	StageDoneFailure
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageGenerating:
		return "generating"
	case StageSanitizing:
		return "sanitizing"
	case StageValidating:
		return "validating"
	case StageRetrying:
		return "retrying"
	case StageDoneSuccess:
		return "done(success)"
	case StageDoneFailure:
		return "done(failure)"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one run. On success the candidate handle
// points at the persisted, contract-passing parser; on failure the final
// attempt's category and diagnostic are carried for reporting.
type Result struct {
	RunID           string
	Target          string
	Success         bool
	Attempts        int
	Stage           Stage
	Candidate       store.CandidateHandle // valid only on success
	FinalCategory   contract.FailureCategory
	FinalDiagnostic string
	Duration        time.Duration
}

// Loop owns the attempt budget, feedback construction, and termination for
// one target at a time. Independent targets can run on separate Loop values
// (or the same one sequentially); candidates are keyed by target name so
// they never collide.
type Loop struct {
	gen         *generator.Generator
	store       *store.Store
	validator   *validate.Validator
	maxAttempts int
	logger      *zap.Logger
}

// New assembles a loop. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(gen *generator.Generator, st *store.Store, v *validate.Validator, maxAttempts int, logger *zap.Logger) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{gen: gen, store: st, validator: v, maxAttempts: maxAttempts, logger: logger}
}

// Run drives the loop for one target until a passing verdict or budget
// exhaustion. The returned error is reserved for environment failures
// (unwritable store, unreadable fixtures); everything about candidate
// quality — including backend failure — terminates through the Result.
//
// Attempt policy: a backend (generation) failure is fatal and consumes the
// attempt. The loop cannot tell bad code from bad infrastructure, so it does
// not retry on infra errors and never exceeds the budget under flaky
// network conditions.
func (l *Loop) Run(ctx context.Context, tgt *target.Target) (*Result, error) {
	result := &Result{
		RunID:  uuid.NewString(),
		Target: tgt.Name,
		Stage:  StageIdle,
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	header := contract.Header()
	var feedback *contract.FeedbackRecord

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		result.Attempts = attempt
		l.logger.Info("starting attempt",
			zap.String("run_id", result.RunID),
			zap.String("target", tgt.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", l.maxAttempts),
			zap.Bool("has_feedback", feedback != nil))

		result.Stage = StageGenerating
		req := generator.Request{TargetName: tgt.Name, Header: header, Feedback: feedback}
		feedback = nil // consumed by this request, never carried further

		raw, err := l.gen.Generate(ctx, req)
		if err != nil {
			var genErr *generator.Error
			if errors.As(err, &genErr) {
				l.logger.Error("backend failed, terminating run",
					zap.String("target", tgt.Name), zap.Error(err))
				result.Stage = StageDoneFailure
				result.FinalCategory = contract.CategoryGeneration
				result.FinalDiagnostic = err.Error()
				return result, nil
			}
			return nil, err
		}

		result.Stage = StageSanitizing
		source, err := sanitize.ExtractSource(raw)
		if err != nil {
			l.logger.Warn("unusable response, retrying",
				zap.String("target", tgt.Name), zap.Int("attempt", attempt), zap.Error(err))
			result.FinalCategory = contract.CategorySanitization
			result.FinalDiagnostic = err.Error()
			feedback = &contract.FeedbackRecord{
				Category:     contract.CategorySanitization,
				Diagnostic:   err.Error(),
				OutputSample: truncate(raw, 500),
			}
			result.Stage = StageRetrying
			continue
		}

		handle, err := l.store.Write(tgt.Name, source)
		if err != nil {
			return nil, err
		}

		result.Stage = StageValidating
		verdict, err := l.validator.Validate(ctx, handle, tgt)
		if err != nil {
			return nil, err
		}

		if verdict.Pass {
			l.logger.Info("candidate passed contract",
				zap.String("target", tgt.Name), zap.Int("attempt", attempt))
			result.Stage = StageDoneSuccess
			result.Success = true
			result.Candidate = handle
			result.FinalCategory = ""
			result.FinalDiagnostic = ""
			return result, nil
		}

		l.logger.Warn("candidate failed contract",
			zap.String("target", tgt.Name),
			zap.Int("attempt", attempt),
			zap.String("category", string(verdict.Category())),
			zap.String("diagnostic", verdict.Diagnostic()))
		result.FinalCategory = verdict.Category()
		result.FinalDiagnostic = verdict.Diagnostic()
		feedback = verdict.Feedback
		result.Stage = StageRetrying
	}

	l.logger.Error("attempt budget exhausted",
		zap.String("target", tgt.Name),
		zap.Int("attempts", result.Attempts),
		zap.String("final_category", string(result.FinalCategory)))
	result.Stage = StageDoneFailure
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
