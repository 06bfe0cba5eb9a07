package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
	"github.com/shark4real/ai-agent-challenge/internal/store"
	"github.com/shark4real/ai-agent-challenge/internal/target"
)

// sampleRowLimit caps the offending-output excerpt carried in feedback.
const sampleRowLimit = 5

// Validator executes the contract against a candidate and returns a verdict.
// It is deterministic for a fixed candidate and fixture pair, so re-running
// it outside the loop reproduces exactly what the loop observed.
type Validator struct {
	exec    *Executor
	timeout time.Duration
	logger  *zap.Logger
}

// NewValidator builds a validator with the given per-candidate time budget.
func NewValidator(timeout time.Duration, logger *zap.Logger) *Validator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{exec: NewExecutor(), timeout: timeout, logger: logger}
}

// Validate loads the candidate, runs it against the target's sample document
// under the time budget, and compares the output to the ground truth after
// normalization. Candidate failures come back inside the Verdict; the error
// return is reserved for environment problems (unreadable fixtures) that say
// nothing about the candidate.
func (v *Validator) Validate(ctx context.Context, handle store.CandidateHandle, tgt *target.Target) (contract.Verdict, error) {
	reference, err := contract.LoadReference(tgt.ReferencePath)
	if err != nil {
		return contract.Verdict{}, err
	}

	source, err := handle.Source()
	if err != nil {
		return contract.Verdict{}, err
	}

	// One budget covers loading and execution: package-level initialization
	// is candidate code too and must not escape the time budget.
	runCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	fn, err := v.exec.Load(runCtx, source)
	if err != nil {
		if ctx.Err() != nil {
			return contract.Verdict{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			diag := fmt.Sprintf("validation exceeded the %s time budget; check for unbounded loops", v.timeout)
			v.logger.Debug("candidate load timed out", zap.String("target", tgt.Name))
			return contract.Failed(contract.CategoryTimeout, diag, ""), nil
		}
		v.logger.Debug("candidate failed to load", zap.String("target", tgt.Name), zap.Error(err))
		return contract.Failed(contract.CategoryLoad, err.Error(), ""), nil
	}

	rows, runErr := v.exec.Invoke(runCtx, fn, tgt.DocumentPath)
	if runErr != nil {
		// A done parent context means the caller gave up on the run, not
		// that the candidate misbehaved; report it as an environment error.
		if ctx.Err() != nil {
			return contract.Verdict{}, ctx.Err()
		}
		if errors.Is(runErr, context.DeadlineExceeded) {
			diag := fmt.Sprintf("validation exceeded the %s time budget; check for unbounded loops", v.timeout)
			v.logger.Debug("candidate timed out", zap.String("target", tgt.Name))
			return contract.Failed(contract.CategoryTimeout, diag, ""), nil
		}
		v.logger.Debug("candidate raised an error", zap.String("target", tgt.Name), zap.Error(runErr))
		return contract.Failed(contract.CategoryExecution, runErr.Error(), ""), nil
	}

	result := contract.CompareRows(reference, rows)
	if !result.Equal {
		v.logger.Debug("candidate output mismatch",
			zap.String("target", tgt.Name),
			zap.Int("expected_rows", result.ExpectedRows),
			zap.Int("actual_rows", result.ActualRows),
			zap.Int("differing_cells", len(result.Diffs)))
		return contract.Failed(contract.CategoryOutputMismatch, result.Summary(), renderSample(rows)), nil
	}

	v.logger.Debug("candidate passed", zap.String("target", tgt.Name), zap.Int("rows", len(rows)))
	return contract.Passed(), nil
}

// renderSample formats the first rows of candidate output for the feedback
// record.
func renderSample(rows [][]string) string {
	if len(rows) == 0 {
		return "(no rows)"
	}
	n := len(rows)
	if n > sampleRowLimit {
		n = sampleRowLimit
	}
	lines := make([]string, 0, n)
	for _, row := range rows[:n] {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}
