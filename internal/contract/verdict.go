package contract

// FailureCategory classifies why a candidate (or the stage that produced it)
// failed. Every category except generation failure is retryable; the category
// travels forward in the FeedbackRecord so the next generation attempt can
// adjust strategy.
type FailureCategory string

const (
	// CategoryGeneration marks a backend infrastructure error. Fatal to the
	// run: the loop cannot distinguish bad code from bad infra, so it does
	// not retry and the attempt is consumed.
	CategoryGeneration FailureCategory = "generation_failure"

	// CategorySanitization marks a reply with no extractable source code.
	CategorySanitization FailureCategory = "sanitization_failure"

	// CategoryLoad marks a candidate that fails to load: syntax error,
	// forbidden import, or missing entry point.
	CategoryLoad FailureCategory = "load_error"

	// CategoryExecution marks a runtime error raised while parsing the
	// sample document.
	CategoryExecution FailureCategory = "execution_error"

	// CategoryTimeout marks a validation run that exceeded its time budget.
	// Kept distinct from execution errors: it usually means runaway logic,
	// not a plain exception.
	CategoryTimeout FailureCategory = "timeout"

	// CategoryOutputMismatch marks structurally valid output that differs
	// from the ground truth after normalization.
	CategoryOutputMismatch FailureCategory = "output_mismatch"
)

// FeedbackRecord carries one failed attempt's diagnosis into the next
// generation request. It is consumed once and then discarded; the loop never
// accumulates history beyond the most recent record.
type FeedbackRecord struct {
	Category     FailureCategory
	Diagnostic   string
	OutputSample string // offending output, when there is one
}

// Verdict is the result of validating one candidate.
type Verdict struct {
	Pass     bool
	Feedback *FeedbackRecord // nil on pass
}

// Category returns the failure category, or "" for a passing verdict.
func (v Verdict) Category() FailureCategory {
	if v.Feedback == nil {
		return ""
	}
	return v.Feedback.Category
}

// Diagnostic returns the failure detail, or "" for a passing verdict.
func (v Verdict) Diagnostic() string {
	if v.Feedback == nil {
		return ""
	}
	return v.Feedback.Diagnostic
}

// Passed builds a passing verdict.
func Passed() Verdict {
	return Verdict{Pass: true}
}

// Failed builds a failing verdict with the attached feedback record.
func Failed(category FailureCategory, diagnostic, sample string) Verdict {
	return Verdict{
		Pass: false,
		Feedback: &FeedbackRecord{
			Category:     category,
			Diagnostic:   diagnostic,
			OutputSample: sample,
		},
	}
}
