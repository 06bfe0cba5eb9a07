package contract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxReportedDiffs bounds the row-level diff summary fed back to the
// generator. Enough to show the pattern without blowing up the prompt.
const maxReportedDiffs = 5

// RowDiff records one normalized cell mismatch.
type RowDiff struct {
	Row      int // zero-based data row index
	Field    string
	Expected string
	Actual   string
}

// ComparisonResult is the outcome of comparing candidate output against the
// ground truth after normalization.
type ComparisonResult struct {
	Equal        bool
	ExpectedRows int
	ActualRows   int
	Diffs        []RowDiff
}

// CompareRows checks candidate rows against the reference table,
// field-for-field after normalization. Malformed rows (wrong arity) are
// reported as diffs on every expected field of that row.
func CompareRows(reference []Transaction, rows [][]string) ComparisonResult {
	result := ComparisonResult{
		ExpectedRows: len(reference),
		ActualRows:   len(rows),
	}

	n := len(reference)
	if len(rows) < n {
		n = len(rows)
	}

	for i := 0; i < n; i++ {
		want := reference[i].Row()
		got := rows[i]
		if len(got) != len(FieldNames) {
			result.Diffs = append(result.Diffs, RowDiff{
				Row:      i,
				Field:    "(row)",
				Expected: fmt.Sprintf("%d fields", len(FieldNames)),
				Actual:   fmt.Sprintf("%d fields", len(got)),
			})
			continue
		}
		for col := range FieldNames {
			if !cellsEqual(col, want[col], got[col]) {
				result.Diffs = append(result.Diffs, RowDiff{
					Row:      i,
					Field:    FieldNames[col],
					Expected: want[col],
					Actual:   got[col],
				})
			}
		}
	}

	result.Equal = len(result.Diffs) == 0 && result.ExpectedRows == result.ActualRows
	return result
}

// Summary renders a human-readable diff for the feedback record: row count
// mismatch first, then the first few differing cells.
func (r ComparisonResult) Summary() string {
	if r.Equal {
		return "output matches reference"
	}

	var sb strings.Builder
	if r.ExpectedRows != r.ActualRows {
		fmt.Fprintf(&sb, "row count mismatch: expected %d rows, got %d\n", r.ExpectedRows, r.ActualRows)
	}
	shown := 0
	for _, d := range r.Diffs {
		if shown == maxReportedDiffs {
			fmt.Fprintf(&sb, "... and %d more differing cells\n", len(r.Diffs)-shown)
			break
		}
		fmt.Fprintf(&sb, "row %d field %q: expected %q, got %q\n", d.Row, d.Field, d.Expected, d.Actual)
		shown++
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// cellsEqual applies the contract's normalization before comparing a single
// cell. Amount columns are compared as canonical decimals so "1,200.00" and
// "1200" agree; everything else is compared after whitespace normalization.
func cellsEqual(col int, want, got string) bool {
	if amountFields[col] {
		return canonicalAmount(want) == canonicalAmount(got)
	}
	return normalizeText(want) == normalizeText(got)
}

// normalizeText trims and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// canonicalAmount reduces an amount cell to a canonical decimal string.
// Empty cells stay empty (missing debit/credit is meaningful). Values that
// do not parse as numbers fall back to whitespace-normalized text so the
// mismatch still surfaces with the original formatting.
func canonicalAmount(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	cleaned := strings.NewReplacer(",", "", "₹", "", "$", "", " ", "").Replace(t)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return normalizeText(s)
	}
	return d.String()
}
