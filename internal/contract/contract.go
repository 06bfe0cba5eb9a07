// Package contract defines the quality bar every generated parser candidate
// must meet: the required entry-point shape, the fixed output schema, the
// normalization rules applied before comparison, and the verdict vocabulary
// shared by the generation loop and the standalone validator.
package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// EntryPoint is the function every candidate must expose.
// Signature: func Parse(path string) ([][]string, error)
// It receives the path to the target's sample document and returns data rows
// in document order, cells in FieldNames order.
const EntryPoint = "Parse"

// FieldNames is the fixed column set, in order. Candidates return cells in
// this order; the ground-truth CSV carries the same header.
var FieldNames = []string{"Date", "Description", "Debit Amt", "Credit Amt", "Balance"}

// amountFields marks which columns are compared numerically after
// canonicalization rather than as trimmed strings.
var amountFields = map[int]bool{2: true, 3: true, 4: true}

// Transaction is one statement row as stored in the ground-truth CSV.
type Transaction struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	DebitAmt    string `csv:"Debit Amt"`
	CreditAmt   string `csv:"Credit Amt"`
	Balance     string `csv:"Balance"`
}

// Row returns the transaction's cells in FieldNames order.
func (t Transaction) Row() []string {
	return []string{t.Date, t.Description, t.DebitAmt, t.CreditAmt, t.Balance}
}

// FromRow builds a Transaction from a candidate-produced row. Returns an
// error when the row has the wrong arity.
func FromRow(row []string) (Transaction, error) {
	if len(row) != len(FieldNames) {
		return Transaction{}, fmt.Errorf("expected %d fields, got %d", len(FieldNames), len(row))
	}
	return Transaction{
		Date:        row[0],
		Description: row[1],
		DebitAmt:    row[2],
		CreditAmt:   row[3],
		Balance:     row[4],
	}, nil
}

// LoadReference reads the ground-truth table for a target.
func LoadReference(path string) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	var rows []Transaction
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse reference table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference table %s has no data rows", path)
	}
	return rows, nil
}

// Header returns the CSV header the generator advertises to the backend.
func Header() string {
	return strings.Join(FieldNames, ",")
}
