package validate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// csvParserSource is a well-formed candidate: it reads the sample document as
// CSV and drops the header row.
const csvParserSource = `package main

import (
	"encoding/csv"
	"os"
)

func Parse(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}
`

const sampleDocument = `Date,Description,Debit Amt,Credit Amt,Balance
01-08-2024,UPI QR Payment,1200,,8500.50
02-08-2024,Salary Credit NEFT,,50000,58500.50
`

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icici_sample.pdf")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))
	return path
}

func TestExecutor_LoadAndInvoke(t *testing.T) {
	exec := NewExecutor()

	fn, err := exec.Load(context.Background(), csvParserSource)
	require.NoError(t, err)

	rows, err := exec.Invoke(context.Background(), fn, writeDocument(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"01-08-2024", "UPI QR Payment", "1200", "", "8500.50"}, rows[0])
	assert.Equal(t, []string{"02-08-2024", "Salary Credit NEFT", "", "50000", "58500.50"}, rows[1])
}

func TestExecutor_RewritesPackageClause(t *testing.T) {
	exec := NewExecutor()

	renamed := "package parser" + csvParserSource[len("package main"):]
	fn, err := exec.Load(context.Background(), renamed)
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestExecutor_PrependsMissingPackageClause(t *testing.T) {
	exec := NewExecutor()

	fn, err := exec.Load(context.Background(), `func Parse(path string) ([][]string, error) {
	return [][]string{{"01-08-2024", "UPI QR Payment", "1200", "", "8500.50"}}, nil
}`)
	require.NoError(t, err)

	rows, err := exec.Invoke(context.Background(), fn, "unused")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestExecutor_RejectsForbiddenImport(t *testing.T) {
	exec := NewExecutor()

	_, err := exec.Load(context.Background(), `package main

import "net/http"

func Parse(path string) ([][]string, error) {
	_, err := http.Get("http://example.com")
	return nil, err
}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden imports")
	assert.Contains(t, err.Error(), "net/http")
}

func TestExecutor_RejectsSyntaxError(t *testing.T) {
	exec := NewExecutor()

	_, err := exec.Load(context.Background(), "package main\n\nfunc Parse(path string ([][]string, error) {")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestExecutor_MissingEntryPoint(t *testing.T) {
	exec := NewExecutor()

	_, err := exec.Load(context.Background(), `package main

func parseStatement(path string) ([][]string, error) { return nil, nil }
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point Parse not found")
}

func TestExecutor_WrongSignature(t *testing.T) {
	exec := NewExecutor()

	_, err := exec.Load(context.Background(), `package main

func Parse(path string) ([]string, error) { return nil, nil }
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong signature")
}

func TestExecutor_InvokeRecoversPanic(t *testing.T) {
	exec := NewExecutor()

	fn, err := exec.Load(context.Background(), `package main

func Parse(path string) ([][]string, error) {
	var rows [][]string
	return [][]string{rows[3]}, nil
}
`)
	require.NoError(t, err)

	_, err = exec.Invoke(context.Background(), fn, "unused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "candidate panicked")
}

func TestExecutor_LoadHonorsDeadline(t *testing.T) {
	exec := NewExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Package initialization is candidate code too; a spinning init must not
	// hang loading past the deadline.
	_, err := exec.Load(ctx, `package main

func init() {
	for {
	}
}

func Parse(path string) ([][]string, error) { return nil, nil }
`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExecutor_InvokeHonorsDeadline(t *testing.T) {
	exec := NewExecutor()

	fn, err := exec.Load(context.Background(), `package main

import "time"

func Parse(path string) ([][]string, error) {
	time.Sleep(30 * time.Second)
	return nil, nil
}
`)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = exec.Invoke(ctx, fn, "unused")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExecutor_InvokePropagatesCandidateError(t *testing.T) {
	exec := NewExecutor()

	fn, err := exec.Load(context.Background(), csvParserSource)
	require.NoError(t, err)

	_, err = exec.Invoke(context.Background(), fn, filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
