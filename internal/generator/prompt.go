package generator

import (
	"fmt"
	"strings"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
)

const systemPrompt = `You are a Go code generator for a bank-statement parsing agent.
Generate clean, idiomatic Go code that follows these conventions:
- Use only the Go standard library
- Include proper error handling with error returns
- Do NOT use panic() - return errors instead
- Follow Go naming conventions

The code runs in a sandboxed interpreter. Only these imports are allowed:
bufio, bytes, encoding/csv, errors, fmt, io, os, path/filepath, regexp,
sort, strconv, strings, time, unicode.

Respond with code only. No explanations outside the code block.`

// BuildPrompt renders the system and user prompts for one generation
// attempt. Feedback from the prior failed attempt, when present, is appended
// so the backend can correct course.
func BuildPrompt(req Request) (system, user string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Write a Go bank statement parser for the bank %q.

Requirements:
- Declare: package main
- Define: func %s(path string) ([][]string, error)
- Read the statement document at path and extract every transaction row
- Return one []string per transaction with cells in this exact column order: %s
- Use "" for missing values (e.g. a row with no debit amount)
- Do not include the header row in the returned rows
`, req.TargetName, contract.EntryPoint, req.Header)

	if fb := req.Feedback; fb != nil {
		fmt.Fprintf(&sb, `
Your previous attempt failed. Do not repeat the same mistake.

--- FAILURE CATEGORY ---
%s

--- DIAGNOSTIC ---
%s
`, fb.Category, fb.Diagnostic)
		if fb.OutputSample != "" {
			fmt.Fprintf(&sb, `
--- OFFENDING OUTPUT ---
%s
`, fb.OutputSample)
		}
	}

	sb.WriteString("\nGenerate complete, compilable Go code:")
	return systemPrompt, sb.String()
}
