// Package validate executes the contract against a persisted candidate in an
// isolated interpreter and produces a structured verdict. Interpreting the
// candidate with yaegi instead of shelling out to the Go toolchain avoids
// compilation hangs and dependency resolution entirely; the trade-off is
// that candidates are restricted to an allowlisted slice of the standard
// library.
package validate

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
)

// ParseFunc is the contract entry-point signature a candidate must expose.
type ParseFunc func(path string) ([][]string, error)

// Executor loads candidate source into a fresh sandboxed interpreter per
// call. Nothing is shared between candidates, so concurrent targets cannot
// interfere with each other.
type Executor struct {
	allowedImports map[string]bool
}

// NewExecutor creates an executor with the default import allowlist: text
// and file processing only. No networking, no subprocesses, no unsafe.
func NewExecutor() *Executor {
	return &Executor{
		allowedImports: map[string]bool{
			"bufio":         true,
			"bytes":         true,
			"encoding/csv":  true,
			"errors":        true,
			"fmt":           true,
			"io":            true,
			"os":            true,
			"path/filepath": true,
			"regexp":        true,
			"sort":          true,
			"strconv":       true,
			"strings":       true,
			"time":          true,
			"unicode":       true,
		},
	}
}

var packageClauseRe = regexp.MustCompile(`(?m)^package\s+\w+`)

// Load evaluates candidate source under ctx and resolves the entry point.
// Package-level initialization runs during evaluation, so loading must be
// bounded too: a candidate whose init never returns would otherwise hang the
// run. An expired or canceled context stops the interpreter and surfaces
// ctx.Err(). Any other failure — syntax error, forbidden import, missing or
// mis-typed entry point — is a load error.
func (e *Executor) Load(ctx context.Context, source string) (ParseFunc, error) {
	source = normalizePackage(source)

	if err := e.checkImports(source); err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load interpreter stdlib: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, source); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("candidate failed to load: %w", err)
	}

	v, err := i.Eval("main." + contract.EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("entry point %s not found: %w", contract.EntryPoint, err)
	}

	fn, ok := v.Interface().(func(string) ([][]string, error))
	if !ok {
		return nil, fmt.Errorf("%s has the wrong signature (want func(string) ([][]string, error))", contract.EntryPoint)
	}
	return fn, nil
}

// Invoke runs the entry point against the sample document under the caller's
// context. Panics raised by interpreted code are converted to errors; a
// context deadline surfaces as ctx.Err() so the caller can classify it as a
// timeout. The attempt itself is not cancellable mid-flight — on timeout the
// goroutine is abandoned and its buffered channel collects the late result.
func (e *Executor) Invoke(ctx context.Context, fn ParseFunc, documentPath string) ([][]string, error) {
	type invokeResult struct {
		rows [][]string
		err  error
	}
	done := make(chan invokeResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeResult{err: fmt.Errorf("candidate panicked: %v", r)}
			}
		}()
		rows, err := fn(documentPath)
		done <- invokeResult{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		return res.rows, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// checkImports parses the candidate and rejects anything outside the
// allowlist before a single line is interpreted.
func (e *Executor) checkImports(source string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "candidate.go", source, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("candidate failed to parse: %w", err)
	}

	var forbidden []string
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if !e.allowedImports[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %s (allowed: %s)",
			strings.Join(forbidden, ", "), strings.Join(e.allowedList(), ", "))
	}
	return nil
}

func (e *Executor) allowedList() []string {
	pkgs := make([]string, 0, len(e.allowedImports))
	for pkg := range e.allowedImports {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// normalizePackage forces the candidate into package main so the entry point
// resolves at a fixed symbol regardless of what the generator named the
// package.
func normalizePackage(source string) string {
	if packageClauseRe.MatchString(source) {
		return packageClauseRe.ReplaceAllString(source, "package main")
	}
	return "package main\n\n" + source
}
