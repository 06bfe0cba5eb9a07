// Package target resolves a bank name into its fixture pair: the sample
// source document and the ground-truth reference table. A target is immutable
// for the duration of a run.
package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Target identifies one bank/source format and the artifacts that define its
// parsing task.
type Target struct {
	Name          string // lowercase bank identifier, e.g. "icici"
	Dir           string // data directory for this target
	DocumentPath  string // sample statement to parse
	ReferencePath string // ground-truth CSV
}

// Resolve locates the fixtures for a named target under dataDir, following
// the data/<name>/<name>_sample.{pdf,csv} layout. Both files must exist.
func Resolve(dataDir, name string) (*Target, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("target name is required")
	}

	dir := filepath.Join(dataDir, name)
	t := &Target{
		Name:          name,
		Dir:           dir,
		DocumentPath:  filepath.Join(dir, name+"_sample.pdf"),
		ReferencePath: filepath.Join(dir, name+"_sample.csv"),
	}

	if _, err := os.Stat(t.DocumentPath); err != nil {
		return nil, fmt.Errorf("missing sample document for target %q: %w", name, err)
	}
	if _, err := os.Stat(t.ReferencePath); err != nil {
		return nil, fmt.Errorf("missing reference table for target %q: %w", name, err)
	}
	return t, nil
}

// List returns the names of every target that has a data directory, in
// lexical order. Directories missing either fixture are skipped.
func List(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dataDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := Resolve(dataDir, e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
