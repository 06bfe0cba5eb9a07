// Package store persists the current parser candidate for each target at a
// deterministic location keyed by target name. Last write wins: only the
// latest attempt matters, so overwrites are silent.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CandidateHandle addresses a persisted candidate. It resolves back to the
// loadable source via Source().
type CandidateHandle struct {
	Target string
	Path   string
}

// Source reads the candidate's source text back from disk.
func (h CandidateHandle) Source() (string, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read candidate for target %q: %w", h.Target, err)
	}
	return string(data), nil
}

// Store writes parser candidates under a single directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a candidate store rooted at dir.
func New(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Write persists source as the current candidate for the target, replacing
// any prior candidate.
func (s *Store) Write(targetName, source string) (CandidateHandle, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return CandidateHandle{}, fmt.Errorf("failed to create parsers directory: %w", err)
	}

	h := s.Handle(targetName)
	if err := os.WriteFile(h.Path, []byte(source), 0o644); err != nil {
		return CandidateHandle{}, fmt.Errorf("failed to write candidate: %w", err)
	}

	s.logger.Debug("persisted candidate",
		zap.String("target", targetName),
		zap.String("path", h.Path),
		zap.Int("bytes", len(source)))
	return h, nil
}

// Handle returns the deterministic handle for a target, whether or not a
// candidate has been written yet.
func (s *Store) Handle(targetName string) CandidateHandle {
	return CandidateHandle{
		Target: targetName,
		Path:   filepath.Join(s.dir, fmt.Sprintf("%s_parser.go", targetName)),
	}
}

// Lookup returns the handle for a target if a candidate exists on disk.
func (s *Store) Lookup(targetName string) (CandidateHandle, error) {
	h := s.Handle(targetName)
	if _, err := os.Stat(h.Path); err != nil {
		return CandidateHandle{}, fmt.Errorf("no persisted candidate for target %q: %w", targetName, err)
	}
	return h, nil
}
