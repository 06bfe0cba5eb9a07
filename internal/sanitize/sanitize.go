// Package sanitize extracts executable source from a generator's free-form
// reply. Model replies wrap code in prose and markdown fences in no
// particular discipline, so extraction has to tolerate missing fences,
// multiple fenced blocks, and degenerate replies.
package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shark4real/ai-agent-challenge/internal/contract"
)

// ErrNoCode reports a reply with no extractable source. The loop converts it
// to a sanitization-failure verdict and retries with feedback instead of
// crashing.
var ErrNoCode = errors.New("no extractable source code in response")

// ExtractSource strips conversational prose and markdown fencing from a raw
// reply, returning only the code intended for execution.
//
// Selection rules:
//   - no fences: the whole reply is treated as code, provided it looks like
//     Go source;
//   - one fenced block: that block;
//   - multiple fenced blocks: the first block declaring the contract entry
//     point, falling back to the first block.
func ExtractSource(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrNoCode
	}

	blocks := fencedBlocks(trimmed)
	if len(blocks) == 0 {
		if !looksLikeSource(trimmed) {
			return "", fmt.Errorf("%w: response contains no code block and no %s declaration", ErrNoCode, contract.EntryPoint)
		}
		return trimmed, nil
	}

	for _, b := range blocks {
		if declaresEntryPoint(b) {
			return b, nil
		}
	}
	if looksLikeSource(blocks[0]) {
		return blocks[0], nil
	}
	return "", fmt.Errorf("%w: %d code block(s) found, none containing func %s", ErrNoCode, len(blocks), contract.EntryPoint)
}

// fencedBlocks returns the contents of every ``` fenced block, language tags
// stripped, empty blocks dropped.
func fencedBlocks(text string) []string {
	var blocks []string
	rest := text
	for {
		start := strings.Index(rest, "```")
		if start == -1 {
			break
		}
		rest = rest[start+3:]
		// Drop the language tag up to the first newline.
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			rest = rest[nl+1:]
		} else {
			break
		}
		end := strings.Index(rest, "```")
		if end == -1 {
			// Unterminated fence: take everything after it.
			if body := strings.TrimSpace(rest); body != "" {
				blocks = append(blocks, body)
			}
			break
		}
		if body := strings.TrimSpace(rest[:end]); body != "" {
			blocks = append(blocks, body)
		}
		rest = rest[end+3:]
	}
	return blocks
}

func declaresEntryPoint(code string) bool {
	return strings.Contains(code, "func "+contract.EntryPoint+"(")
}

// looksLikeSource is a cheap plausibility check for unfenced replies: real
// candidates carry either a package clause or the entry-point declaration.
func looksLikeSource(text string) bool {
	return strings.Contains(text, "package ") || declaresEntryPoint(text)
}
