// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists accumulated knowledge points and builds a
// retrieval index over them.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/bookdigest/pkg/types"
)

const (
	// knowledgeBasesDir is the subdirectory under the base for persisted
	// knowledge files.
	knowledgeBasesDir = "knowledge_bases"

	knowledgeSuffix = "_knowledge.json"
)

// LoadStatus classifies the outcome of loading a persisted knowledge file.
type LoadStatus int

const (
	// Loaded means the file existed and parsed.
	Loaded LoadStatus = iota

	// Absent means no file existed at the path.
	Absent

	// Corrupt means the file existed but could not be read or parsed.
	// The caller decides whether that aborts the run or resets the base.
	Corrupt
)

// LoadResult is the tagged outcome of Load.
type LoadResult struct {
	Status LoadStatus
	Base   types.KnowledgeBase

	// Err holds the read or parse failure when Status is Corrupt.
	Err error
}

// DocBase strips the extension from a document filename:
// "meditations.pdf" becomes "meditations".
func DocBase(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// FilePath returns the knowledge file path for a document:
// <baseDir>/knowledge_bases/<base>_knowledge.json.
func FilePath(baseDir, docName string) string {
	return filepath.Join(baseDir, knowledgeBasesDir, DocBase(docName)+knowledgeSuffix)
}

// Load reads a persisted knowledge file. It never returns an error:
// absence and corruption are reported through the tagged result.
func Load(path string) LoadResult {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{Status: Absent}
		}
		return LoadResult{Status: Corrupt, Err: fmt.Errorf("reading knowledge file %s: %w", path, err)}
	}

	var base types.KnowledgeBase
	if err := json.Unmarshal(data, &base); err != nil {
		return LoadResult{Status: Corrupt, Err: fmt.Errorf("parsing knowledge file %s: %w", path, err)}
	}

	return LoadResult{Status: Loaded, Base: base}
}

// Append returns a new sequence with items concatenated onto points. The
// input slice is not modified; no deduplication or validation happens.
func Append(points []string, items ...string) []string {
	out := make([]string, 0, len(points)+len(items))
	out = append(out, points...)
	out = append(out, items...)
	return out
}

// Persist serializes {"knowledge": [...]} and overwrites the target file
// unconditionally. Each call fully supersedes the prior file contents.
func Persist(path string, points []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating knowledge directory: %w", err)
	}

	base := types.KnowledgeBase{Knowledge: points}
	if base.Knowledge == nil {
		base.Knowledge = []string{}
	}

	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling knowledge base: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
