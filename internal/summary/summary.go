// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary synthesizes markdown summaries from accumulated
// knowledge points and writes them as timestamped artifacts.
package summary

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/bookdigest/internal/completion"
	"github.com/pdiddy/bookdigest/internal/knowledge"
	"github.com/pdiddy/bookdigest/pkg/types"
)

// summariesDir is the subdirectory under the base for summary artifacts.
const summariesDir = "summaries"

// systemPrompt instructs the model to produce a markdown summary and
// nothing else.
const systemPrompt = `Create a comprehensive summary of the provided content in a concise but detailed way, using markdown format.

Use markdown formatting:
- ## for main sections
- ### for subsections
- Bullet points for lists
- ` + "`code blocks`" + ` for any code or formulas
- **bold** for emphasis
- *italic* for terminology
- > blockquotes for important notes

Return only the markdown summary, nothing else. Do not say 'here is the summary' or anything like that before or after.`

// now is the clock used for artifact naming. Tests override this for
// deterministic filenames.
var now = time.Now

// Emitter generates and saves summaries for one document.
type Emitter struct {
	Client completion.Client
	Model  string

	// BaseDir is the artifact working directory (contains summaries/).
	BaseDir string

	// DocName is the source document filename used in artifact names.
	DocName string

	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Summarize asks the completion endpoint for a markdown summary of the
// accumulated knowledge. An empty knowledge base short-circuits to an
// empty summary without calling the endpoint.
func (e *Emitter) Summarize(ctx context.Context, points []string) (string, error) {
	if len(points) == 0 {
		fmt.Fprintln(e.out(), "skipping summary: no knowledge points collected")
		return "", nil
	}

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: systemPrompt},
		{Role: completion.RoleUser, Content: "Analyze this content:\n" + strings.Join(points, "\n")},
	}

	res, err := e.Client.Complete(ctx, e.Model, messages)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	if res.Content == nil {
		return "", nil
	}
	return *res.Content, nil
}

// Save writes the summary as a markdown artifact named
// <base>_<kind>_<millis>.md and returns the path. An empty summary is a
// no-op. Artifacts are write-once; they are never updated after creation.
func (e *Emitter) Save(summary string, kind types.SummaryKind) (string, error) {
	if summary == "" {
		fmt.Fprintln(e.out(), "skipping summary save: no content to save")
		return "", nil
	}

	dir := filepath.Join(e.BaseDir, summariesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating summaries directory: %w", err)
	}

	ts := now()
	name := fmt.Sprintf("%s_%s_%d.md", knowledge.DocBase(e.DocName), kind, ts.UnixMilli())
	path := filepath.Join(dir, name)

	content := fmt.Sprintf(`# Book Analysis: %s
Generated on: %s

%s

---
*Analysis generated by bookdigest*
`, e.DocName, ts.UTC().Format(time.RFC3339), summary)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing summary artifact: %w", err)
	}

	fmt.Fprintf(e.out(), "saved %s summary: %s\n", kind, path)
	return path, nil
}

func (e *Emitter) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return io.Discard
}
