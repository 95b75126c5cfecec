// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the sequential page-by-page analysis of a
// document: page text in, completion call, knowledge accumulation,
// persistence, and summary triggering.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/bookdigest/internal/completion"
	"github.com/pdiddy/bookdigest/internal/knowledge"
	"github.com/pdiddy/bookdigest/pkg/types"
)

// pageSystemPrompt is the static instruction sent with every page.
const pageSystemPrompt = `Analyze this page as if you're studying from a book.

SKIP content if the page contains:
- Table of contents
- Chapter listings
- Index pages
- Blank pages
- Copyright information
- Publishing details
- References or bibliography
- Acknowledgments

DO extract knowledge if the page contains:
- Preface content that explains important concepts
- Actual educational content
- Key definitions and concepts
- Important arguments or theories
- Examples and case studies
- Significant findings or conclusions
- Methodologies or frameworks
- Critical analyses or interpretations

For valid content, respond with a single detailed, learnable knowledge
point capturing the page's key statements, examples, and definitions.
For pages to skip, respond with nothing.`

// PageSource provides per-page text for a document. Page numbers are
// 1-based.
type PageSource interface {
	PageCount() int
	PageText(num int) (string, error)
}

// Summarizer produces and persists summary artifacts. Implemented by
// summary.Emitter; tests supply a recorder.
type Summarizer interface {
	Summarize(ctx context.Context, points []string) (string, error)
	Save(summary string, kind types.SummaryKind) (string, error)
}

// Analyzer runs the page pipeline for one document.
type Analyzer struct {
	Client  completion.Client
	Emitter Summarizer
	Config  types.AnalysisConfig

	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Run processes pages strictly in order: one page is fully handled
// (request, accumulate, persist, summaries) before the next begins. Any
// completion failure aborts the run; knowledge persisted for earlier
// pages remains on disk.
func (a *Analyzer) Run(ctx context.Context, source PageSource, docName string) error {
	kbPath := knowledge.FilePath(a.Config.BaseDir, docName)
	points, err := a.loadBase(kbPath)
	if err != nil {
		return err
	}

	total := source.PageCount()
	if a.Config.MaxPages > 0 && a.Config.MaxPages < total {
		total = a.Config.MaxPages
	}

	fmt.Fprintf(a.out(), "processing %d pages of %s\n", total, docName)

	for page := 0; page < total; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text, err := source.PageText(page + 1)
		if err != nil {
			return fmt.Errorf("reading page %d: %w", page+1, err)
		}

		result, err := a.processPage(ctx, text, page)
		if err != nil {
			return fmt.Errorf("analyzing page %d: %w", page+1, err)
		}

		if result.HasContent {
			points = knowledge.Append(points, result.Knowledge)
			fmt.Fprintf(a.out(), "page %d: knowledge point added (%d total)\n", page+1, len(points))
		} else {
			fmt.Fprintf(a.out(), "page %d: skipped (no relevant content)\n", page+1)
		}

		if err := knowledge.Persist(kbPath, points); err != nil {
			return fmt.Errorf("persisting knowledge base: %w", err)
		}

		// Both boundary checks compare the next page index (page+1)
		// against the total, so an interval boundary landing on the last
		// page yields only the final summary.
		if interval := a.Config.SummaryInterval; interval > 0 {
			if (page+1)%interval == 0 && page+1 != total {
				fmt.Fprintf(a.out(), "progress: %d/%d pages processed\n", page+1, total)
				if err := a.emit(ctx, points, types.SummaryInterval); err != nil {
					return err
				}
			}
		}

		if page+1 == total {
			fmt.Fprintf(a.out(), "final page (%d/%d) processed\n", page+1, total)
			if err := a.emit(ctx, points, types.SummaryFinal); err != nil {
				return err
			}
		}
	}

	return nil
}

// loadBase loads the persisted knowledge base. A corrupt file aborts the
// run under StrictLoad and otherwise resets to an empty base with a
// warning.
func (a *Analyzer) loadBase(kbPath string) ([]string, error) {
	res := knowledge.Load(kbPath)
	switch res.Status {
	case knowledge.Loaded:
		fmt.Fprintf(a.out(), "loaded %d existing knowledge points\n", res.Base.Len())
		return res.Base.Knowledge, nil
	case knowledge.Corrupt:
		if a.Config.StrictLoad {
			return nil, fmt.Errorf("knowledge file is corrupt: %w", res.Err)
		}
		fmt.Fprintf(a.out(), "warning: %v; starting with fresh knowledge base\n", res.Err)
		return nil, nil
	default:
		fmt.Fprintln(a.out(), "starting with fresh knowledge base")
		return nil, nil
	}
}

// processPage sends one page's text to the completion endpoint and
// interprets the response. A null completion is not an error: the page
// simply has no relevant content.
func (a *Analyzer) processPage(ctx context.Context, text string, page int) (types.PageResult, error) {
	fmt.Fprintf(a.out(), "processing page %d...\n", page+1)

	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: pageSystemPrompt},
		{Role: completion.RoleUser, Content: "Page text: " + text},
	}

	res, err := a.Client.Complete(ctx, a.Config.Model, messages)
	if err != nil {
		return types.PageResult{}, err
	}
	if res.Content == nil {
		return types.PageResult{}, nil
	}
	return types.PageResult{HasContent: true, Knowledge: *res.Content}, nil
}

func (a *Analyzer) emit(ctx context.Context, points []string, kind types.SummaryKind) error {
	s, err := a.Emitter.Summarize(ctx, points)
	if err != nil {
		return fmt.Errorf("generating %s summary: %w", kind, err)
	}
	if _, err := a.Emitter.Save(s, kind); err != nil {
		return fmt.Errorf("saving %s summary: %w", kind, err)
	}
	return nil
}

func (a *Analyzer) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return io.Discard
}
