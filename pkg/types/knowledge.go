// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KnowledgeBase is the ordered sequence of knowledge points accumulated
// from a document. Insertion order is page-processing order; entries are
// never reordered or deduplicated within a run.
type KnowledgeBase struct {
	// Knowledge holds the accumulated points. The field name matches the
	// persisted JSON document: {"knowledge": [...]}.
	Knowledge []string `json:"knowledge" yaml:"knowledge"`
}

// Len returns the number of accumulated knowledge points.
func (kb KnowledgeBase) Len() int { return len(kb.Knowledge) }

// PageResult is the outcome of analyzing a single page. Absence of
// content is not an error: pages without extractable knowledge (front
// matter, indexes, blanks) produce HasContent == false.
type PageResult struct {
	// HasContent reports whether the page yielded a knowledge point.
	HasContent bool

	// Knowledge is the extracted point. Empty when HasContent is false.
	Knowledge string
}

// SummaryKind tags a summary artifact as produced at an interval
// boundary or at the end of the run.
type SummaryKind string

const (
	// SummaryInterval marks a summary generated mid-run at a page boundary.
	SummaryInterval SummaryKind = "interval"

	// SummaryFinal marks the summary generated after the last page.
	SummaryFinal SummaryKind = "final"
)
