// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for knowledge index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Document filters points by source document.
	Document string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Document == ""
}

// QueryResult is a knowledge point with its provenance.
type QueryResult struct {
	Document string `json:"document" yaml:"document"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal"`
	Content  string `json:"content" yaml:"content"`
}

// Retrieve queries the index with optional full-text search and a
// document filter. Full-text results are ranked by relevance; filter-only
// results keep accumulation order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.document, p.ordinal, p.content
			FROM points_fts
			JOIN points p ON p.rowid = points_fts.rowid
			WHERE points_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.document, p.ordinal, p.content
			FROM points p
			WHERE 1=1`)
	}

	if opts.Document != "" {
		qb.WriteString(` AND p.document = ?`)
		args = append(args, opts.Document)
	}

	if useFTS {
		qb.WriteString(` ORDER BY points_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.document, p.ordinal`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var qr QueryResult
		if err := rows.Scan(&qr.Document, &qr.Ordinal, &qr.Content); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}
