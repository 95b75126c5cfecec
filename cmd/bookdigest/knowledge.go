// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookdigest/internal/knowledge"
	"github.com/pdiddy/bookdigest/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the knowledge index (index, retrieve, export)",
	Long: `Knowledge manages a local SQLite index built from accumulated knowledge
bases. Use subcommands to index knowledge files, query them, or export.`,
}

// --- index subcommand ---

var knowledgeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest accumulated knowledge bases into the search index",
	Long: `Index reads knowledge JSON files from <base-dir>/knowledge_bases/, ingests
them into a SQLite database with FTS5 indexing, and skips files unchanged
since the previous run.`,
	RunE: runKnowledgeIndex,
}

func runKnowledgeIndex(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d knowledge file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var knowledgeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the knowledge index with full-text search",
	Long: `Retrieve searches accumulated knowledge points using FTS5 full-text
search, a document filter, or both. Full-text results are ranked by
relevance; filter-only results keep accumulation order.`,
	RunE: runKnowledgeRetrieve,
}

func runKnowledgeRetrieve(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query or --document")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []knowledge.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-6s  %s\n", "Rank", "Document", "Point", "Content")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		content := r.Content
		if len(content) > 64 {
			content = content[:61] + "..."
		}
		document := r.Document
		if len(document) > 20 {
			document = document[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-6d  %s\n", i+1, document, r.Ordinal, content)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge index to YAML or JSON",
	Long: `Export writes the full knowledge index (or a filtered subset) to
<base-dir>/index/export.yaml or export.json. Supports the same filter
flags as retrieve for partial exports.`,
	RunE: runKnowledgeExport,
}

func runKnowledgeExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := knowledge.NewStore(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.yaml")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.IndexConfig{
		BaseDir:    flagOrConfig(cmd, "base-dir", "analysis.base_dir"),
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) knowledge.QueryOptions {
	document, _ := cmd.Flags().GetString("document")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	var query string
	if len(args) > 0 {
		query = strings.Join(args, " ")
	}

	return knowledge.QueryOptions{
		Query:      query,
		Document:   document,
		MaxResults: maxResults,
	}
}

func init() {
	for _, c := range []*cobra.Command{knowledgeIndexCmd, knowledgeRetrieveCmd, knowledgeExportCmd} {
		c.Flags().String("base-dir", "book_analysis", "working directory for generated artifacts")
		c.Flags().Int("max-results", 20, "maximum number of results")
	}
	knowledgeRetrieveCmd.Flags().String("document", "", "filter by source document")
	knowledgeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	knowledgeExportCmd.Flags().String("document", "", "filter by source document")
	knowledgeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	knowledgeCmd.AddCommand(knowledgeIndexCmd, knowledgeRetrieveCmd, knowledgeExportCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
