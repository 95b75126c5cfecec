// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookdigest/internal/completion"
	"github.com/pdiddy/bookdigest/internal/httputil"
	"github.com/pdiddy/bookdigest/internal/pdf"
	"github.com/pdiddy/bookdigest/internal/pipeline"
	"github.com/pdiddy/bookdigest/internal/secrets"
	"github.com/pdiddy/bookdigest/internal/summary"
	"github.com/pdiddy/bookdigest/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [pdf]",
	Short: "Process a PDF book page by page into a knowledge base",
	Long: `Analyze reads one page at a time from a PDF, asks the completion endpoint
to extract a knowledge point from each page, and persists the accumulated
knowledge base after every page. Interval summaries are generated every N
pages and a final summary after the last page.

The PDF is looked up under <base-dir>/pdfs/ first; a path outside that
directory is copied in before processing. An existing knowledge base for the
same document is resumed, not replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("model", "gpt-4o-mini", "completion model for page analysis")
	analyzeCmd.Flags().String("summary-model", "", "completion model for summaries (default: --model)")
	analyzeCmd.Flags().String("base-dir", "book_analysis", "working directory for generated artifacts")
	analyzeCmd.Flags().Int("max-pages", 0, "maximum pages to process (0 processes the entire book)")
	analyzeCmd.Flags().Int("interval", 20, "pages between interval summaries (0 disables them)")
	analyzeCmd.Flags().Bool("strict-load", false, "abort when the existing knowledge file cannot be parsed")
	analyzeCmd.Flags().Bool("reset", false, "delete previously generated knowledge and summaries first")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// The credential check happens before any file or network I/O.
	apiKey := secrets.APIKey(loadedSecrets)
	if apiKey == "" {
		return fmt.Errorf("missing API credential: set %s or .secrets/%s",
			secrets.OpenAIKeyEnv, secrets.OpenAIKeyFile)
	}

	cfg := analysisConfigFromFlags(cmd)
	cfg.APIKey = apiKey
	docName := filepath.Base(args[0])

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := resetArtifacts(cfg.BaseDir); err != nil {
			return err
		}
	}

	if err := setupDirectories(cfg.BaseDir); err != nil {
		return err
	}

	pdfPath, err := ensurePDF(cfg.BaseDir, args[0])
	if err != nil {
		return err
	}

	doc, err := pdf.Open(pdfPath)
	if err != nil {
		return err
	}
	defer doc.Close()

	client := newCompletionClient(apiKey)
	analyzer := &pipeline.Analyzer{
		Client: client,
		Emitter: &summary.Emitter{
			Client:  client,
			Model:   cfg.SummaryModel,
			BaseDir: cfg.BaseDir,
			DocName: docName,
			Out:     os.Stdout,
		},
		Config: cfg,
		Out:    os.Stdout,
	}

	if err := analyzer.Run(cmd.Context(), doc, docName); err != nil {
		return err
	}

	fmt.Println("processing complete")
	return nil
}

func analysisConfigFromFlags(cmd *cobra.Command) types.AnalysisConfig {
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	interval, _ := cmd.Flags().GetInt("interval")
	strictLoad, _ := cmd.Flags().GetBool("strict-load")

	model := flagOrConfig(cmd, "model", "analysis.model")
	summaryModel := flagOrConfig(cmd, "summary-model", "analysis.summary_model")
	if summaryModel == "" {
		summaryModel = model
	}

	return types.AnalysisConfig{
		AIConfig:        types.AIConfig{Model: model},
		SummaryModel:    summaryModel,
		BaseDir:         flagOrConfig(cmd, "base-dir", "analysis.base_dir"),
		MaxPages:        maxPages,
		SummaryInterval: interval,
		StrictLoad:      strictLoad,
	}
}

func newCompletionClient(apiKey string) *completion.HTTPClient {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http.timeout"),
		UserAgent: viper.GetString("http.user_agent"),
	}
	if httpCfg.UserAgent == "" {
		httpCfg.UserAgent = "bookdigest/" + version
	}

	return &completion.HTTPClient{
		APIKey:  apiKey,
		BaseURL: viper.GetString("api.base_url"),
		Client:  httputil.NewClient(httpCfg),
	}
}

// setupDirectories creates the working directory layout.
func setupDirectories(baseDir string) error {
	for _, dir := range []string{"pdfs", "knowledge_bases", "summaries"} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// resetArtifacts deletes previously generated knowledge and summary files.
// The pdfs/ directory is left alone.
func resetArtifacts(baseDir string) error {
	for _, dir := range []string{"knowledge_bases", "summaries"} {
		entries, err := os.ReadDir(filepath.Join(baseDir, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(baseDir, dir, entry.Name())); err != nil {
				return fmt.Errorf("removing %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

// ensurePDF returns the path of the PDF under baseDir/pdfs/, copying it
// there first when the argument points outside that directory. A missing
// document is a fatal startup error.
func ensurePDF(baseDir, arg string) (string, error) {
	target := filepath.Join(baseDir, "pdfs", filepath.Base(arg))
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	src, err := os.Open(arg)
	if err != nil {
		return "", fmt.Errorf("PDF %s not found: %w", arg, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("copying PDF into %s: %w", filepath.Dir(target), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copying PDF: %w", err)
	}

	fmt.Fprintf(os.Stderr, "copied PDF to analysis directory: %s\n", target)
	return target, nil
}
