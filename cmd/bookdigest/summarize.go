// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookdigest/internal/knowledge"
	"github.com/pdiddy/bookdigest/internal/secrets"
	"github.com/pdiddy/bookdigest/internal/summary"
	"github.com/pdiddy/bookdigest/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [document]",
	Short: "Generate a summary from an existing knowledge base",
	Long: `Summarize reads the persisted knowledge base for a document and asks the
completion endpoint for a markdown summary, without re-processing any pages.
The result is saved as a final-tagged summary artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().String("model", "gpt-4o-mini", "completion model for the summary")
	summarizeCmd.Flags().String("base-dir", "book_analysis", "working directory for generated artifacts")

	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	apiKey := secrets.APIKey(loadedSecrets)
	if apiKey == "" {
		return fmt.Errorf("missing API credential: set %s or .secrets/%s",
			secrets.OpenAIKeyEnv, secrets.OpenAIKeyFile)
	}

	baseDir := flagOrConfig(cmd, "base-dir", "analysis.base_dir")
	docName := filepath.Base(args[0])

	kbPath := knowledge.FilePath(baseDir, docName)
	res := knowledge.Load(kbPath)
	switch res.Status {
	case knowledge.Absent:
		return fmt.Errorf("no knowledge base found at %s: run analyze first", kbPath)
	case knowledge.Corrupt:
		return fmt.Errorf("knowledge file is corrupt: %w", res.Err)
	}

	emitter := &summary.Emitter{
		Client:  newCompletionClient(apiKey),
		Model:   flagOrConfig(cmd, "model", "analysis.summary_model"),
		BaseDir: baseDir,
		DocName: docName,
		Out:     os.Stdout,
	}

	s, err := emitter.Summarize(cmd.Context(), res.Base.Knowledge)
	if err != nil {
		return err
	}

	if _, err := emitter.Save(s, types.SummaryFinal); err != nil {
		return err
	}
	return nil
}
