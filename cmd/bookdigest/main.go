// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bookdigest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookdigest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the bookdigest CLI.
var rootCmd = &cobra.Command{
	Use:   "bookdigest",
	Short: "Page-by-page AI analysis of PDF books",
	Long: `bookdigest processes a PDF book one page at a time through a text-completion
endpoint, accumulating extracted knowledge points into a persisted knowledge
base and generating interval and final markdown summaries.

Each stage is a subcommand: analyze runs the page pipeline, summarize produces
a one-off summary from an existing knowledge base, and knowledge manages the
searchable SQLite index over accumulated points.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bookdigest.yaml or ~/.config/bookdigest/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bookdigest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bookdigest"))
		}
	}

	viper.SetEnvPrefix("BOOKDIGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// flagOrConfig resolves a string setting: an explicitly set flag wins,
// then the config file / environment via viper, then the flag default.
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) {
		if cv := viper.GetString(key); cv != "" {
			return cv
		}
	}
	return v
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
