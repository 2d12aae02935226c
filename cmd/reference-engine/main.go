// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the reference-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reference-engine/internal/engine"
	"github.com/pdiddy/reference-engine/internal/secrets"
	"github.com/pdiddy/reference-engine/internal/sources"
	"github.com/pdiddy/reference-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "reference-engine/0.1"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the reference-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "reference-engine",
	Short: "Resolve and retrieve full text for bibliographic records",
	Long: `reference-engine resolves incomplete bibliographic records (a title, a few
authors, maybe a year) to canonical identifiers, and locates and downloads a
full-text file for each record from a set of unreliable external sources.

Records live in a local SQLite store. Each operation is a subcommand:
resolve writes identifiers, fetch downloads full text, preprint drives a
record's preprint-to-published transition, records manages the store.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./reference-engine.yaml or ~/.config/reference-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "references", "base directory for the record store and attachments")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	rootCmd.PersistentFlags().String("user-agent", "", "User-Agent header for provider requests")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("reference-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "reference-engine"))
		}
	}

	viper.SetEnvPrefix("REFERENCE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// baseConfig builds the pipeline config shared by every subcommand from
// the persistent flags.
func baseConfig(cmd *cobra.Command) types.PipelineConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent, _ := cmd.Flags().GetString("user-agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	http := types.HTTPConfig{Timeout: timeout, UserAgent: userAgent}
	return types.PipelineConfig{
		Resolve:  types.ResolveConfig{HTTPConfig: http},
		Retrieve: types.RetrieveConfig{HTTPConfig: http},
		Store:    types.StoreConfig{DataDir: dataDir},
	}
}

// openEngine constructs the engine for one subcommand invocation.
func openEngine(cfg types.PipelineConfig) (*engine.Engine, error) {
	return engine.New(cfg, sources.DefaultConfigs(), loadedSecrets)
}

// recordIDs parses the positional arguments as record ids, or lists every
// stored record when all is set.
func recordIDs(cmd *cobra.Command, args []string, e *engine.Engine) ([]int64, error) {
	all, _ := cmd.Flags().GetBool("all")
	if all {
		records, err := e.Store.ListRecords(cmd.Context())
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		return ids, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("provide one or more record ids, or --all")
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// runBatch drains the outcome stream and reports failures.
func runBatch(cmd *cobra.Command, e *engine.Engine, ids []int64, fn engine.ItemFunc) error {
	failed := 0
	for out := range e.RunBatch(cmd.Context(), ids, fn, os.Stdout) {
		if out.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "record %d: %v\n", out.RecordID, out.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d record(s) failed", failed)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
