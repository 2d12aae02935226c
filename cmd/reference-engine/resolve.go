// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [record-ids...]",
	Short: "Resolve records to canonical identifiers (DOI/ISBN)",
	Long: `Resolve builds a search query from each record's fields, fans it out to
metadata providers under the selected strategy, and writes the best match's
identifier back to the record. At most one identifier is written per record
per pass, and existing identifiers are never replaced unless --overwrite is
set. Records with no match are tagged rather than failed.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("strategy", "fallback", "aggregation strategy: parallel, fallback, or best_result")
	resolveCmd.Flags().Bool("open-access-only", false, "prefer results that carry a direct PDF link")
	resolveCmd.Flags().Bool("overwrite", false, "replace identifiers that are already set")
	resolveCmd.Flags().Bool("all", false, "process every record in the store")
	resolveCmd.Flags().Int("batch-size", 5, "records processed concurrently")
	resolveCmd.Flags().Duration("batch-delay", time.Second, "delay between batches")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := baseConfig(cmd)
	cfg.Resolve.Strategy, _ = cmd.Flags().GetString("strategy")
	cfg.Resolve.OpenAccessOnly, _ = cmd.Flags().GetBool("open-access-only")
	cfg.Resolve.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	cfg.Batch.Size, _ = cmd.Flags().GetInt("batch-size")
	cfg.Batch.InterBatchDelay, _ = cmd.Flags().GetDuration("batch-delay")

	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := recordIDs(cmd, args, e)
	if err != nil {
		return err
	}
	return runBatch(cmd, e, ids, e.Resolve)
}
