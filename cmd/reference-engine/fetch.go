// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [record-ids...]",
	Short: "Download and attach full-text files",
	Long: `Fetch walks an ordered cascade of file sources for each record (papers
and books use different orderings), advancing through mirrors on blocked or
failed hosts, validates the downloaded bytes, and stores the first valid
file as a local attachment. Records whose cascade is exhausted are tagged
rather than failed. Records that already carry a valid local file are
skipped unless --force is set.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int64("min-size", 0, "smallest payload accepted as a real file (default 1024 bytes)")
	fetchCmd.Flags().Bool("deep-validate", false, "parse PDF structure after the header check")
	fetchCmd.Flags().Bool("force", false, "download even when a valid file exists")
	fetchCmd.Flags().Bool("all", false, "process every record in the store")
	fetchCmd.Flags().Int("batch-size", 5, "records processed concurrently")
	fetchCmd.Flags().Duration("batch-delay", time.Second, "delay between batches")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := baseConfig(cmd)
	cfg.Retrieve.MinFileSize, _ = cmd.Flags().GetInt64("min-size")
	cfg.Retrieve.DeepValidate, _ = cmd.Flags().GetBool("deep-validate")
	cfg.Retrieve.Force, _ = cmd.Flags().GetBool("force")
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
	return runBatch(cmd, e, ids, e.Fetch)
}
