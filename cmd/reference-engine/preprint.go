// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

var preprintCmd = &cobra.Command{
	Use:   "preprint [record-ids...]",
	Short: "Move preprint records toward their published version",
	Long: `Preprint looks for a published version of each arXiv-type record: first
by arXiv id, then by title and author with preprint venues excluded. A
found DOI promotes the record to its published type, writes the identifier
and venue, annotates existing attachments, and downloads the published PDF.
When no published version exists the record is converted to the canonical
preprint type.`,
	RunE: runPreprint,
}

func init() {
	preprintCmd.Flags().Bool("all", false, "process every record in the store")
	preprintCmd.Flags().Bool("overwrite", false, "replace identifiers that are already set")
	preprintCmd.Flags().Int("batch-size", 5, "records processed concurrently")
	preprintCmd.Flags().Duration("batch-delay", time.Second, "delay between batches")

	rootCmd.AddCommand(preprintCmd)
}

func runPreprint(cmd *cobra.Command, args []string) error {
	cfg := baseConfig(cmd)
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
	return runBatch(cmd, e, ids, e.ProcessPreprint)
}
