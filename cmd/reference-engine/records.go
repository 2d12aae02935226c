// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reference-engine/pkg/types"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage bibliographic records in the local store",
}

var recordsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a record to the store",
	RunE:  runRecordsAdd,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records",
	RunE:  runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show [record-id]",
	Short: "Print one record as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsShow,
}

func init() {
	recordsAddCmd.Flags().String("title", "", "record title (required)")
	recordsAddCmd.Flags().String("type", types.TypeJournalArticle, "record type: journalArticle, conferencePaper, preprint, or book")
	recordsAddCmd.Flags().String("doi", "", "DOI if known")
	recordsAddCmd.Flags().String("isbn", "", "ISBN if known")
	recordsAddCmd.Flags().String("url", "", "landing page URL")
	recordsAddCmd.Flags().String("venue", "", "journal or proceedings name")
	recordsAddCmd.Flags().String("date", "", "publication date (YYYY or YYYY-MM-DD)")
	recordsAddCmd.Flags().StringArray("author", nil, `author as "First Last" (repeatable)`)

	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	rootCmd.AddCommand(recordsCmd)
}

func runRecordsAdd(cmd *cobra.Command, _ []string) error {
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	rec := types.Record{Title: title}
	rec.Type, _ = cmd.Flags().GetString("type")
	rec.DOI, _ = cmd.Flags().GetString("doi")
	rec.ISBN, _ = cmd.Flags().GetString("isbn")
	rec.URL, _ = cmd.Flags().GetString("url")
	rec.Venue, _ = cmd.Flags().GetString("venue")

	if date, _ := cmd.Flags().GetString("date"); date != "" {
		parsed, err := parseDate(date)
		if err != nil {
			return err
		}
		rec.Date = parsed
	}
	authors, _ := cmd.Flags().GetStringArray("author")
	for _, a := range authors {
		rec.Creators = append(rec.Creators, parseCreator(a))
	}

	e, err := openEngine(baseConfig(cmd))
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.Store.AddRecord(cmd.Context(), &rec); err != nil {
		return err
	}
	fmt.Printf("added record %d: %s\n", rec.ID, rec.Title)
	return nil
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	e, err := openEngine(baseConfig(cmd))
	if err != nil {
		return err
	}
	defer e.Close()

	records, err := e.Store.ListRecords(cmd.Context())
	if err != nil {
		return err
	}
	for _, rec := range records {
		id := rec.DOI
		if id == "" {
			id = rec.ISBN
		}
		if id == "" {
			id = "-"
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", rec.ID, rec.Type, id, rec.Title)
	}
	return nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q", args[0])
	}

	e, err := openEngine(baseConfig(cmd))
	if err != nil {
		return err
	}
	defer e.Close()

	rec, err := e.Store.GetRecord(cmd.Context(), id)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(os.Stdout).Encode(rec)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY or YYYY-MM-DD", s)
}

func parseCreator(name string) types.Creator {
	c := types.Creator{Role: "author"}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
	case 1:
		c.LastName = parts[0]
	default:
		c.FirstName = strings.Join(parts[:len(parts)-1], " ")
		c.LastName = parts[len(parts)-1]
	}
	return c
}
