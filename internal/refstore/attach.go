// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// ImportFile materializes a byte buffer as a stored attachment owned by a
// record. The file is written under the attachment directory before the
// row is committed, so a failed write never leaves a dangling row. Bytes
// go to a temp file first and are renamed into place on success.
func (s *Store) ImportFile(ctx context.Context, recordID int64, filename, title, sourceName string, data []byte) (types.Attachment, error) {
	dir := filepath.Join(s.AttachmentsDir(), fmt.Sprintf("%d", recordID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Attachment{}, fmt.Errorf("creating attachment directory: %w", err)
	}

	destPath := filepath.Join(dir, filename)
	tmp, err := os.CreateTemp(dir, ".import-*.tmp")
	if err != nil {
		return types.Attachment{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return types.Attachment{}, fmt.Errorf("writing attachment: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return types.Attachment{}, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return types.Attachment{}, fmt.Errorf("renaming temp file: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (record_id, title, path, source_name) VALUES (?, ?, ?, ?)`,
		recordID, title, destPath, sourceName)
	if err != nil {
		os.Remove(destPath)
		return types.Attachment{}, fmt.Errorf("inserting attachment row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Attachment{}, fmt.Errorf("reading attachment id: %w", err)
	}

	return types.Attachment{
		ID:         id,
		Title:      title,
		Path:       destPath,
		SourceName: sourceName,
	}, nil
}

// Attachments returns a record's stored files in insertion order.
func (s *Store) Attachments(ctx context.Context, recordID int64) ([]types.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, path, source_name FROM attachments WHERE record_id=? ORDER BY id`,
		recordID)
	if err != nil {
		return nil, fmt.Errorf("loading attachments: %w", err)
	}
	defer rows.Close()

	var attachments []types.Attachment
	for rows.Next() {
		var a types.Attachment
		if err := rows.Scan(&a.ID, &a.Title, &a.Path, &a.SourceName); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// RenameAttachment updates an attachment's display title. Used to annotate
// carried-over preprint files after a record converts to its published form.
func (s *Store) RenameAttachment(ctx context.Context, attachmentID int64, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attachments SET title=? WHERE id=?`, title, attachmentID)
	if err != nil {
		return fmt.Errorf("renaming attachment %d: %w", attachmentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("attachment %d: %w", attachmentID, types.ErrNotFound)
	}
	return nil
}
