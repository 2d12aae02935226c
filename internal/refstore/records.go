// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// dateFmt is the on-disk date format; empty string means unknown.
const dateFmt = time.RFC3339

// AddRecord inserts a new record with its tags and assigns its ID.
func (s *Store) AddRecord(ctx context.Context, rec *types.Record) error {
	if rec.Type == "" {
		rec.Type = types.TypeJournalArticle
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	creators, err := marshalCreators(rec.Creators)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (type, title, creators, date, venue, repository, doi, isbn, url, extra)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Type, rec.Title, creators, formatDate(rec.Date), rec.Venue,
		rec.Repository, rec.DOI, rec.ISBN, rec.URL, rec.Extra)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading record id: %w", err)
	}
	rec.ID = id

	for _, tag := range rec.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (record_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}

	return tx.Commit()
}

// SaveRecord updates all bibliographic fields and tags of an existing
// record as one transaction. Attachments are managed separately.
func (s *Store) SaveRecord(ctx context.Context, rec types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	creators, err := marshalCreators(rec.Creators)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE records SET type=?, title=?, creators=?, date=?, venue=?,
		 repository=?, doi=?, isbn=?, url=?, extra=? WHERE id=?`,
		rec.Type, rec.Title, creators, formatDate(rec.Date), rec.Venue,
		rec.Repository, rec.DOI, rec.ISBN, rec.URL, rec.Extra, rec.ID)
	if err != nil {
		return fmt.Errorf("updating record %d: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of record %d: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", rec.ID, types.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE record_id=?`, rec.ID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	for _, tag := range rec.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (record_id, tag) VALUES (?, ?)`, rec.ID, tag); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetRecord loads one record with its tags and attachments.
func (s *Store) GetRecord(ctx context.Context, id int64) (types.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, title, creators, date, venue, repository, doi, isbn, url, extra
		 FROM records WHERE id=?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, fmt.Errorf("record %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Record{}, err
	}

	if rec.Tags, err = s.recordTags(ctx, id); err != nil {
		return types.Record{}, err
	}
	if rec.Attachments, err = s.Attachments(ctx, id); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

// ListRecords returns all records in insertion order, without tags or
// attachments loaded.
func (s *Store) ListRecords(ctx context.Context) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, creators, date, venue, repository, doi, isbn, url, extra
		 FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AddTag attaches a free-form tag to a record; adding an existing tag is a
// no-op.
func (s *Store) AddTag(ctx context.Context, recordID int64, tag string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tags (record_id, tag) VALUES (?, ?)`, recordID, tag)
	if err != nil {
		return fmt.Errorf("tagging record %d: %w", recordID, err)
	}
	return nil
}

func (s *Store) recordTags(ctx context.Context, recordID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM tags WHERE record_id=? ORDER BY tag`, recordID)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.Record, error) {
	var rec types.Record
	var creators, date string
	err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &creators, &date, &rec.Venue,
		&rec.Repository, &rec.DOI, &rec.ISBN, &rec.URL, &rec.Extra)
	if err != nil {
		return types.Record{}, err
	}
	if creators != "" {
		if err := json.Unmarshal([]byte(creators), &rec.Creators); err != nil {
			return types.Record{}, fmt.Errorf("decoding creators for record %d: %w", rec.ID, err)
		}
	}
	if date != "" {
		if t, err := time.Parse(dateFmt, date); err == nil {
			rec.Date = t
		}
	}
	return rec, nil
}

func marshalCreators(creators []types.Creator) (string, error) {
	if len(creators) == 0 {
		return "", nil
	}
	data, err := json.Marshal(creators)
	if err != nil {
		return "", fmt.Errorf("encoding creators: %w", err)
	}
	return string(data), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateFmt)
}
