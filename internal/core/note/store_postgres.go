// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tagtree/internal/platform/database/schema"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
	"github.com/taibuivan/tagtree/internal/platform/postgres"
)

// PostgresRepository is the Note Registry over tagtree.note.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Columns renders the note column list, optionally qualified by alias.
func Columns(alias string) string {
	columns := schema.Note.Columns()
	if alias != "" {
		for index, column := range columns {
			columns[index] = alias + "." + column
		}
	}
	return strings.Join(columns, ", ")
}

// Order renders the result ordering of [Compare] for the given alias.
func Order(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf(`%[1]s%[2]s DESC, %[1]s%[3]s COLLATE "C"`, prefix, schema.Note.UpdatedAt, schema.Note.ID)
}

// ScanRow reads one row produced by [Columns].
func ScanRow(row pgx.Row) (*Note, error) {
	note := &Note{}
	err := row.Scan(&note.ID, &note.Title, &note.CreatedAt, &note.UpdatedAt)
	return note, err
}

// CollectRows drains rows produced by [Columns].
func CollectRows(rows pgx.Rows) ([]*Note, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Note, error) {
		return ScanRow(row)
	})
}

func (repository *PostgresRepository) Upsert(context context.Context, id, title string) (*Note, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s) VALUES ($1, $2, now(), now())
		ON CONFLICT (%[2]s) DO UPDATE SET %[3]s = EXCLUDED.%[3]s, %[5]s = now()
		RETURNING %[6]s
	`, schema.Note.Table, schema.Note.ID, schema.Note.Title, schema.Note.CreatedAt, schema.Note.UpdatedAt, Columns(""))

	note, err := ScanRow(repository.pool.QueryRow(context, query, id, title))
	if err != nil {
		return nil, dberr.Wrap(err, "upsert_note")
	}

	return note, nil
}

func (repository *PostgresRepository) GetByID(context context.Context, id string) (*Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, Columns(""), schema.Note.Table, schema.Note.ID)

	note, err := ScanRow(repository.pool.QueryRow(context, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_note_by_id")
	}

	return note, nil
}

func (repository *PostgresRepository) List(context context.Context) ([]*Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`, Columns(""), schema.Note.Table, Order(""))

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_notes")
	}

	notes, err := CollectRows(rows)
	if err != nil {
		return nil, dberr.Wrap(err, "list_notes")
	}

	return notes, nil
}

// Delete removes the junction rows and the note row in one transaction.
func (repository *PostgresRepository) Delete(context context.Context, id string) (bool, error) {
	var found bool

	err := postgres.WithTx(context, repository.pool, func(transaction pgx.Tx) error {
		unlink := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NoteTag.Table, schema.NoteTag.NoteID)
		if _, err := transaction.Exec(context, unlink, id); err != nil {
			return err
		}

		remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Note.Table, schema.Note.ID)
		result, err := transaction.Exec(context, remove, id)
		if err != nil {
			return err
		}

		found = result.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, dberr.Wrap(err, "delete_note")
	}

	return found, nil
}
