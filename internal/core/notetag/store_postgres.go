// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/database/schema"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
)

// PostgresRepository is the association store over tagtree.notetag.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Add inserts the pair, ignoring an existing one.

Description: Missing endpoints surface as foreign-key violations, which
[dberr.Wrap] turns into NotFound for the side named by the constraint. The
check and the insert are one statement, so a concurrent delete of either side
cannot slip in between.
*/
func (repository *PostgresRepository) Add(context context.Context, noteID, tagID string) (AddResult, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING
	`, schema.NoteTag.Table, schema.NoteTag.NoteID, schema.NoteTag.TagID, schema.NoteTag.CreatedAt)

	result, err := repository.pool.Exec(context, query, noteID, tagID)
	if err != nil {
		return 0, dberr.Wrap(err, "add_note_tag")
	}

	if result.RowsAffected() == 0 {
		return AlreadyPresent, nil
	}
	return Inserted, nil
}

func (repository *PostgresRepository) Remove(context context.Context, noteID, tagID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.NoteTag.Table, schema.NoteTag.NoteID, schema.NoteTag.TagID)

	result, err := repository.pool.Exec(context, query, noteID, tagID)
	if err != nil {
		return false, dberr.Wrap(err, "remove_note_tag")
	}

	return result.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) TagsOf(context context.Context, noteID string) ([]*tag.Tag, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s t
		JOIN %s nt ON nt.%s = t.%s
		WHERE nt.%s = $1
		ORDER BY %s
	`, tag.Columns("t"), schema.Tag.Table,
		schema.NoteTag.Table, schema.NoteTag.TagID, schema.Tag.ID,
		schema.NoteTag.NoteID, tag.Order("t"))

	rows, err := repository.pool.Query(context, query, noteID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_note_tags")
	}

	tags, err := tag.CollectRows(rows)
	if err != nil {
		return nil, dberr.Wrap(err, "list_note_tags")
	}

	return tags, nil
}

func (repository *PostgresRepository) NotesOf(context context.Context, tagID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT %[1]s FROM %[2]s WHERE %[3]s = $1 ORDER BY %[1]s COLLATE "C"`,
		schema.NoteTag.NoteID, schema.NoteTag.Table, schema.NoteTag.TagID)

	rows, err := repository.pool.Query(context, query, tagID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tag_notes")
	}

	noteIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "list_tag_notes")
	}

	return noteIDs, nil
}

func (repository *PostgresRepository) RemoveAllForNote(context context.Context, noteID string) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NoteTag.Table, schema.NoteTag.NoteID)

	result, err := repository.pool.Exec(context, query, noteID)
	if err != nil {
		return 0, dberr.Wrap(err, "remove_note_tags")
	}

	return int(result.RowsAffected()), nil
}

// NotesWithAny is a semi-join, so a note matching several tags appears once.
func (repository *PostgresRepository) NotesWithAny(context context.Context, tagIDs []string) ([]*note.Note, error) {
	if len(tagIDs) == 0 {
		return make([]*note.Note, 0), nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s n
		WHERE EXISTS (
			SELECT 1 FROM %s nt WHERE nt.%s = n.%s AND nt.%s = ANY($1)
		)
		ORDER BY %s
	`, note.Columns("n"), schema.Note.Table,
		schema.NoteTag.Table, schema.NoteTag.NoteID, schema.Note.ID, schema.NoteTag.TagID,
		note.Order("n"))

	return repository.collectNotes(context, "list_notes_with_any", query, tagIDs)
}

// NotesWithAll keeps the notes whose distinct matching tag count equals the
// number of requested tags.
func (repository *PostgresRepository) NotesWithAll(context context.Context, tagIDs []string) ([]*note.Note, error) {
	if len(tagIDs) == 0 {
		return make([]*note.Note, 0), nil
	}

	query := fmt.Sprintf(`
		SELECT %[1]s FROM %[2]s n
		JOIN (
			SELECT %[4]s FROM %[3]s
			WHERE %[5]s = ANY($1)
			GROUP BY %[4]s
			HAVING COUNT(DISTINCT %[5]s) = $2
		) matched ON matched.%[4]s = n.%[6]s
		ORDER BY %[7]s
	`, note.Columns("n"), schema.Note.Table,
		schema.NoteTag.Table, schema.NoteTag.NoteID, schema.NoteTag.TagID, schema.Note.ID,
		note.Order("n"))

	return repository.collectNotes(context, "list_notes_with_all", query, tagIDs, len(tagIDs))
}

func (repository *PostgresRepository) collectNotes(context context.Context, action, query string, args ...any) ([]*note.Note, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}

	notes, err := note.CollectRows(rows)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}

	return notes, nil
}
