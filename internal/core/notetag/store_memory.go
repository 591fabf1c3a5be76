// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"context"
	"slices"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/memdb"
)

// MemoryRepository is the association store over a shared [memdb.DB]. It must
// share the database of the tag and note memory repositories.
type MemoryRepository struct {
	db *memdb.DB
}

func NewMemoryRepository(db *memdb.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (repository *MemoryRepository) Add(context context.Context, noteID, tagID string) (result AddResult, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		if _, ok := tx.Note(noteID); !ok {
			return apperr.NotFound("Note")
		}
		if _, ok := tx.Tag(tagID); !ok {
			return apperr.NotFound("Tag")
		}

		result = AlreadyPresent
		if tx.Link(noteID, tagID) {
			result = Inserted
		}
		return nil
	})
	return result, err
}

func (repository *MemoryRepository) Remove(context context.Context, noteID, tagID string) (found bool, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		found = tx.Unlink(noteID, tagID)
		return nil
	})
	return found, err
}

func (repository *MemoryRepository) TagsOf(context context.Context, noteID string) (tags []*tag.Tag, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		tags = make([]*tag.Tag, 0)
		for _, tagID := range tx.TagIDsOf(noteID) {
			if row, ok := tx.Tag(tagID); ok {
				tags = append(tags, tag.FromRow(row))
			}
		}
		return nil
	})
	slices.SortFunc(tags, tag.Compare)
	return tags, err
}

func (repository *MemoryRepository) NotesOf(context context.Context, tagID string) (noteIDs []string, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		noteIDs = tx.NoteIDsOf(tagID)
		return nil
	})
	slices.Sort(noteIDs)
	return noteIDs, err
}

func (repository *MemoryRepository) RemoveAllForNote(context context.Context, noteID string) (removed int, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		for _, tagID := range tx.TagIDsOf(noteID) {
			if tx.Unlink(noteID, tagID) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (repository *MemoryRepository) NotesWithAny(context context.Context, tagIDs []string) ([]*note.Note, error) {
	return repository.notesMatching(tagIDs, 1)
}

func (repository *MemoryRepository) NotesWithAll(context context.Context, tagIDs []string) ([]*note.Note, error) {
	return repository.notesMatching(tagIDs, len(tagIDs))
}

// notesMatching returns the notes carrying at least threshold of tagIDs.
func (repository *MemoryRepository) notesMatching(tagIDs []string, threshold int) (notes []*note.Note, err error) {
	notes = make([]*note.Note, 0)
	if len(tagIDs) == 0 {
		return notes, nil
	}

	err = repository.db.Read(func(tx *memdb.Tx) error {
		hits := make(map[string]int)
		for _, tagID := range tagIDs {
			for _, noteID := range tx.NoteIDsOf(tagID) {
				hits[noteID]++
			}
		}

		for noteID, count := range hits {
			if count < threshold {
				continue
			}
			if row, ok := tx.Note(noteID); ok {
				notes = append(notes, note.FromRow(row))
			}
		}
		return nil
	})

	slices.SortFunc(notes, note.Compare)
	return notes, err
}
