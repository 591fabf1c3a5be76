// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

import (
	"context"
	"slices"

	"github.com/taibuivan/tagtree/internal/platform/memdb"
)

// MemoryRepository is the Note Registry over a shared [memdb.DB].
type MemoryRepository struct {
	db *memdb.DB
}

func NewMemoryRepository(db *memdb.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (repository *MemoryRepository) Upsert(context context.Context, id, title string) (note *Note, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		now := tx.Now()

		row, exists := tx.Note(id)
		if !exists {
			row = memdb.NoteRow{ID: id, CreatedAt: now}
		}
		row.Title = title
		row.UpdatedAt = now

		tx.PutNote(row)
		note = FromRow(row)
		return nil
	})
	return note, err
}

func (repository *MemoryRepository) GetByID(context context.Context, id string) (note *Note, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		if row, ok := tx.Note(id); ok {
			note = FromRow(row)
		}
		return nil
	})
	return note, err
}

func (repository *MemoryRepository) List(context context.Context) (notes []*Note, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		notes = make([]*Note, 0)
		for _, row := range tx.Notes() {
			notes = append(notes, FromRow(row))
		}
		slices.SortFunc(notes, Compare)
		return nil
	})
	return notes, err
}

func (repository *MemoryRepository) Delete(context context.Context, id string) (found bool, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		found = tx.DeleteNote(id)
		return nil
	})
	return found, err
}

// FromRow maps a memdb row onto a Note. It is shared with the association
// adapter.
func FromRow(row memdb.NoteRow) *Note {
	return &Note{
		ID:        row.ID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
