// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"slices"

	"github.com/taibuivan/tagtree/internal/platform/memdb"
	"github.com/taibuivan/tagtree/pkg/pointer"
)

// MemoryRepository is the Tag Store over a shared [memdb.DB].
type MemoryRepository struct {
	db *memdb.DB
}

// NewMemoryRepository returns a Repository backed by db.
func NewMemoryRepository(db *memdb.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func (repository *MemoryRepository) GetByID(context context.Context, id string) (tag *Tag, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		tag, err = memoryStore{tx: tx}.GetByID(context, id)
		return err
	})
	return tag, err
}

func (repository *MemoryRepository) List(context context.Context) (tags []*Tag, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		tags, err = memoryStore{tx: tx}.List(context)
		return err
	})
	return tags, err
}

func (repository *MemoryRepository) ListChildren(context context.Context, parentID *string) (tags []*Tag, err error) {
	err = repository.db.Read(func(tx *memdb.Tx) error {
		tags, err = memoryStore{tx: tx}.ListChildren(context, parentID)
		return err
	})
	return tags, err
}

func (repository *MemoryRepository) Create(context context.Context, tag *Tag) error {
	return repository.db.Write(func(tx *memdb.Tx) error {
		return memoryStore{tx: tx}.Create(context, tag)
	})
}

func (repository *MemoryRepository) Update(context context.Context, id string, patch Patch) (found bool, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		found, err = memoryStore{tx: tx}.Update(context, id, patch)
		return err
	})
	return found, err
}

func (repository *MemoryRepository) Delete(context context.Context, id string) (found bool, err error) {
	err = repository.db.Write(func(tx *memdb.Tx) error {
		found, err = memoryStore{tx: tx}.Delete(context, id)
		return err
	})
	return found, err
}

// Atomically holds the database write lock for the whole unit.
func (repository *MemoryRepository) Atomically(context context.Context, fn func(store Store) error) error {
	return repository.db.Write(func(tx *memdb.Tx) error {
		return fn(memoryStore{tx: tx})
	})
}

// memoryStore is the lock-free view used inside a memdb transaction.
type memoryStore struct {
	tx *memdb.Tx
}

func (store memoryStore) GetByID(context context.Context, id string) (*Tag, error) {
	row, ok := store.tx.Tag(id)
	if !ok {
		return nil, nil
	}
	return FromRow(row), nil
}

func (store memoryStore) List(context context.Context) ([]*Tag, error) {
	return store.collect(func(memdb.TagRow) bool { return true }), nil
}

func (store memoryStore) ListChildren(context context.Context, parentID *string) ([]*Tag, error) {
	return store.collect(func(row memdb.TagRow) bool {
		return pointer.Equal(row.ParentID, parentID)
	}), nil
}

func (store memoryStore) Create(context context.Context, tag *Tag) error {
	store.tx.PutTag(toRow(tag))
	return nil
}

func (store memoryStore) Update(context context.Context, id string, patch Patch) (bool, error) {
	row, ok := store.tx.Tag(id)
	if !ok {
		return false, nil
	}

	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.Color != nil {
		row.Color = *patch.Color
	}
	if patch.Parent != nil {
		row.ParentID = patch.Parent.ID
	}
	row.UpdatedAt = patch.stamp(store.tx.Now)

	store.tx.PutTag(row)
	return true, nil
}

func (store memoryStore) Delete(context context.Context, id string) (bool, error) {
	return store.tx.DeleteTag(id), nil
}

func (store memoryStore) collect(keep func(memdb.TagRow) bool) []*Tag {
	tags := make([]*Tag, 0)
	for _, row := range store.tx.Tags() {
		if keep(row) {
			tags = append(tags, FromRow(row))
		}
	}
	slices.SortFunc(tags, Compare)
	return tags
}

// # Row Mapping

// FromRow maps a memdb row onto a Tag. It is shared with the association
// adapter.
func FromRow(row memdb.TagRow) *Tag {
	return &Tag{
		ID:        row.ID,
		Name:      row.Name,
		Color:     row.Color,
		ParentID:  row.ParentID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toRow(tag *Tag) memdb.TagRow {
	return memdb.TagRow{
		ID:        tag.ID,
		Name:      tag.Name,
		Color:     tag.Color,
		ParentID:  tag.ParentID,
		CreatedAt: tag.CreatedAt,
		UpdatedAt: tag.UpdatedAt,
	}
}
