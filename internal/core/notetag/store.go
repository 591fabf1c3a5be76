// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"context"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/tag"
)

type Repository interface {
	// Add stores the pair. Both endpoints must exist, otherwise the error is
	// NotFound. Adding an existing pair succeeds with AlreadyPresent.
	Add(context context.Context, noteID, tagID string) (AddResult, error)

	// Remove deletes the pair and reports whether it existed.
	Remove(context context.Context, noteID, tagID string) (bool, error)

	// TagsOf returns the tags attached to a note ordered by name, then id.
	TagsOf(context context.Context, noteID string) ([]*tag.Tag, error)

	// NotesOf returns the ids of the notes attached to a tag, ascending.
	NotesOf(context context.Context, tagID string) ([]string, error)

	// RemoveAllForNote deletes every pair of a note and returns how many went.
	RemoveAllForNote(context context.Context, noteID string) (int, error)

	// NotesWithAny returns the notes carrying at least one of tagIDs.
	// tagIDs must be distinct; an empty slice yields no notes.
	NotesWithAny(context context.Context, tagIDs []string) ([]*note.Note, error)

	// NotesWithAll returns the notes carrying every one of tagIDs.
	// tagIDs must be distinct; an empty slice yields no notes.
	NotesWithAll(context context.Context, tagIDs []string) ([]*note.Note, error)
}
