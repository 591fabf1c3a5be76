// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package note is the Note Registry: the set of notes the classification engine
knows about, keyed by the opaque ids of the note-taking application.

The registry supplies the note universe that an empty all-of query returns and
the last-modified timestamps that order every query result. Note content is
owned elsewhere; only an informational title is kept.
*/
package note

import (
	"cmp"
	"time"
)

// Note is a registered note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertInput is the body of PUT /notes/{id}.
type UpsertInput struct {
	Title string `json:"title"`
}

// Global field names for validation
const (
	FieldID    = "id"
	FieldTitle = "title"
)

// Compare orders notes most recently updated first, then by id.
func Compare(a, b *Note) int {
	return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.ID, b.ID))
}
