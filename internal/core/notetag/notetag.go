// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notetag owns the many-to-many relation between notes and tags and the
classification queries built on it.

The Repository adapters store (note, tag) pairs with set semantics. The
QueryService answers the three membership queries, any-of, all-of and any-of
including descendants, ordering every result by note UpdatedAt descending
then note id.
*/
package notetag

// AddResult tells the two successful outcomes of an Add apart.
type AddResult int

const (
	// Inserted means the pair did not exist and was stored.
	Inserted AddResult = iota + 1

	// AlreadyPresent means the pair existed and nothing changed.
	AlreadyPresent
)

func (result AddResult) String() string {
	switch result {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already_present"
	default:
		return "unknown"
	}
}

// Association is the response body of a tag or untag request.
type Association struct {
	NoteID string `json:"note_id"`
	TagID  string `json:"tag_id"`
	Result string `json:"result"`
}

// Match semantics of a note query.
const (
	MatchAny = "any"
	MatchAll = "all"
)

// Global field names for validation
const (
	FieldNoteID      = "note_id"
	FieldTagID       = "tag_id"
	FieldTags        = "tags"
	FieldMatch       = "match"
	FieldDescendants = "descendants"
)
