// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// NoteTagTable represents the 'tagtree.notetag' junction table
type NoteTagTable struct {
	Table     string
	NoteID    string
	TagID     string
	CreatedAt string
}

// NoteTag is the schema definition for tagtree.notetag
var NoteTag = NoteTagTable{
	Table:     "tagtree.notetag",
	NoteID:    "noteid",
	TagID:     "tagid",
	CreatedAt: "createdat",
}
