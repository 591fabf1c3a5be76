// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// NoteTable represents the 'tagtree.note' table
type NoteTable struct {
	Table     string
	ID        string
	Title     string
	CreatedAt string
	UpdatedAt string
}

// Note is the schema definition for tagtree.note
var Note = NoteTable{
	Table:     "tagtree.note",
	ID:        "id",
	Title:     "title",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t NoteTable) Columns() []string {
	return []string{t.ID, t.Title, t.CreatedAt, t.UpdatedAt}
}
