// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema centralizes table and column names for the PostgreSQL
// adapters so that SQL built with fmt.Sprintf never hard-codes identifiers.
package schema

// TagTable represents the 'tagtree.tag' table
type TagTable struct {
	Table     string
	ID        string
	Name      string
	Color     string
	ParentID  string
	CreatedAt string
	UpdatedAt string
}

// Tag is the schema definition for tagtree.tag
var Tag = TagTable{
	Table:     "tagtree.tag",
	ID:        "id",
	Name:      "name",
	Color:     "color",
	ParentID:  "parentid",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t TagTable) Columns() []string {
	return []string{t.ID, t.Name, t.Color, t.ParentID, t.CreatedAt, t.UpdatedAt}
}
