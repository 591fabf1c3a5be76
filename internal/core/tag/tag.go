// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tag owns the tag forest: the Tag Store adapters, the Hierarchy that
answers closure queries over parent pointers, and the Service that validates
and applies every mutation.

Tags form a forest through ParentID. A nil ParentID marks a root; a ParentID
naming a deleted tag is left dangling and such a tag is not a root.
*/
package tag

import (
	"cmp"
	"time"
)

// Tag is one node of the forest.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	ParentID  *string   `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagTreeNode is a tag together with its recursively built children.
type TagTreeNode struct {
	Tag
	Children []*TagTreeNode `json:"children"`
}

// CreateInput carries the caller-supplied fields of a new tag.
type CreateInput struct {
	Name     string  `json:"name"`
	Color    *string `json:"color"`
	ParentID *string `json:"parent_id"`
}

// PatchInput carries the fields of a partial tag edit. Nil fields are left
// alone, and at least one must be set.
type PatchInput struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// Patch lists the fields an Update overwrites. Nil fields are left alone.
// At becomes the new UpdatedAt; adapters fall back to their own clock when it
// is zero.
type Patch struct {
	Name   *string
	Color  *string
	Parent *ParentChange
	At     time.Time
}

// stamp returns the UpdatedAt value to write for the patch.
func (patch Patch) stamp(fallback func() time.Time) time.Time {
	if patch.At.IsZero() {
		return fallback()
	}
	return patch.At
}

// ParentChange sets ParentID to ID, where a nil ID makes the tag a root.
type ParentChange struct {
	ID *string
}

// MoveTo builds the Patch that re-parents a tag under parentID.
func MoveTo(parentID *string) Patch {
	return Patch{Parent: &ParentChange{ID: parentID}}
}

// Global field names for validation
const (
	FieldName     = "name"
	FieldColor    = "color"
	FieldParentID = "parent_id"
	FieldTagID    = "tag_id"
)

// Compare orders tags by name (byte-wise), then by id.
func Compare(a, b *Tag) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
}
