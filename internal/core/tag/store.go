// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import "context"

// Reader is the read side of the Tag Store.
type Reader interface {
	// GetByID returns nil and no error when the tag does not exist.
	GetByID(context context.Context, id string) (*Tag, error)

	// List returns every tag ordered by name, then id.
	List(context context.Context) ([]*Tag, error)

	// ListChildren returns the direct children of parentID ordered by name,
	// then id. A nil parentID lists the roots.
	ListChildren(context context.Context, parentID *string) ([]*Tag, error)
}

// Store is the full Tag Store contract shared by every backend.
type Store interface {
	Reader

	// Create inserts tag. The caller assigns ID and timestamps.
	Create(context context.Context, tag *Tag) error

	// Update applies patch and refreshes UpdatedAt. It reports false when the
	// tag does not exist.
	Update(context context.Context, id string, patch Patch) (bool, error)

	// Delete removes the tag and every association referencing it in one
	// atomic step. Children keep their ParentID. It reports false when the
	// tag did not exist.
	Delete(context context.Context, id string) (bool, error)
}

// Repository is a Store that can also run a serializable unit of work.
type Repository interface {
	Store

	// Atomically runs fn against a Store whose reads and writes are isolated
	// from every other parent-pointer write. fn may be invoked more than once
	// on optimistic backends, so it must not have side effects outside the
	// Store it is given.
	Atomically(context context.Context, fn func(store Store) error) error
}

// ClosureReader is implemented by stores that answer closure queries natively.
// The Hierarchy prefers it over walking parent pointers in memory.
type ClosureReader interface {
	// Descendants returns every tag reachable below id, excluding id itself,
	// ordered by name, then id.
	Descendants(context context.Context, id string) ([]*Tag, error)

	// Ancestors returns the parent chain of id, nearest first. The chain stops
	// at a root, a dangling parent, or the first repeated tag.
	Ancestors(context context.Context, id string) ([]*Tag, error)
}
