// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

import "context"

type Repository interface {
	// Upsert registers id or, when it already exists, replaces its title and
	// refreshes UpdatedAt. CreatedAt is kept.
	Upsert(context context.Context, id, title string) (*Note, error)

	// GetByID returns nil and no error when the note is not registered.
	GetByID(context context.Context, id string) (*Note, error)

	// List returns every registered note ordered by [Compare].
	List(context context.Context) ([]*Note, error)

	// Delete unregisters the note and removes its associations in one atomic
	// step. It reports false when the note was not registered.
	Delete(context context.Context, id string) (bool, error)
}
