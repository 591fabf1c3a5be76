// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/database/schema"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
	"github.com/taibuivan/tagtree/internal/platform/postgres"
)

// PostgresRepository is the Tag Store over tagtree.tag.
type PostgresRepository struct {
	postgresStore
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a Repository backed by pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		postgresStore: postgresStore{querier: pool},
		pool:          pool,
	}
}

/*
Atomically runs fn inside a transaction that holds the tag-tree advisory lock.

Every parent-pointer write goes through this path, so a cycle check made inside
fn cannot be invalidated by a concurrent move before fn's write commits.
*/
func (repository *PostgresRepository) Atomically(context context.Context, fn func(store Store) error) error {
	err := postgres.WithTx(context, repository.pool, func(transaction pgx.Tx) error {
		if err := postgres.AdvisoryLock(context, transaction, constants.TagTreeLockKey); err != nil {
			return err
		}
		return fn(postgresStore{querier: transaction})
	})
	return dberr.Wrap(err, "tag_unit")
}

// postgresStore runs the tag queries against a pool or an open transaction.
type postgresStore struct {
	querier postgres.Querier
}

// Columns renders the tag column list, optionally qualified by alias.
func Columns(alias string) string {
	columns := schema.Tag.Columns()
	if alias != "" {
		for index, column := range columns {
			columns[index] = alias + "." + column
		}
	}
	return strings.Join(columns, ", ")
}

// Order renders the byte-wise name ordering shared with the other adapters.
func Order(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf(`%[1]s%[2]s COLLATE "C", %[1]s%[3]s COLLATE "C"`, prefix, schema.Tag.Name, schema.Tag.ID)
}

// ScanRow reads one row produced by [Columns].
func ScanRow(row pgx.Row) (*Tag, error) {
	tag := &Tag{}
	err := row.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.ParentID, &tag.CreatedAt, &tag.UpdatedAt)
	return tag, err
}

func (store postgresStore) collect(context context.Context, action, query string, args ...any) ([]*Tag, error) {
	rows, err := store.querier.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}

	tags, err := CollectRows(rows)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}

	return tags, nil
}

// CollectRows drains rows produced by [Columns].
func CollectRows(rows pgx.Rows) ([]*Tag, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Tag, error) {
		return ScanRow(row)
	})
}

func (store postgresStore) GetByID(context context.Context, id string) (*Tag, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		Columns(""), schema.Tag.Table, schema.Tag.ID)

	tag, err := ScanRow(store.querier.QueryRow(context, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_tag_by_id")
	}

	return tag, nil
}

func (store postgresStore) List(context context.Context) ([]*Tag, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		Columns(""), schema.Tag.Table, Order(""))

	return store.collect(context, "list_tags", query)
}

func (store postgresStore) ListChildren(context context.Context, parentID *string) ([]*Tag, error) {
	if parentID == nil {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NULL ORDER BY %s`,
			Columns(""), schema.Tag.Table, schema.Tag.ParentID, Order(""))
		return store.collect(context, "list_root_tags", query)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		Columns(""), schema.Tag.Table, schema.Tag.ParentID, Order(""))
	return store.collect(context, "list_child_tags", query, *parentID)
}

func (store postgresStore) Create(context context.Context, tag *Tag) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.Tag.Table, Columns(""))

	_, err := store.querier.Exec(context, query,
		tag.ID, tag.Name, tag.Color, tag.ParentID, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_tag")
	}

	return nil
}

/*
Update builds a PATCH-style SET clause from the populated Patch fields.
UpdatedAt is always written from the Patch stamp, so an empty Patch still
touches the row and the value comes from the same clock as CreatedAt.
*/
func (store postgresStore) Update(context context.Context, id string, patch Patch) (bool, error) {
	var (
		assignments []string
		args        []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set(schema.Tag.Name, *patch.Name)
	}
	if patch.Color != nil {
		set(schema.Tag.Color, *patch.Color)
	}
	if patch.Parent != nil {
		set(schema.Tag.ParentID, patch.Parent.ID)
	}
	set(schema.Tag.UpdatedAt, patch.stamp(func() time.Time { return time.Now().UTC() }))

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		schema.Tag.Table, strings.Join(assignments, ", "), schema.Tag.ID, len(args))

	result, err := store.querier.Exec(context, query, args...)
	if err != nil {
		return false, dberr.Wrap(err, "update_tag")
	}

	return result.RowsAffected() == 1, nil
}

// Delete removes the junction rows and the tag row in one transaction.
func (store postgresStore) Delete(context context.Context, id string) (bool, error) {
	var found bool

	err := postgres.WithTx(context, store.querier, func(transaction pgx.Tx) error {
		unlink := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.NoteTag.Table, schema.NoteTag.TagID)
		if _, err := transaction.Exec(context, unlink, id); err != nil {
			return err
		}

		remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Tag.Table, schema.Tag.ID)
		result, err := transaction.Exec(context, remove, id)
		if err != nil {
			return err
		}

		found = result.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, dberr.Wrap(err, "delete_tag")
	}

	return found, nil
}

// # Native Closure

/*
Descendants walks child edges with a recursive CTE.

UNION (not UNION ALL) discards ids already produced, which makes the walk
terminate even if the stored parent pointers contain a cycle.
*/
func (store postgresStore) Descendants(context context.Context, id string) ([]*Tag, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT %[3]s FROM %[1]s WHERE %[4]s = $1
			UNION
			SELECT child.%[3]s FROM %[1]s child JOIN subtree ON child.%[4]s = subtree.%[3]s
		)
		SELECT %[2]s FROM %[1]s
		WHERE %[3]s IN (SELECT %[3]s FROM subtree) AND %[3]s <> $1
		ORDER BY %[5]s
	`, schema.Tag.Table, Columns(""), schema.Tag.ID, schema.Tag.ParentID, Order(""))

	return store.collect(context, "list_tag_descendants", query, id)
}

/*
Ancestors follows parent pointers with a recursive CTE bounded by the tag count.

The bound guarantees termination on a corrupt cyclic chain; the chain is then
cut at the first repeated tag so the result matches the in-memory walker.
*/
func (store postgresStore) Ancestors(context context.Context, id string) ([]*Tag, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT parent.%[3]s, parent.%[4]s, 1 AS depth
			FROM %[1]s child JOIN %[1]s parent ON parent.%[3]s = child.%[4]s
			WHERE child.%[3]s = $1
			UNION ALL
			SELECT parent.%[3]s, parent.%[4]s, chain.depth + 1
			FROM chain JOIN %[1]s parent ON parent.%[3]s = chain.%[4]s
			WHERE chain.depth < (SELECT count(*) FROM %[1]s)
		)
		SELECT %[2]s FROM chain JOIN %[1]s t ON t.%[3]s = chain.%[3]s
		ORDER BY chain.depth
	`, schema.Tag.Table, Columns("t"), schema.Tag.ID, schema.Tag.ParentID)

	chain, err := store.collect(context, "list_tag_ancestors", query, id)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{id: true}
	for index, ancestor := range chain {
		if seen[ancestor.ID] {
			return chain[:index], nil
		}
		seen[ancestor.ID] = true
	}

	return chain, nil
}
