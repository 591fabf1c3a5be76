// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
	redisstore "github.com/taibuivan/tagtree/internal/platform/redis"
	"github.com/taibuivan/tagtree/pkg/pointer"
)

// Hash fields of a tag record.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldColor     = "color"
	fieldParentID  = "parent_id"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// RedisRepository is the Tag Store over the tagtree:* key space.
//
// Every write runs as an optimistic unit watching the tag revision key and
// bumps that key in the same MULTI/EXEC.
type RedisRepository struct {
	client   *redis.Client
	attempts int
}

// NewRedisRepository returns a Repository on client. attempts bounds the
// replays of a unit that lost an optimistic race.
func NewRedisRepository(client *redis.Client, attempts int) *RedisRepository {
	return &RedisRepository{client: client, attempts: attempts}
}

func tagKey(id string) string {
	return constants.RedisPrefixTag + id
}

func tagNotesKey(id string) string {
	return constants.RedisPrefixTagNotes + id
}

func (repository *RedisRepository) GetByID(context context.Context, id string) (*Tag, error) {
	return loadTag(context, repository.client, id)
}

func (repository *RedisRepository) List(context context.Context) ([]*Tag, error) {
	return loadTags(context, repository.client)
}

func (repository *RedisRepository) ListChildren(context context.Context, parentID *string) ([]*Tag, error) {
	tags, err := loadTags(context, repository.client)
	if err != nil {
		return nil, err
	}
	return childrenOf(tags, parentID), nil
}

func (repository *RedisRepository) Create(context context.Context, tag *Tag) error {
	return repository.Atomically(context, func(store Store) error {
		return store.Create(context, tag)
	})
}

func (repository *RedisRepository) Update(context context.Context, id string, patch Patch) (found bool, err error) {
	err = repository.Atomically(context, func(store Store) error {
		found, err = store.Update(context, id, patch)
		return err
	})
	return found, err
}

func (repository *RedisRepository) Delete(context context.Context, id string) (found bool, err error) {
	err = repository.Atomically(context, func(store Store) error {
		found, err = store.Delete(context, id)
		return err
	})
	return found, err
}

/*
Atomically runs fn as a WATCH unit on the tag revision key.

Reads inside fn see the state as of the WATCH. Writes are queued and applied
in a single MULTI/EXEC together with a revision bump, so a concurrent tag write
aborts the EXEC and the whole unit, reads included, is replayed. Reads do not
observe writes queued earlier in the same unit.
*/
func (repository *RedisRepository) Atomically(context context.Context, fn func(store Store) error) error {
	err := redisstore.Optimistic(context, repository.client, "tag_unit", repository.attempts, func(tx *redis.Tx) error {
		store := &redisStore{tx: tx}
		if err := fn(store); err != nil {
			return err
		}

		if len(store.writes) == 0 {
			return nil
		}

		_, err := tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
			for _, write := range store.writes {
				write(pipe)
			}
			pipe.Incr(context, constants.RedisKeyTagRevision)
			return nil
		})
		return err
	}, constants.RedisKeyTagRevision)

	return dberr.WrapRedis(err, "tag_unit")
}

// redisStore is the Store handed to a unit. It reads through the WATCH
// connection and buffers writes until the unit returns.
type redisStore struct {
	tx     *redis.Tx
	writes []func(pipe redis.Pipeliner)
}

func (store *redisStore) queue(write func(pipe redis.Pipeliner)) {
	store.writes = append(store.writes, write)
}

func (store *redisStore) GetByID(context context.Context, id string) (*Tag, error) {
	return loadTag(context, store.tx, id)
}

func (store *redisStore) List(context context.Context) ([]*Tag, error) {
	return loadTags(context, store.tx)
}

func (store *redisStore) ListChildren(context context.Context, parentID *string) ([]*Tag, error) {
	tags, err := loadTags(context, store.tx)
	if err != nil {
		return nil, err
	}
	return childrenOf(tags, parentID), nil
}

func (store *redisStore) Create(context context.Context, tag *Tag) error {
	fields := encodeTag(tag)
	store.queue(func(pipe redis.Pipeliner) {
		pipe.HSet(context, tagKey(tag.ID), fields)
		pipe.SAdd(context, constants.RedisKeyTagIndex, tag.ID)
	})
	return nil
}

func (store *redisStore) Update(context context.Context, id string, patch Patch) (bool, error) {
	current, err := loadTag(context, store.tx, id)
	if err != nil || current == nil {
		return false, err
	}

	fields := map[string]any{
		fieldUpdatedAt: formatTime(patch.stamp(func() time.Time { return time.Now().UTC() })),
	}
	if patch.Name != nil {
		fields[fieldName] = *patch.Name
	}
	if patch.Color != nil {
		fields[fieldColor] = *patch.Color
	}

	clearParent := false
	if patch.Parent != nil {
		if patch.Parent.ID == nil {
			clearParent = true
		} else {
			fields[fieldParentID] = *patch.Parent.ID
		}
	}

	store.queue(func(pipe redis.Pipeliner) {
		pipe.HSet(context, tagKey(id), fields)
		if clearParent {
			pipe.HDel(context, tagKey(id), fieldParentID)
		}
	})

	return true, nil
}

/*
Delete removes the tag hash, its index entry and both sides of every
association in one EXEC.

The tag's note set is watched as well, so an association added after it was
read aborts the unit instead of leaving a reference to the deleted tag.
*/
func (store *redisStore) Delete(context context.Context, id string) (bool, error) {
	if err := store.tx.Watch(context, tagNotesKey(id)).Err(); err != nil {
		return false, dberr.WrapRedis(err, "watch_tag_notes")
	}

	current, err := loadTag(context, store.tx, id)
	if err != nil || current == nil {
		return false, err
	}

	noteIDs, err := store.tx.SMembers(context, tagNotesKey(id)).Result()
	if err != nil {
		return false, dberr.WrapRedis(err, "list_tag_notes")
	}

	store.queue(func(pipe redis.Pipeliner) {
		pipe.Del(context, tagKey(id), tagNotesKey(id))
		pipe.SRem(context, constants.RedisKeyTagIndex, id)
		for _, noteID := range noteIDs {
			pipe.HDel(context, constants.RedisPrefixNoteTags+noteID, id)
		}
	})

	return true, nil
}

// # Loading and Encoding

func loadTag(context context.Context, reader redisstore.Reader, id string) (*Tag, error) {
	fields, err := reader.HGetAll(context, tagKey(id)).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "get_tag_by_id")
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeTag(fields)
}

func loadTags(context context.Context, reader redisstore.Reader) ([]*Tag, error) {
	ids, err := reader.SMembers(context, constants.RedisKeyTagIndex).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_tag_ids")
	}
	return LoadTagsByID(context, reader, ids)
}

// LoadTagsByID fetches the given tags in one pipeline, skipping ids with no
// record, ordered by name, then id. It is shared with the association adapter.
func LoadTagsByID(context context.Context, reader redisstore.Reader, ids []string) ([]*Tag, error) {
	commands := make([]*redis.MapStringStringCmd, len(ids))
	_, err := reader.Pipelined(context, func(pipe redis.Pipeliner) error {
		for index, id := range ids {
			commands[index] = pipe.HGetAll(context, tagKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_tags")
	}

	tags := make([]*Tag, 0, len(ids))
	for _, command := range commands {
		fields := command.Val()
		if len(fields) == 0 {
			continue
		}

		tag, err := decodeTag(fields)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	slices.SortFunc(tags, Compare)
	return tags, nil
}

func childrenOf(tags []*Tag, parentID *string) []*Tag {
	children := make([]*Tag, 0)
	for _, tag := range tags {
		if pointer.Equal(tag.ParentID, parentID) {
			children = append(children, tag)
		}
	}
	return children
}

func encodeTag(tag *Tag) map[string]any {
	fields := map[string]any{
		fieldID:        tag.ID,
		fieldName:      tag.Name,
		fieldColor:     tag.Color,
		fieldCreatedAt: formatTime(tag.CreatedAt),
		fieldUpdatedAt: formatTime(tag.UpdatedAt),
	}
	if tag.ParentID != nil {
		fields[fieldParentID] = *tag.ParentID
	}
	return fields
}

func decodeTag(fields map[string]string) (*Tag, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, dberr.WrapRedis(fmt.Errorf("tag %s: %w", fields[fieldID], err), "decode_tag")
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, dberr.WrapRedis(fmt.Errorf("tag %s: %w", fields[fieldID], err), "decode_tag")
	}

	tag := &Tag{
		ID:        fields[fieldID],
		Name:      fields[fieldName],
		Color:     fields[fieldColor],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if parentID, ok := fields[fieldParentID]; ok {
		tag.ParentID = &parentID
	}

	return tag, nil
}

func formatTime(instant time.Time) string {
	return instant.UTC().Format(time.RFC3339Nano)
}
