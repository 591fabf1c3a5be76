// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
	redisstore "github.com/taibuivan/tagtree/internal/platform/redis"
)

// Hash fields of a note record.
const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// RedisRepository is the Note Registry over the tagtree:note* key space.
type RedisRepository struct {
	client   *redis.Client
	attempts int
	now      func() time.Time
}

// RedisOption configures a [RedisRepository].
type RedisOption func(*RedisRepository)

// WithClock replaces the wall clock used for note timestamps.
func WithClock(now func() time.Time) RedisOption {
	return func(repository *RedisRepository) { repository.now = now }
}

func NewRedisRepository(client *redis.Client, attempts int, opts ...RedisOption) *RedisRepository {
	repository := &RedisRepository{
		client:   client,
		attempts: attempts,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(repository)
	}
	return repository
}

func noteKey(id string) string {
	return constants.RedisPrefixNote + id
}

func noteTagsKey(id string) string {
	return constants.RedisPrefixNoteTags + id
}

func (repository *RedisRepository) Upsert(context context.Context, id, title string) (*Note, error) {
	var note *Note

	err := redisstore.Optimistic(context, repository.client, "note_upsert", repository.attempts, func(tx *redis.Tx) error {
		existing, err := LoadNote(context, tx, id)
		if err != nil {
			return err
		}

		now := repository.now()
		note = &Note{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}
		if existing != nil {
			note.CreatedAt = existing.CreatedAt
		}

		_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
			pipe.HSet(context, noteKey(id), map[string]any{
				fieldID:        note.ID,
				fieldTitle:     note.Title,
				fieldCreatedAt: note.CreatedAt.Format(time.RFC3339Nano),
				fieldUpdatedAt: note.UpdatedAt.Format(time.RFC3339Nano),
			})
			pipe.ZAdd(context, constants.RedisKeyNoteIndex, redis.Z{
				Score:  float64(note.UpdatedAt.UnixMilli()),
				Member: id,
			})
			return nil
		})
		return err
	}, noteKey(id))
	if err != nil {
		return nil, dberr.WrapRedis(err, "upsert_note")
	}

	return note, nil
}

func (repository *RedisRepository) GetByID(context context.Context, id string) (*Note, error) {
	return LoadNote(context, repository.client, id)
}

func (repository *RedisRepository) List(context context.Context) ([]*Note, error) {
	ids, err := repository.client.ZRange(context, constants.RedisKeyNoteIndex, 0, -1).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_note_ids")
	}
	return LoadNotesByID(context, repository.client, ids)
}

/*
Delete removes the note hash, its index entry and both sides of every
association in one EXEC. The note's tag hash is watched, so an association
added concurrently replays the unit.
*/
func (repository *RedisRepository) Delete(context context.Context, id string) (bool, error) {
	var found bool

	err := redisstore.Optimistic(context, repository.client, "note_delete", repository.attempts, func(tx *redis.Tx) error {
		existing, err := LoadNote(context, tx, id)
		if err != nil {
			return err
		}
		found = existing != nil
		if !found {
			return nil
		}

		tagIDs, err := tx.HKeys(context, noteTagsKey(id)).Result()
		if err != nil {
			return dberr.WrapRedis(err, "list_note_tags")
		}

		_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
			pipe.Del(context, noteKey(id), noteTagsKey(id))
			pipe.ZRem(context, constants.RedisKeyNoteIndex, id)
			for _, tagID := range tagIDs {
				pipe.SRem(context, constants.RedisPrefixTagNotes+tagID, id)
			}
			return nil
		})
		return err
	}, noteKey(id), noteTagsKey(id))
	if err != nil {
		return false, dberr.WrapRedis(err, "delete_note")
	}

	return found, nil
}

// # Loading

// LoadNote reads one note hash. It returns nil and no error when absent.
func LoadNote(context context.Context, reader redisstore.Reader, id string) (*Note, error) {
	fields, err := reader.HGetAll(context, noteKey(id)).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "get_note_by_id")
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeNote(fields)
}

// LoadNotesByID fetches the given notes in one pipeline, skipping ids with no
// record, ordered by [Compare].
func LoadNotesByID(context context.Context, reader redisstore.Reader, ids []string) ([]*Note, error) {
	commands := make([]*redis.MapStringStringCmd, len(ids))
	_, err := reader.Pipelined(context, func(pipe redis.Pipeliner) error {
		for index, id := range ids {
			commands[index] = pipe.HGetAll(context, noteKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_notes")
	}

	notes := make([]*Note, 0, len(ids))
	for _, command := range commands {
		fields := command.Val()
		if len(fields) == 0 {
			continue
		}

		note, err := decodeNote(fields)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	slices.SortFunc(notes, Compare)
	return notes, nil
}

func decodeNote(fields map[string]string) (*Note, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return nil, dberr.WrapRedis(fmt.Errorf("note %s: %w", fields[fieldID], err), "decode_note")
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		return nil, dberr.WrapRedis(fmt.Errorf("note %s: %w", fields[fieldID], err), "decode_note")
	}

	return &Note{
		ID:        fields[fieldID],
		Title:     fields[fieldTitle],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
