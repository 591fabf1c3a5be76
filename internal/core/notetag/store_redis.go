// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"context"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/dberr"
	redisstore "github.com/taibuivan/tagtree/internal/platform/redis"
	"github.com/taibuivan/tagtree/pkg/slice"
)

/*
RedisRepository keeps both directions of the junction.

  - tagtree:notetag:bynote:{noteID} is a hash of tagID to link time.
  - tagtree:notetag:bytag:{tagID} is a set of noteIDs.

Both sides are always written in the same MULTI/EXEC.
*/
type RedisRepository struct {
	client   *redis.Client
	attempts int
}

func NewRedisRepository(client *redis.Client, attempts int) *RedisRepository {
	return &RedisRepository{client: client, attempts: attempts}
}

func byNoteKey(noteID string) string {
	return constants.RedisPrefixNoteTags + noteID
}

func byTagKey(tagID string) string {
	return constants.RedisPrefixTagNotes + tagID
}

/*
Add links the pair once both endpoints are confirmed.

The tag hash, the note hash and the note's tag hash are watched, so a delete
of either endpoint between the check and the EXEC replays the unit.
*/
func (repository *RedisRepository) Add(context context.Context, noteID, tagID string) (AddResult, error) {
	var result AddResult

	watched := []string{constants.RedisPrefixNote + noteID, constants.RedisPrefixTag + tagID, byNoteKey(noteID)}

	err := redisstore.Optimistic(context, repository.client, "notetag_add", repository.attempts, func(tx *redis.Tx) error {
		exists, err := tx.Exists(context, constants.RedisPrefixNote+noteID).Result()
		if err != nil {
			return dberr.WrapRedis(err, "check_note")
		}
		if exists == 0 {
			return apperr.NotFound("Note")
		}

		exists, err = tx.Exists(context, constants.RedisPrefixTag+tagID).Result()
		if err != nil {
			return dberr.WrapRedis(err, "check_tag")
		}
		if exists == 0 {
			return apperr.NotFound("Tag")
		}

		linked, err := tx.HExists(context, byNoteKey(noteID), tagID).Result()
		if err != nil {
			return dberr.WrapRedis(err, "check_note_tag")
		}
		if linked {
			result = AlreadyPresent
			return nil
		}

		_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
			pipe.HSet(context, byNoteKey(noteID), tagID, time.Now().UTC().Format(time.RFC3339Nano))
			pipe.SAdd(context, byTagKey(tagID), noteID)
			return nil
		})
		result = Inserted
		return err
	}, watched...)
	if err != nil {
		return 0, dberr.WrapRedis(err, "add_note_tag")
	}

	return result, nil
}

func (repository *RedisRepository) Remove(context context.Context, noteID, tagID string) (bool, error) {
	var removed *redis.IntCmd

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(context, byNoteKey(noteID), tagID)
		pipe.SRem(context, byTagKey(tagID), noteID)
		return nil
	})
	if err != nil {
		return false, dberr.WrapRedis(err, "remove_note_tag")
	}

	return removed.Val() == 1, nil
}

func (repository *RedisRepository) TagsOf(context context.Context, noteID string) ([]*tag.Tag, error) {
	tagIDs, err := repository.client.HKeys(context, byNoteKey(noteID)).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_note_tags")
	}
	return tag.LoadTagsByID(context, repository.client, tagIDs)
}

func (repository *RedisRepository) NotesOf(context context.Context, tagID string) ([]string, error) {
	noteIDs, err := repository.client.SMembers(context, byTagKey(tagID)).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "list_tag_notes")
	}

	slices.Sort(noteIDs)
	return noteIDs, nil
}

func (repository *RedisRepository) RemoveAllForNote(context context.Context, noteID string) (int, error) {
	var removed int

	err := redisstore.Optimistic(context, repository.client, "notetag_clear", repository.attempts, func(tx *redis.Tx) error {
		tagIDs, err := tx.HKeys(context, byNoteKey(noteID)).Result()
		if err != nil {
			return dberr.WrapRedis(err, "list_note_tags")
		}

		removed = len(tagIDs)
		if removed == 0 {
			return nil
		}

		_, err = tx.TxPipelined(context, func(pipe redis.Pipeliner) error {
			pipe.Del(context, byNoteKey(noteID))
			for _, tagID := range tagIDs {
				pipe.SRem(context, byTagKey(tagID), noteID)
			}
			return nil
		})
		return err
	}, byNoteKey(noteID))
	if err != nil {
		return 0, dberr.WrapRedis(err, "remove_note_tags")
	}

	return removed, nil
}

func (repository *RedisRepository) NotesWithAny(context context.Context, tagIDs []string) ([]*note.Note, error) {
	if len(tagIDs) == 0 {
		return []*note.Note{}, nil
	}

	noteIDs, err := repository.client.SUnion(context, byTagKeys(tagIDs)...).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "notes_with_any")
	}
	return note.LoadNotesByID(context, repository.client, noteIDs)
}

func (repository *RedisRepository) NotesWithAll(context context.Context, tagIDs []string) ([]*note.Note, error) {
	if len(tagIDs) == 0 {
		return []*note.Note{}, nil
	}

	noteIDs, err := repository.client.SInter(context, byTagKeys(tagIDs)...).Result()
	if err != nil {
		return nil, dberr.WrapRedis(err, "notes_with_all")
	}
	return note.LoadNotesByID(context, repository.client, noteIDs)
}

func byTagKeys(tagIDs []string) []string {
	return slice.Map(tagIDs, byTagKey)
}
