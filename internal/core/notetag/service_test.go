// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/notetag"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/memdb"
	"github.com/taibuivan/tagtree/internal/platform/postgres/pgtest"
	"github.com/taibuivan/tagtree/internal/platform/redis/redistest"
)

// fixture holds the three stores of one backend sharing the same data.
type fixture struct {
	tags  *tag.Service
	notes *note.Service
	links notetag.Repository
	query *notetag.QueryService

	// tick separates two note writes in time.
	tick func()
}

type stores struct {
	tags  tag.Repository
	notes note.Repository
	links notetag.Repository
	tick  func()
}

type clock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func newClock() *clock {
	return &clock{current: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

var backends = []struct {
	name string
	open func(t *testing.T) stores
}{
	{"memory", func(t *testing.T) stores {
		db := memdb.New(memdb.WithClock(newClock().Now))
		return stores{
			tags:  tag.NewMemoryRepository(db),
			notes: note.NewMemoryRepository(db),
			links: notetag.NewMemoryRepository(db),
			tick:  func() {},
		}
	}},
	{"redis", func(t *testing.T) stores {
		client, _ := redistest.New(t)
		return stores{
			tags:  tag.NewRedisRepository(client, redistest.Attempts),
			notes: note.NewRedisRepository(client, redistest.Attempts, note.WithClock(newClock().Now)),
			links: notetag.NewRedisRepository(client, redistest.Attempts),
			tick:  func() {},
		}
	}},
	{"postgres", func(t *testing.T) stores {
		pool := pgtest.Open(t)
		return stores{
			tags:  tag.NewPostgresRepository(pool),
			notes: note.NewPostgresRepository(pool),
			links: notetag.NewPostgresRepository(pool),
			tick:  func() { time.Sleep(5 * time.Millisecond) },
		}
	}},
}

func eachBackend(t *testing.T, run func(t *testing.T, f *fixture)) {
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			opened := backend.open(t)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			tags := tag.NewService(opened.tags, logger)

			run(t, &fixture{
				tags:  tags,
				notes: note.NewService(opened.notes, logger),
				links: opened.links,
				query: notetag.NewQueryService(opened.links, opened.notes, tags.Hierarchy(), logger),
				tick:  opened.tick,
			})
		})
	}
}

func (f *fixture) tag(t *testing.T, name string, parentID *string) string {
	t.Helper()
	created, err := f.tags.CreateTag(context.Background(), tag.CreateInput{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return created.ID
}

func (f *fixture) note(t *testing.T, id string) {
	t.Helper()
	_, err := f.notes.Upsert(context.Background(), id, id)
	require.NoError(t, err)
	f.tick()
}

func (f *fixture) link(t *testing.T, noteID string, tagIDs ...string) {
	t.Helper()
	for _, tagID := range tagIDs {
		_, err := f.query.Tag(context.Background(), noteID, tagID)
		require.NoError(t, err)
	}
}

func noteIDs(notes []*note.Note) []string {
	result := make([]string, len(notes))
	for index, note := range notes {
		result[index] = note.ID
	}
	return result
}

/*
TestQuery_WorkProjectUrgent checks the reference scenario: a note tagged only
with a grandchild matches its grandparent once descendants are included.
*/
func TestQuery_WorkProjectUrgent(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		work := f.tag(t, "Work", nil)
		projectA := f.tag(t, "Project-A", &work)
		urgent := f.tag(t, "Urgent", &projectA)

		f.note(t, "N1")
		f.link(t, "N1", urgent)

		withDescendants, err := f.query.ByAnyTagOrDescendants(ctx, []string{work}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"N1"}, noteIDs(withDescendants))

		direct, err := f.query.ByAnyTag(ctx, []string{work})
		require.NoError(t, err)
		assert.Empty(t, direct)

		withoutExpansion, err := f.query.ByAnyTagOrDescendants(ctx, []string{work}, false)
		require.NoError(t, err)
		assert.Empty(t, withoutExpansion)
	})
}

func TestQuery_AnyAndAll(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		blue := f.tag(t, "Blue", nil)
		green := f.tag(t, "Green", nil)

		// Written in this order, so the most recent is n4.
		f.note(t, "n1")
		f.note(t, "n2")
		f.note(t, "n3")
		f.note(t, "n4")
		f.link(t, "n1", red)
		f.link(t, "n2", red, blue)
		f.link(t, "n3", blue, green)

		tests := []struct {
			name  string
			query func() ([]*note.Note, error)
			want  []string
		}{
			{"any_single", func() ([]*note.Note, error) { return f.query.ByAnyTag(ctx, []string{red}) }, []string{"n2", "n1"}},
			{"any_union_dedup", func() ([]*note.Note, error) { return f.query.ByAnyTag(ctx, []string{red, blue, red}) }, []string{"n3", "n2", "n1"}},
			{"any_empty", func() ([]*note.Note, error) { return f.query.ByAnyTag(ctx, nil) }, []string{}},
			{"any_unknown", func() ([]*note.Note, error) { return f.query.ByAnyTag(ctx, []string{"missing"}) }, []string{}},
			{"all_pair", func() ([]*note.Note, error) { return f.query.ByAllTags(ctx, []string{red, blue}) }, []string{"n2"}},
			{"all_duplicates", func() ([]*note.Note, error) { return f.query.ByAllTags(ctx, []string{blue, blue}) }, []string{"n3", "n2"}},
			{"all_with_unknown", func() ([]*note.Note, error) { return f.query.ByAllTags(ctx, []string{red, "missing"}) }, []string{}},
			{"all_vacuous", func() ([]*note.Note, error) { return f.query.ByAllTags(ctx, []string{}) }, []string{"n4", "n3", "n2", "n1"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := tt.query()
				require.NoError(t, err)
				assert.Equal(t, tt.want, noteIDs(got))
			})
		}
	})
}

/*
TestQuery_AnySubsetOfDescendants checks that expanding descendants never loses
a direct match.
*/
func TestQuery_AnySubsetOfDescendants(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		root := f.tag(t, "Root", nil)
		child := f.tag(t, "Child", &root)
		leaf := f.tag(t, "Leaf", &child)
		other := f.tag(t, "Other", nil)

		f.note(t, "a")
		f.note(t, "b")
		f.note(t, "c")
		f.link(t, "a", root)
		f.link(t, "b", leaf)
		f.link(t, "c", other, child)

		for _, query := range [][]string{{root}, {child}, {leaf}, {other}, {root, other}, {}} {
			direct, err := f.query.ByAnyTag(ctx, query)
			require.NoError(t, err)
			expanded, err := f.query.ByAnyTagOrDescendants(ctx, query, true)
			require.NoError(t, err)

			assert.Subset(t, noteIDs(expanded), noteIDs(direct), "query %v", query)
		}

		expanded, err := f.query.ByAnyTagOrDescendants(ctx, []string{root}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, noteIDs(expanded))
	})
}

func TestQuery_IdempotentAdd(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		f.note(t, "n1")

		first, err := f.query.Tag(ctx, "n1", red)
		require.NoError(t, err)
		assert.Equal(t, notetag.Inserted, first)

		second, err := f.query.Tag(ctx, "n1", red)
		require.NoError(t, err)
		assert.Equal(t, notetag.AlreadyPresent, second)

		notes, err := f.query.NotesOf(ctx, red)
		require.NoError(t, err)
		assert.Equal(t, []string{"n1"}, notes)

		tags, err := f.query.TagsOf(ctx, "n1")
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, red, tags[0].ID)
	})
}

func TestQuery_AddRequiresEndpoints(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		f.note(t, "n1")

		_, err := f.query.Tag(ctx, "missing", red)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "got %v", err)

		_, err = f.query.Tag(ctx, "n1", "missing")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound), "got %v", err)

		_, err = f.query.Tag(ctx, " ", red)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "got %v", err)
	})
}

func TestQuery_Untag(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		f.note(t, "n1")
		f.link(t, "n1", red)

		require.NoError(t, f.query.Untag(ctx, "n1", red))

		err := f.query.Untag(ctx, "n1", red)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		notes, err := f.query.ByAnyTag(ctx, []string{red})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

/*
TestQuery_DeleteTagCascades checks that deleting a tag removes its pairs and
leaves its children dangling.
*/
func TestQuery_DeleteTagCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		parent := f.tag(t, "Parent", nil)
		child := f.tag(t, "Child", &parent)
		f.note(t, "n1")
		f.link(t, "n1", parent, child)

		require.NoError(t, f.tags.DeleteTag(ctx, parent))

		notes, err := f.query.NotesOf(ctx, parent)
		require.NoError(t, err)
		assert.Empty(t, notes)

		tags, err := f.query.TagsOf(ctx, "n1")
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, child, tags[0].ID)

		remaining, err := f.tags.GetTag(ctx, child)
		require.NoError(t, err)
		require.NotNil(t, remaining.ParentID)
		assert.Equal(t, parent, *remaining.ParentID)
	})
}

func TestQuery_DeleteNoteCascades(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		blue := f.tag(t, "Blue", nil)
		f.note(t, "n1")
		f.note(t, "n2")
		f.link(t, "n1", red, blue)
		f.link(t, "n2", red)

		require.NoError(t, f.notes.Delete(ctx, "n1"))

		notes, err := f.query.NotesOf(ctx, red)
		require.NoError(t, err)
		assert.Equal(t, []string{"n2"}, notes)

		notes, err = f.query.NotesOf(ctx, blue)
		require.NoError(t, err)
		assert.Empty(t, notes)

		all, err := f.query.ByAllTags(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"n2"}, noteIDs(all))
	})
}

func TestRepository_RemoveAllForNote(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		red := f.tag(t, "Red", nil)
		blue := f.tag(t, "Blue", nil)
		f.note(t, "n1")
		f.link(t, "n1", red, blue)

		removed, err := f.links.RemoveAllForNote(ctx, "n1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		removed, err = f.links.RemoveAllForNote(ctx, "n1")
		require.NoError(t, err)
		assert.Zero(t, removed)

		tags, err := f.links.TagsOf(ctx, "n1")
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

/*
TestQuery_ManyTagIDs passes more ids than a single HTTP query may carry, with
duplicates, blanks and unknown ids mixed in. The service matches them all.
*/
func TestQuery_ManyTagIDs(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		work := f.tag(t, "Work", nil)
		home := f.tag(t, "Home", nil)
		f.note(t, "n1")
		f.note(t, "n2")
		f.note(t, "n3")
		f.link(t, "n1", work)
		f.link(t, "n2", work)
		f.link(t, "n2", home)

		tagIDs := []string{work, " " + work + " ", "", home}
		for index := 0; len(tagIDs) <= constants.MaxQueryTags; index++ {
			tagIDs = append(tagIDs, fmt.Sprintf("unknown-%d", index), work)
		}

		anyNotes, err := f.query.ByAnyTag(ctx, tagIDs)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"n1", "n2"}, noteIDs(anyNotes))

		allNotes, err := f.query.ByAllTags(ctx, tagIDs)
		require.NoError(t, err)
		assert.Empty(t, allNotes)

		allNotes, err = f.query.ByAllTags(ctx, []string{work, home, work, " " + home, ""})
		require.NoError(t, err)
		assert.Equal(t, []string{"n2"}, noteIDs(allNotes))

		unknown := make([]string, constants.MaxQueryTags+1)
		for index := range unknown {
			unknown[index] = fmt.Sprintf("missing-%d", index)
		}
		anyNotes, err = f.query.ByAnyTagOrDescendants(ctx, unknown, true)
		require.NoError(t, err)
		assert.Empty(t, anyNotes)
	})
}
