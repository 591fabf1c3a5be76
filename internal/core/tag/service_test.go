// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/metrics"
	redisstore "github.com/taibuivan/tagtree/internal/platform/redis"
	"github.com/taibuivan/tagtree/pkg/pointer"
)

func create(t *testing.T, service *tag.Service, name string, parentID *string) *tag.Tag {
	t.Helper()
	created, err := service.CreateTag(context.Background(), tag.CreateInput{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return created
}

/*
TestService_WorkProjectUrgent walks the reference scenario end to end.
*/
func TestService_WorkProjectUrgent(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		work := create(t, service, "Work", nil)
		projectA := create(t, service, "Project-A", &work.ID)
		urgent := create(t, service, "Urgent", &projectA.ID)

		ancestors, err := service.Ancestors(ctx, urgent.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{projectA.ID, work.ID}, ids(ancestors))

		descendants, err := service.Descendants(ctx, work.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{projectA.ID, urgent.ID}, ids(descendants))

		err = service.MoveTag(ctx, work.ID, &urgent.ID)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeCycle))

		unchanged, err := service.GetTag(ctx, work.ID)
		require.NoError(t, err)
		assert.Nil(t, unchanged.ParentID)
	})
}

func TestService_CreateTag(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		t.Run("defaults_and_normalizes", func(t *testing.T) {
			created, err := service.CreateTag(ctx, tag.CreateInput{Name: "  Café  ", Color: pointer.To("  ")})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "Café", created.Name)
			assert.Equal(t, constants.DefaultTagColor, created.Color)
			assert.Nil(t, created.ParentID)
		})

		t.Run("blank_name", func(t *testing.T) {
			_, err := service.CreateTag(ctx, tag.CreateInput{Name: " \t "})
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})

		t.Run("name_too_long", func(t *testing.T) {
			_, err := service.CreateTag(ctx, tag.CreateInput{Name: strings.Repeat("x", constants.MaxTagNameLength+1)})
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})

		t.Run("missing_parent", func(t *testing.T) {
			_, err := service.CreateTag(ctx, tag.CreateInput{Name: "Orphan", ParentID: pointer.To("missing")})
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

			all, err := service.ListTags(ctx)
			require.NoError(t, err)
			for _, existing := range all {
				assert.NotEqual(t, "Orphan", existing.Name)
			}
		})

		t.Run("with_parent", func(t *testing.T) {
			parent := create(t, service, "Parent", nil)
			child := create(t, service, "Child", &parent.ID)
			require.NotNil(t, child.ParentID)
			assert.Equal(t, parent.ID, *child.ParentID)
		})
	})
}

func TestService_RenameAndRecolor(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())
		created := create(t, service, "Old", nil)

		require.NoError(t, service.RenameTag(ctx, created.ID, " New "))
		require.NoError(t, service.RecolorTag(ctx, created.ID, "#123456"))

		got, err := service.GetTag(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
		assert.Equal(t, "#123456", got.Color)

		require.NoError(t, service.RecolorTag(ctx, created.ID, ""))
		got, err = service.GetTag(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.DefaultTagColor, got.Color)

		err = service.RenameTag(ctx, created.ID, "")
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

		err = service.RenameTag(ctx, "missing", "Name")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		err = service.RecolorTag(ctx, "missing", "#000000")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestService_UpdateTag validates every field before writing, so a rejected edit
leaves the stored tag exactly as it was.
*/
func TestService_UpdateTag(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())
		created := create(t, service, "Work", nil)

		require.NoError(t, service.UpdateTag(ctx, created.ID, tag.PatchInput{
			Name:  pointer.To(" Office "),
			Color: pointer.To("#abcdef"),
		}))
		got, err := service.GetTag(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Office", got.Name)
		assert.Equal(t, "#abcdef", got.Color)

		tests := []struct {
			name  string
			input tag.PatchInput
		}{
			{"nothing", tag.PatchInput{}},
			{"color_too_long", tag.PatchInput{Name: pointer.To("Renamed"), Color: pointer.To(strings.Repeat("c", constants.MaxTagColorLength+1))}},
			{"blank_name", tag.PatchInput{Name: pointer.To("  "), Color: pointer.To("#000000")}},
			{"control_in_name", tag.PatchInput{Name: pointer.To("Re\nnamed")}},
			{"control_in_color", tag.PatchInput{Name: pointer.To("Renamed"), Color: pointer.To("#000\x00")}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := service.UpdateTag(ctx, created.ID, tt.input)
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "got %v", err)

				unchanged, err := service.GetTag(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "Office", unchanged.Name)
				assert.Equal(t, "#abcdef", unchanged.Color)
			})
		}

		err = service.UpdateTag(ctx, "missing", tag.PatchInput{Name: pointer.To("Name")})
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}

/*
TestService_UpdatedAtFollowsServiceClock checks that every write stamps
UpdatedAt from the same clock that set CreatedAt.
*/
func TestService_UpdatedAtFollowsServiceClock(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		instant := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		service := tag.NewService(repo, discardLogger(), tag.WithClock(func() time.Time { return instant }))

		parent := create(t, service, "Parent", nil)
		child := create(t, service, "Child", nil)
		assert.True(t, instant.Equal(child.CreatedAt))

		instant = instant.Add(time.Hour)
		require.NoError(t, service.RenameTag(ctx, child.ID, "Renamed"))
		got, err := service.GetTag(ctx, child.ID)
		require.NoError(t, err)
		assert.True(t, instant.Equal(got.UpdatedAt), "updated_at %v", got.UpdatedAt)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

		instant = instant.Add(time.Hour)
		require.NoError(t, service.MoveTag(ctx, child.ID, &parent.ID))
		got, err = service.GetTag(ctx, child.ID)
		require.NoError(t, err)
		assert.True(t, instant.Equal(got.UpdatedAt), "updated_at %v", got.UpdatedAt)
	})
}

func TestService_BlankParentID(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())
		root := create(t, service, "Root", nil)

		_, err := service.CreateTag(ctx, tag.CreateInput{Name: "Child", ParentID: pointer.To(" \t ")})
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "got %v", err)

		err = service.MoveTag(ctx, root.ID, pointer.To("   "))
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "got %v", err)

		// Surrounding whitespace around a real id is ignored.
		child, err := service.CreateTag(ctx, tag.CreateInput{Name: "Child", ParentID: pointer.To(" " + root.ID + " ")})
		require.NoError(t, err)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
	})
}

func TestService_FindByName(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		work := create(t, service, "Work", nil)
		nested := create(t, service, "WORK", &work.ID)
		create(t, service, "Works", nil)
		cafe := create(t, service, "Caf\u00e9", nil)

		found, err := service.FindByName(ctx, "  work ")
		require.NoError(t, err)
		assert.Equal(t, []string{nested.ID, work.ID}, ids(found))

		found, err = service.FindByName(ctx, "CAFE\u0301")
		require.NoError(t, err)
		assert.Equal(t, []string{cafe.ID}, ids(found))

		found, err = service.FindByName(ctx, "Home")
		require.NoError(t, err)
		assert.Empty(t, found)

		_, err = service.FindByName(ctx, "   ")
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})
}

/*
TestService_ConcurrentOppositeMovesStayAcyclic races MoveTag(A, B) against
MoveTag(B, A). Each pass alone is legal, so the store must serialize them and
reject the second.
*/
func TestService_ConcurrentOppositeMovesStayAcyclic(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		for round := 0; round < 30; round++ {
			a := create(t, service, "A", nil)
			b := create(t, service, "B", nil)

			var (
				group sync.WaitGroup
				errs  [2]error
			)
			group.Add(2)
			go func() {
				defer group.Done()
				errs[0] = service.MoveTag(ctx, a.ID, &b.ID)
			}()
			go func() {
				defer group.Done()
				errs[1] = service.MoveTag(ctx, b.ID, &a.ID)
			}()
			group.Wait()

			failed := 0
			for _, err := range errs {
				if err == nil {
					continue
				}
				failed++
				assert.True(t,
					apperr.HasCode(err, apperr.CodeCycle) || errors.Is(err, redisstore.ErrContention),
					"round %d: %v", round, err)
			}
			assert.GreaterOrEqual(t, failed, 1, "round %d: both moves committed", round)

			gotA, err := service.GetTag(ctx, a.ID)
			require.NoError(t, err)
			gotB, err := service.GetTag(ctx, b.ID)
			require.NoError(t, err)
			twoCycle := gotA.ParentID != nil && *gotA.ParentID == b.ID &&
				gotB.ParentID != nil && *gotB.ParentID == a.ID
			require.False(t, twoCycle, "round %d: A and B are each other's parent", round)
		}
	})
}

func TestService_MoveTag(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		a := create(t, service, "A", nil)
		b := create(t, service, "B", &a.ID)
		other := create(t, service, "Other", nil)

		tests := []struct {
			name     string
			id       string
			parentID *string
			code     string
		}{
			{"self", a.ID, &a.ID, apperr.CodeCycle},
			{"into_child", a.ID, &b.ID, apperr.CodeCycle},
			{"missing_tag", "missing", &a.ID, apperr.CodeNotFound},
			{"missing_parent", b.ID, pointer.To("missing"), apperr.CodeNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := service.MoveTag(ctx, tt.id, tt.parentID)
				require.Error(t, err)
				assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			})
		}

		// Rejected moves leave the tree untouched.
		got, err := service.GetTag(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, a.ID, *got.ParentID)

		require.NoError(t, service.MoveTag(ctx, b.ID, &other.ID))
		got, err = service.GetTag(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, *got.ParentID)

		require.NoError(t, service.MoveTag(ctx, b.ID, nil))
		got, err = service.GetTag(ctx, b.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ParentID)

		// The former ancestor can now move below its former child.
		require.NoError(t, service.MoveTag(ctx, a.ID, &b.ID))
	})
}

/*
TestService_AcyclicAfterMoves replays a sequence of moves, some of them
illegal, and checks that every parent chain still reaches a root.
*/
func TestService_AcyclicAfterMoves(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		created := make([]*tag.Tag, 6)
		for index := range created {
			created[index] = create(t, service, string(rune('A'+index)), nil)
		}

		for step := 0; step < 30; step++ {
			child := created[(step*5+1)%len(created)]
			parent := created[(step*7+3)%len(created)]
			err := service.MoveTag(ctx, child.ID, &parent.ID)
			if err != nil {
				require.True(t, apperr.HasCode(err, apperr.CodeCycle), "step %d: %v", step, err)
			}
		}

		all, err := service.ListTags(ctx)
		require.NoError(t, err)
		byID := make(map[string]*tag.Tag, len(all))
		for _, existing := range all {
			byID[existing.ID] = existing
		}

		for _, start := range all {
			current, hops := start, 0
			for current.ParentID != nil {
				current = byID[*current.ParentID]
				hops++
				require.LessOrEqual(t, hops, len(all), "chain from %s does not terminate", start.Name)
			}
		}
	})
}

func TestService_DeleteTag(t *testing.T) {
	eachBackend(t, func(t *testing.T, repo tag.Repository) {
		ctx := context.Background()
		service := tag.NewService(repo, discardLogger())

		parent := create(t, service, "Parent", nil)
		child := create(t, service, "Child", &parent.ID)

		require.NoError(t, service.DeleteTag(ctx, parent.ID))

		_, err := service.GetTag(ctx, parent.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		err = service.DeleteTag(ctx, parent.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		// The child keeps its dangling parent and is not a root.
		got, err := service.GetTag(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, parent.ID, *got.ParentID)

		forest, err := service.Tree(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, forest)

		// A dangling tag can still be moved back to the root level.
		require.NoError(t, service.MoveTag(ctx, child.ID, nil))
	})
}

func TestService_RecordsMutations(t *testing.T) {
	service := tag.NewService(backends[0].open(t), discardLogger())
	ctx := context.Background()

	created := metrics.TagMutations.WithLabelValues("create", "ok")
	cycles := metrics.TagMutations.WithLabelValues("move", "cycle_detected")
	beforeCreated := testutil.ToFloat64(created)
	beforeCycles := testutil.ToFloat64(cycles)

	a := create(t, service, "A", nil)
	_ = service.MoveTag(ctx, a.ID, &a.ID)

	assert.Equal(t, beforeCreated+1, testutil.ToFloat64(created))
	assert.Equal(t, beforeCycles+1, testutil.ToFloat64(cycles))
}
