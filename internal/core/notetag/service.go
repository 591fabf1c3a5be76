// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/ctxutil"
	"github.com/taibuivan/tagtree/internal/platform/metrics"
	"github.com/taibuivan/tagtree/internal/platform/validate"
	"github.com/taibuivan/tagtree/pkg/slice"
)

// Labels of the note query duration histogram.
const (
	queryAny         = "any"
	queryAll         = "all"
	queryDescendants = "descendants"
)

// QueryService answers note classification queries and fronts the
// association store for the transport.
type QueryService struct {
	repo      Repository
	notes     note.Repository
	hierarchy *tag.Hierarchy
	logger    *slog.Logger
}

/*
NewQueryService wires the query service.

Parameters:
  - repo: Association store
  - notes: Note registry, the universe of ByAllTags with no tags
  - hierarchy: Closure engine used to expand descendant queries
  - logger: Fallback logger when the context carries none
*/
func NewQueryService(repo Repository, notes note.Repository, hierarchy *tag.Hierarchy, logger *slog.Logger) *QueryService {
	return &QueryService{
		repo:      repo,
		notes:     notes,
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// # Queries

// ByAnyTag returns the notes carrying at least one of tagIDs. No tags yields
// no notes, and unknown ids match nothing.
func (service *QueryService) ByAnyTag(context context.Context, tagIDs []string) ([]*note.Note, error) {
	defer observe(queryAny, time.Now())

	tagIDs = prepare(tagIDs)
	return service.repo.NotesWithAny(context, tagIDs)
}

/*
ByAllTags returns the notes carrying every one of tagIDs.

Description: A note qualifies vacuously when no tags are required, so an empty
tagIDs returns every registered note.
*/
func (service *QueryService) ByAllTags(context context.Context, tagIDs []string) ([]*note.Note, error) {
	defer observe(queryAll, time.Now())

	tagIDs = prepare(tagIDs)
	if len(tagIDs) == 0 {
		return service.notes.List(context)
	}
	return service.repo.NotesWithAll(context, tagIDs)
}

/*
ByAnyTagOrDescendants behaves as [QueryService.ByAnyTag], optionally matching
the descendants of every requested tag as well.

Parameters:
  - context: Request context
  - tagIDs: Requested tags, duplicates and unknown ids allowed
  - includeDescendants: Expand each tag to its subtree before matching

Returns:
  - []*note.Note: Matches ordered by UpdatedAt descending, then id
  - error: A storage error only
*/
func (service *QueryService) ByAnyTagOrDescendants(context context.Context, tagIDs []string, includeDescendants bool) ([]*note.Note, error) {
	if !includeDescendants {
		return service.ByAnyTag(context, tagIDs)
	}
	defer observe(queryDescendants, time.Now())

	tagIDs = prepare(tagIDs)

	expanded := make([]string, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		expanded = append(expanded, tagID)

		descendants, err := service.hierarchy.DescendantsOf(context, tagID)
		if err != nil {
			return nil, err
		}
		for _, descendant := range descendants {
			expanded = append(expanded, descendant.ID)
		}
	}

	return service.repo.NotesWithAny(context, slice.Unique(expanded))
}

// # Associations

// Tag attaches tagID to noteID. Both must exist.
func (service *QueryService) Tag(context context.Context, noteID, tagID string) (result AddResult, err error) {
	defer func() { record("add", err) }()

	noteID, tagID, err = pair(noteID, tagID)
	if err != nil {
		return 0, err
	}

	result, err = service.repo.Add(context, noteID, tagID)
	if err != nil {
		return 0, err
	}

	service.log(context).InfoContext(context, "note_tagged",
		slog.String("note_id", noteID),
		slog.String("tag_id", tagID),
		slog.String("result", result.String()),
	)
	return result, nil
}

// Untag detaches tagID from noteID. A missing pair is NotFound.
func (service *QueryService) Untag(context context.Context, noteID, tagID string) (err error) {
	defer func() { record("remove", err) }()

	noteID, tagID, err = pair(noteID, tagID)
	if err != nil {
		return err
	}

	found, err := service.repo.Remove(context, noteID, tagID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Note tag")
	}

	service.log(context).InfoContext(context, "note_untagged",
		slog.String("note_id", noteID),
		slog.String("tag_id", tagID),
	)
	return nil
}

func (service *QueryService) TagsOf(context context.Context, noteID string) ([]*tag.Tag, error) {
	return service.repo.TagsOf(context, strings.TrimSpace(noteID))
}

func (service *QueryService) NotesOf(context context.Context, tagID string) ([]string, error) {
	return service.repo.NotesOf(context, strings.TrimSpace(tagID))
}

// # Helpers

// prepare trims and deduplicates the requested ids, dropping blanks. Any
// number of ids is accepted.
func prepare(tagIDs []string) []string {
	cleaned := slice.Filter(slice.Map(tagIDs, strings.TrimSpace), func(tagID string) bool {
		return tagID != ""
	})
	return slice.Unique(cleaned)
}

func pair(noteID, tagID string) (string, string, error) {
	noteID = strings.TrimSpace(noteID)
	tagID = strings.TrimSpace(tagID)

	validator := &validate.Validator{}
	validator.Required(FieldNoteID, noteID)
	validator.Required(FieldTagID, tagID)
	return noteID, tagID, validator.Err()
}

func observe(match string, started time.Time) {
	metrics.ObserveNoteQuery(match, time.Since(started))
}

func record(operation string, err error) {
	metrics.AssociationMutations.WithLabelValues(operation, metrics.Result(err)).Inc()
}

func (service *QueryService) log(context context.Context) *slog.Logger {
	return ctxutil.LoggerOr(context, service.logger)
}
