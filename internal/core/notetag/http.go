// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notetag

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	requestutil "github.com/taibuivan/tagtree/internal/platform/request"
	"github.com/taibuivan/tagtree/internal/platform/respond"
	"github.com/taibuivan/tagtree/internal/platform/validate"
)

type Handler struct {
	service *QueryService
}

func NewHandler(service *QueryService) *Handler {
	return &Handler{service: service}
}

// RegisterTagRoutes mounts the association routes nested under /tags.
func (handler *Handler) RegisterTagRoutes(router chi.Router) {
	router.Get("/{id}/notes", handler.notesOf)
}

// RegisterNoteRoutes mounts the query and association routes nested under /notes.
func (handler *Handler) RegisterNoteRoutes(router chi.Router) {
	router.Get("/", handler.queryNotes)
	router.Get("/{id}/tags", handler.tagsOf)
	router.Put("/{id}/tags/{tagID}", handler.tagNote)
	router.Delete("/{id}/tags/{tagID}", handler.untagNote)
}

/*
queryNotes serves GET /notes?tags=a,b&match=any|all&descendants=true.

Without a tags parameter every registered note is listed.
*/
func (handler *Handler) queryNotes(writer http.ResponseWriter, request *http.Request) {
	params := request.URL.Query()
	tagIDs := prepare(requestutil.QueryList(request, FieldTags))
	descendants := requestutil.QueryBool(request, FieldDescendants, false)

	match := MatchAny
	if value := requestutil.OptionalQuery(request, FieldMatch); value != nil {
		match = *value
	}

	validator := &validate.Validator{}
	validator.OneOf(FieldMatch, match, MatchAny, MatchAll)
	validator.Custom(FieldDescendants, match == MatchAll && descendants,
		"Descendant expansion is only supported with match=any")
	validator.Custom(FieldTags, len(tagIDs) > constants.MaxQueryTags,
		fmt.Sprintf("At most %d distinct tags per query", constants.MaxQueryTags))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var (
		notes []*note.Note
		err   error
	)
	switch {
	case !params.Has(FieldTags), match == MatchAll:
		notes, err = handler.service.ByAllTags(request.Context(), tagIDs)
	default:
		notes, err = handler.service.ByAnyTagOrDescendants(request.Context(), tagIDs, descendants)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, notes)
}

func (handler *Handler) tagsOf(writer http.ResponseWriter, request *http.Request) {
	tags, err := handler.service.TagsOf(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tags)
}

func (handler *Handler) notesOf(writer http.ResponseWriter, request *http.Request) {
	noteIDs, err := handler.service.NotesOf(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, noteIDs)
}

// tagNote answers 201 when the pair was stored and 200 when it already existed.
func (handler *Handler) tagNote(writer http.ResponseWriter, request *http.Request) {
	noteID := requestutil.ID(request, "id")
	tagID := requestutil.ID(request, "tagID")

	result, err := handler.service.Tag(request.Context(), noteID, tagID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	association := Association{NoteID: noteID, TagID: tagID, Result: result.String()}
	if result == Inserted {
		respond.Created(writer, association)
		return
	}
	respond.OK(writer, association)
}

func (handler *Handler) untagNote(writer http.ResponseWriter, request *http.Request) {
	err := handler.service.Untag(request.Context(), requestutil.ID(request, "id"), requestutil.ID(request, "tagID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
