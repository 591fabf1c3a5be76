// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/tagtree/internal/platform/request"
	"github.com/taibuivan/tagtree/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MoveInput is the body of PUT /tags/{id}/parent. A null parent_id moves the
// tag to the root level.
type MoveInput struct {
	ParentID *string `json:"parent_id"`
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listTags)
	router.Post("/", handler.createTag)
	router.Get("/tree", handler.tree)
	router.Get("/roots", handler.listRoots)

	router.Get("/{id}", handler.getTag)
	router.Patch("/{id}", handler.patchTag)
	router.Delete("/{id}", handler.deleteTag)
	router.Put("/{id}/parent", handler.moveTag)
	router.Get("/{id}/children", handler.listChildren)
	router.Get("/{id}/ancestors", handler.ancestors)
	router.Get("/{id}/descendants", handler.descendants)
}

// listTags serves GET /tags, narrowed to case-insensitive name matches when
// ?name= is present.
func (handler *Handler) listTags(writer http.ResponseWriter, request *http.Request) {
	var (
		tags []*Tag
		err  error
	)
	if name := requestutil.OptionalQuery(request, "name"); name != nil {
		tags, err = handler.service.FindByName(request.Context(), *name)
	} else {
		tags, err = handler.service.ListTags(request.Context())
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tags)
}

func (handler *Handler) tree(writer http.ResponseWriter, request *http.Request) {
	forest, err := handler.service.Tree(request.Context(), requestutil.OptionalQuery(request, "root"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, forest)
}

func (handler *Handler) listRoots(writer http.ResponseWriter, request *http.Request) {
	roots, err := handler.service.ListChildren(request.Context(), nil)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, roots)
}

func (handler *Handler) createTag(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tag, err := handler.service.CreateTag(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, tag)
}

func (handler *Handler) getTag(writer http.ResponseWriter, request *http.Request) {
	tag, err := handler.service.GetTag(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tag)
}

func (handler *Handler) patchTag(writer http.ResponseWriter, request *http.Request) {
	tagID := requestutil.ID(request, "id")

	var input PatchInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateTag(request.Context(), tagID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.getTag(writer, request)
}

func (handler *Handler) moveTag(writer http.ResponseWriter, request *http.Request) {
	tagID := requestutil.ID(request, "id")

	var input MoveInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MoveTag(request.Context(), tagID, input.ParentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.getTag(writer, request)
}

func (handler *Handler) deleteTag(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteTag(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

func (handler *Handler) listChildren(writer http.ResponseWriter, request *http.Request) {
	tagID := requestutil.ID(request, "id")

	children, err := handler.service.ListChildren(request.Context(), &tagID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, children)
}

func (handler *Handler) ancestors(writer http.ResponseWriter, request *http.Request) {
	ancestors, err := handler.service.Ancestors(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, ancestors)
}

func (handler *Handler) descendants(writer http.ResponseWriter, request *http.Request) {
	descendants, err := handler.service.Descendants(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, descendants)
}
