// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

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

// RegisterRoutes mounts the registry routes. Listing and querying notes lives
// with the association handler.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/{id}", handler.getNote)
	router.Put("/{id}", handler.upsertNote)
	router.Delete("/{id}", handler.deleteNote)
}

func (handler *Handler) getNote(writer http.ResponseWriter, request *http.Request) {
	note, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, note)
}

func (handler *Handler) upsertNote(writer http.ResponseWriter, request *http.Request) {
	var input UpsertInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := handler.service.Upsert(request.Context(), requestutil.ID(request, "id"), input.Title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, note)
}

func (handler *Handler) deleteNote(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
