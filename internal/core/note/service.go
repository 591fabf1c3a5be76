// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package note

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/ctxutil"
	"github.com/taibuivan/tagtree/internal/platform/validate"
	"github.com/taibuivan/tagtree/pkg/normalize"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

/*
Upsert registers a note or refreshes an existing one.

Parameters:
  - context: Request context
  - id: Opaque note id owned by the note-taking application
  - title: Informational title, trimmed

Returns:
  - *Note: The stored note with its refreshed UpdatedAt
  - error: ValidationError or a storage error
*/
func (service *Service) Upsert(context context.Context, id, title string) (*Note, error) {
	id = strings.TrimSpace(id)
	title = normalize.Text(title)

	validator := &validate.Validator{}
	validator.Required(FieldID, id)
	validator.MaxLen(FieldTitle, title, constants.MaxNoteTitleLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	note, err := service.repo.Upsert(context, id, title)
	if err != nil {
		return nil, err
	}

	service.log(context).InfoContext(context, "note_registered", slog.String("note_id", id))
	return note, nil
}

// Get returns the note or a NotFound error.
func (service *Service) Get(context context.Context, id string) (*Note, error) {
	note, err := service.repo.GetByID(context, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apperr.NotFound("Note")
	}
	return note, nil
}

func (service *Service) List(context context.Context) ([]*Note, error) {
	return service.repo.List(context)
}

// Delete unregisters a note. Its associations go with it atomically.
func (service *Service) Delete(context context.Context, id string) error {
	found, err := service.repo.Delete(context, id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Note")
	}

	service.log(context).WarnContext(context, "note_deleted", slog.String("note_id", id))
	return nil
}

func (service *Service) log(context context.Context) *slog.Logger {
	return ctxutil.LoggerOr(context, service.logger)
}
