// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/tagtree/internal/platform/apperr"
	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/ctxutil"
	"github.com/taibuivan/tagtree/internal/platform/metrics"
	"github.com/taibuivan/tagtree/internal/platform/validate"
	"github.com/taibuivan/tagtree/pkg/normalize"
	"github.com/taibuivan/tagtree/pkg/pointer"
	"github.com/taibuivan/tagtree/pkg/slice"
	"github.com/taibuivan/tagtree/pkg/uuid"
)

// Service validates and applies tag mutations and exposes the read side.
type Service struct {
	repo      Repository
	hierarchy *Hierarchy
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a [Service].
type ServiceOption func(*Service)

// WithClock replaces the wall clock used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(service *Service) { service.now = now }
}

// NewService returns a Service over repo.
func NewService(repo Repository, logger *slog.Logger, opts ...ServiceOption) *Service {
	service := &Service{
		repo:      repo,
		hierarchy: NewHierarchy(repo, logger),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Hierarchy returns the closure engine bound to the service's repository.
func (service *Service) Hierarchy() *Hierarchy {
	return service.hierarchy
}

// # Reads

// GetTag returns the tag or a NotFound error.
func (service *Service) GetTag(context context.Context, id string) (*Tag, error) {
	tag, err := service.repo.GetByID(context, id)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apperr.NotFound("Tag")
	}
	return tag, nil
}

func (service *Service) ListTags(context context.Context) ([]*Tag, error) {
	return service.repo.List(context)
}

/*
FindByName returns the tags whose name matches name case-insensitively, in
name order. Callers that want unique names check this before CreateTag.

Returns:
  - []*Tag: Matches, empty when none
  - error: ValidationError for a blank name, or a storage error
*/
func (service *Service) FindByName(context context.Context, name string) ([]*Tag, error) {
	folded := normalize.Fold(name)

	validator := &validate.Validator{}
	if err := validator.Required(FieldName, folded).Err(); err != nil {
		return nil, err
	}

	tags, err := service.repo.List(context)
	if err != nil {
		return nil, err
	}
	matches := slice.Filter(tags, func(tag *Tag) bool {
		return normalize.Fold(tag.Name) == folded
	})
	if matches == nil {
		matches = []*Tag{}
	}
	return matches, nil
}

func (service *Service) ListChildren(context context.Context, parentID *string) ([]*Tag, error) {
	return service.repo.ListChildren(context, parentID)
}

func (service *Service) Ancestors(context context.Context, id string) ([]*Tag, error) {
	return service.hierarchy.AncestorsOf(context, id)
}

func (service *Service) Descendants(context context.Context, id string) ([]*Tag, error) {
	return service.hierarchy.DescendantsOf(context, id)
}

func (service *Service) Tree(context context.Context, rootID *string) ([]*TagTreeNode, error) {
	return service.hierarchy.BuildTree(context, rootID)
}

// # Mutations

/*
CreateTag validates input and inserts a new tag.

Description: The name is trimmed and NFC-normalized and a blank colour falls
back to the default. When a parent is given, the existence check and the insert
share one unit of work so the parent cannot be deleted in between.

Parameters:
  - context: Request context
  - input: CreateInput

Returns:
  - *Tag: The stored tag
  - error: ValidationError, NotFound (parent) or a storage error
*/
func (service *Service) CreateTag(context context.Context, input CreateInput) (tag *Tag, err error) {
	defer func() { service.record("create", err) }()

	name := normalize.Text(input.Name)
	color := colorOrDefault(input.Color)
	input.ParentID = trimID(input.ParentID)

	validator := &validate.Validator{}
	checkName(validator, name)
	checkColor(validator, color)
	if input.ParentID != nil {
		validator.Required(FieldParentID, *input.ParentID)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := service.now()
	tag = &Tag{
		ID:        uuid.New(),
		Name:      name,
		Color:     color,
		ParentID:  input.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.ParentID == nil {
		if err := service.repo.Create(context, tag); err != nil {
			return nil, err
		}
	} else {
		err := service.repo.Atomically(context, func(store Store) error {
			parent, err := store.GetByID(context, *input.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return apperr.NotFound("Parent tag")
			}
			return store.Create(context, tag)
		})
		if err != nil {
			return nil, err
		}
	}

	service.log(context).InfoContext(context, "tag_created",
		slog.String("tag_id", tag.ID),
		slog.String("name", tag.Name),
	)
	return tag, nil
}

/*
UpdateTag applies a partial edit of name and colour as one write.

Description: Both fields are validated before anything is stored, so a request
with a valid name and an invalid colour leaves the tag untouched. A blank
colour resets it to the default.

Parameters:
  - context: Request context
  - id: Tag to edit
  - input: Fields to change, at least one non-nil

Returns:
  - error: Validation, NotFound, or a storage error
*/
func (service *Service) UpdateTag(context context.Context, id string, input PatchInput) (err error) {
	defer func() { service.record("update", err) }()

	if input.Name == nil && input.Color == nil {
		return apperr.ValidationError("Nothing to update",
			apperr.FieldError{Field: FieldName, Message: "Provide name or color"})
	}

	var patch Patch
	validator := &validate.Validator{}
	if input.Name != nil {
		name := normalize.Text(*input.Name)
		checkName(validator, name)
		patch.Name = &name
	}
	if input.Color != nil {
		color := colorOrDefault(input.Color)
		checkColor(validator, color)
		patch.Color = &color
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.update(context, id, patch); err != nil {
		return err
	}

	attrs := []any{slog.String("tag_id", id)}
	if patch.Name != nil {
		attrs = append(attrs, slog.String("name", *patch.Name))
	}
	if patch.Color != nil {
		attrs = append(attrs, slog.String("color", *patch.Color))
	}
	service.log(context).InfoContext(context, "tag_updated", attrs...)
	return nil
}

// RenameTag replaces the name of an existing tag.
func (service *Service) RenameTag(context context.Context, id, name string) (err error) {
	defer func() { service.record("rename", err) }()

	name = normalize.Text(name)

	validator := &validate.Validator{}
	checkName(validator, name)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.update(context, id, Patch{Name: &name}); err != nil {
		return err
	}

	service.log(context).InfoContext(context, "tag_renamed",
		slog.String("tag_id", id),
		slog.String("name", name),
	)
	return nil
}

// RecolorTag replaces the colour of an existing tag. A blank colour resets it
// to the default.
func (service *Service) RecolorTag(context context.Context, id, color string) (err error) {
	defer func() { service.record("recolor", err) }()

	color = colorOrDefault(&color)

	validator := &validate.Validator{}
	checkColor(validator, color)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.update(context, id, Patch{Color: &color}); err != nil {
		return err
	}

	service.log(context).InfoContext(context, "tag_recolored",
		slog.String("tag_id", id),
		slog.String("color", color),
	)
	return nil
}

/*
MoveTag re-parents a tag, or makes it a root when newParentID is nil.

Description: The existence checks, the cycle check and the write run in a single
unit of work. On PostgreSQL the unit holds the tag-tree advisory lock, on Redis
it is replayed if any tag changed meanwhile, and in memory it holds the write
lock. Two concurrent moves can therefore never both pass a check that only
their combination would fail.

Parameters:
  - context: Request context
  - id: Tag to move
  - newParentID: New parent, nil for root

Returns:
  - error: NotFound (tag or parent), Cycle, or a storage error. On error the
    stored ParentID is unchanged.
*/
func (service *Service) MoveTag(context context.Context, id string, newParentID *string) (err error) {
	defer func() { service.record("move", err) }()

	newParentID = trimID(newParentID)
	if newParentID != nil {
		validator := &validate.Validator{}
		if err := validator.Required(FieldParentID, *newParentID).Err(); err != nil {
			return err
		}
	}

	err = service.repo.Atomically(context, func(store Store) error {
		current, err := store.GetByID(context, id)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("Tag")
		}

		if newParentID != nil {
			if *newParentID == id {
				return apperr.Cycle("A tag cannot be its own parent")
			}

			parent, err := store.GetByID(context, *newParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return apperr.NotFound("Parent tag")
			}

			cyclic, err := NewHierarchy(store, service.logger).WouldCreateCycle(context, id, *newParentID)
			if err != nil {
				return err
			}
			if cyclic {
				return apperr.Cycle("The new parent is a descendant of the tag")
			}
		}

		move := MoveTo(newParentID)
		move.At = service.now()
		found, err := store.Update(context, id, move)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("Tag")
		}
		return nil
	})

	if apperr.HasCode(err, apperr.CodeCycle) {
		service.log(context).WarnContext(context, "tag_move_rejected",
			slog.String("tag_id", id),
			slog.String("parent_id", parentLabel(newParentID)),
		)
	}
	if err != nil {
		return err
	}

	service.log(context).InfoContext(context, "tag_moved",
		slog.String("tag_id", id),
		slog.String("parent_id", parentLabel(newParentID)),
	)
	return nil
}

// DeleteTag removes a tag and all of its associations atomically. Children
// keep their ParentID.
func (service *Service) DeleteTag(context context.Context, id string) (err error) {
	defer func() { service.record("delete", err) }()

	found, err := service.repo.Delete(context, id)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Tag")
	}

	service.log(context).WarnContext(context, "tag_deleted", slog.String("tag_id", id))
	return nil
}

// # Helpers

func (service *Service) update(context context.Context, id string, patch Patch) error {
	patch.At = service.now()
	found, err := service.repo.Update(context, id, patch)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Tag")
	}
	return nil
}

func (service *Service) record(operation string, err error) {
	metrics.TagMutations.WithLabelValues(operation, metrics.Result(err)).Inc()
}

func (service *Service) log(context context.Context) *slog.Logger {
	return ctxutil.LoggerOr(context, service.logger)
}

func checkName(validator *validate.Validator, name string) {
	validator.Required(FieldName, name).
		MaxLen(FieldName, name, constants.MaxTagNameLength).
		Printable(FieldName, name)
}

func checkColor(validator *validate.Validator, color string) {
	validator.MaxLen(FieldColor, color, constants.MaxTagColorLength).
		Printable(FieldColor, color)
}

// colorOrDefault normalizes color, falling back to the default when it is nil
// or blank.
func colorOrDefault(color *string) string {
	if color == nil || normalize.IsBlank(*color) {
		return constants.DefaultTagColor
	}
	return normalize.Text(*color)
}

// trimID returns a trimmed copy of id. A blank id stays non-nil so that
// validation rejects it instead of treating it as absent.
func trimID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	return &trimmed
}

func parentLabel(parentID *string) string {
	return pointer.Fallback(parentID, "root")
}
