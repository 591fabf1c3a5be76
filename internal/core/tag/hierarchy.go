// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"log/slog"
	"slices"

	"github.com/taibuivan/tagtree/internal/platform/ctxutil"
)

/*
Hierarchy answers closure queries over the parent pointers of a Reader.

When the Reader is a [ClosureReader] the store computes descendants and
ancestors natively. Otherwise each query loads the forest with one List call
and walks an in-memory index. Every walk keeps a visited set, so a store whose
pointers were corrupted into a cycle still terminates with a partial result
and a warning.
*/
type Hierarchy struct {
	reader Reader
	logger *slog.Logger
}

// NewHierarchy returns a Hierarchy over reader.
func NewHierarchy(reader Reader, logger *slog.Logger) *Hierarchy {
	return &Hierarchy{reader: reader, logger: logger}
}

// DescendantsOf returns every tag below id, excluding id, ordered by name.
// A leaf or an unknown id yields an empty slice.
func (hierarchy *Hierarchy) DescendantsOf(context context.Context, id string) ([]*Tag, error) {
	if closure, ok := hierarchy.reader.(ClosureReader); ok {
		return closure.Descendants(context, id)
	}

	index, err := hierarchy.snapshot(context)
	if err != nil {
		return nil, err
	}

	descendants, cyclic := index.descendants(id)
	if cyclic {
		hierarchy.warnCycle(context, "descendants", id)
	}
	return descendants, nil
}

// AncestorsOf returns the parent chain of id, nearest first. A root or an
// unknown id yields an empty slice, and a dangling parent ends the chain.
func (hierarchy *Hierarchy) AncestorsOf(context context.Context, id string) ([]*Tag, error) {
	if closure, ok := hierarchy.reader.(ClosureReader); ok {
		return closure.Ancestors(context, id)
	}

	index, err := hierarchy.snapshot(context)
	if err != nil {
		return nil, err
	}

	ancestors, cyclic := index.ancestors(id)
	if cyclic {
		hierarchy.warnCycle(context, "ancestors", id)
	}
	return ancestors, nil
}

/*
BuildTree materializes a forest of [TagTreeNode] values.

Parameters:
  - context: Request context
  - rootID: nil for every root, otherwise the tag to root a single tree at

Returns:
  - []*TagTreeNode: Roots with children ordered by name at every level. Empty
    when rootID names no tag.
  - error: Storage failures
*/
func (hierarchy *Hierarchy) BuildTree(context context.Context, rootID *string) ([]*TagTreeNode, error) {
	index, err := hierarchy.snapshot(context)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool, len(index.byID))
	forest := make([]*TagTreeNode, 0)

	if rootID != nil {
		root, ok := index.byID[*rootID]
		if !ok {
			return forest, nil
		}
		return append(forest, index.subtree(root, visited)), nil
	}

	for _, root := range index.roots {
		forest = append(forest, index.subtree(root, visited))
	}
	return forest, nil
}

// WouldCreateCycle reports whether making proposedParentID the parent of id
// would close a loop: the two are equal, or the proposed parent lies below id.
func (hierarchy *Hierarchy) WouldCreateCycle(context context.Context, id, proposedParentID string) (bool, error) {
	if proposedParentID == id {
		return true, nil
	}

	descendants, err := hierarchy.DescendantsOf(context, id)
	if err != nil {
		return false, err
	}

	return slices.ContainsFunc(descendants, func(descendant *Tag) bool {
		return descendant.ID == proposedParentID
	}), nil
}

func (hierarchy *Hierarchy) warnCycle(context context.Context, walk, id string) {
	ctxutil.LoggerOr(context, hierarchy.logger).WarnContext(context, "tag_hierarchy_cycle_detected",
		slog.String("walk", walk),
		slog.String("tag_id", id),
	)
}

// # In-Memory Index

type forestIndex struct {
	byID     map[string]*Tag
	children map[string][]*Tag
	roots    []*Tag
}

// snapshot indexes the forest from a single List call. List is ordered by
// name, so every children slice is too.
func (hierarchy *Hierarchy) snapshot(context context.Context) (*forestIndex, error) {
	tags, err := hierarchy.reader.List(context)
	if err != nil {
		return nil, err
	}

	index := &forestIndex{
		byID:     make(map[string]*Tag, len(tags)),
		children: make(map[string][]*Tag),
		roots:    make([]*Tag, 0),
	}
	for _, tag := range tags {
		index.byID[tag.ID] = tag
		if tag.ParentID == nil {
			index.roots = append(index.roots, tag)
			continue
		}
		index.children[*tag.ParentID] = append(index.children[*tag.ParentID], tag)
	}

	return index, nil
}

// descendants runs a breadth-first walk. With one parent per tag a child can
// only be seen twice through a cycle, which is reported.
func (index *forestIndex) descendants(id string) ([]*Tag, bool) {
	result := make([]*Tag, 0)
	if _, ok := index.byID[id]; !ok {
		return result, false
	}

	visited := map[string]bool{id: true}
	queue := []string{id}
	cyclic := false

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range index.children[current] {
			if visited[child.ID] {
				cyclic = true
				continue
			}
			visited[child.ID] = true
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}

	slices.SortFunc(result, Compare)
	return result, cyclic
}

// ancestors follows parent pointers for at most len(byID) hops.
func (index *forestIndex) ancestors(id string) ([]*Tag, bool) {
	result := make([]*Tag, 0)

	current, ok := index.byID[id]
	if !ok {
		return result, false
	}

	visited := map[string]bool{id: true}
	for hops := 0; current.ParentID != nil && hops < len(index.byID); hops++ {
		parent, ok := index.byID[*current.ParentID]
		if !ok {
			break
		}
		if visited[parent.ID] {
			return result, true
		}

		visited[parent.ID] = true
		result = append(result, parent)
		current = parent
	}

	return result, false
}

func (index *forestIndex) subtree(tag *Tag, visited map[string]bool) *TagTreeNode {
	visited[tag.ID] = true
	node := &TagTreeNode{Tag: *tag, Children: make([]*TagTreeNode, 0)}

	for _, child := range index.children[tag.ID] {
		if visited[child.ID] {
			continue
		}
		node.Children = append(node.Children, index.subtree(child, visited))
	}

	return node
}
