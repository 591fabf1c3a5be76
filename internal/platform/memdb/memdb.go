// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package memdb provides a process-local, transactional stand-in for the
relational store.

It holds the same three relations as the PostgreSQL schema (tags, notes and
the note-tag junction) behind a single RWMutex. Adapters in the core packages
translate between these rows and their domain types.

Architecture:

  - Isolation: [DB.Read] and [DB.Write] run a callback under the read or write
    lock, so a Write callback is serializable relative to every other call.
  - Cascades: deleting a tag or a note removes its junction rows inside the same
    locked section.
  - Rollback: there is none. A Write callback must finish all of its checks
    before the first mutation.

It backs the "memory" STORE_BACKEND and gives every test an isolated store.
*/
package memdb

import (
	"sync"
	"time"
)

// TagRow mirrors one row of the tag relation.
type TagRow struct {
	ID        string
	Name      string
	Color     string
	ParentID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteRow mirrors one row of the note relation.
type NoteRow struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Option configures a [DB].
type Option func(*DB)

// WithClock replaces the wall clock used for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// DB is the in-memory database. The zero value is not usable; call [New].
type DB struct {
	mu  sync.RWMutex
	now func() time.Time

	tags  map[string]TagRow
	notes map[string]NoteRow

	// byNote maps note id -> tag id -> association creation time.
	byNote map[string]map[string]time.Time
	// byTag maps tag id -> set of note ids.
	byTag map[string]map[string]struct{}
}

// New returns an empty database.
func New(opts ...Option) *DB {
	db := &DB{
		now:    func() time.Time { return time.Now().UTC() },
		tags:   make(map[string]TagRow),
		notes:  make(map[string]NoteRow),
		byNote: make(map[string]map[string]time.Time),
		byTag:  make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Read runs fn under the shared lock.
func (db *DB) Read(fn func(tx *Tx) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(&Tx{db: db})
}

// Write runs fn under the exclusive lock.
func (db *DB) Write(fn func(tx *Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&Tx{db: db, writable: true})
}

// Tx is a view of the database valid only inside a Read or Write callback.
type Tx struct {
	db       *DB
	writable bool
}

// Now returns the database clock reading.
func (tx *Tx) Now() time.Time {
	return tx.db.now()
}

// # Tags

// Tag returns a copy of the tag row with the given id.
func (tx *Tx) Tag(id string) (TagRow, bool) {
	row, ok := tx.db.tags[id]
	return cloneTag(row), ok
}

// Tags returns copies of every tag row in unspecified order.
func (tx *Tx) Tags() []TagRow {
	rows := make([]TagRow, 0, len(tx.db.tags))
	for _, row := range tx.db.tags {
		rows = append(rows, cloneTag(row))
	}
	return rows
}

// PutTag inserts or replaces a tag row.
func (tx *Tx) PutTag(row TagRow) {
	tx.mustWrite()
	tx.db.tags[row.ID] = cloneTag(row)
}

// DeleteTag removes a tag row and every junction row referencing it.
// Child rows keep their ParentID.
func (tx *Tx) DeleteTag(id string) bool {
	tx.mustWrite()
	if _, ok := tx.db.tags[id]; !ok {
		return false
	}

	for noteID := range tx.db.byTag[id] {
		delete(tx.db.byNote[noteID], id)
		if len(tx.db.byNote[noteID]) == 0 {
			delete(tx.db.byNote, noteID)
		}
	}
	delete(tx.db.byTag, id)
	delete(tx.db.tags, id)

	return true
}

// # Notes

// Note returns the note row with the given id.
func (tx *Tx) Note(id string) (NoteRow, bool) {
	row, ok := tx.db.notes[id]
	return row, ok
}

// Notes returns every note row in unspecified order.
func (tx *Tx) Notes() []NoteRow {
	rows := make([]NoteRow, 0, len(tx.db.notes))
	for _, row := range tx.db.notes {
		rows = append(rows, row)
	}
	return rows
}

// PutNote inserts or replaces a note row.
func (tx *Tx) PutNote(row NoteRow) {
	tx.mustWrite()
	tx.db.notes[row.ID] = row
}

// DeleteNote removes a note row and every junction row referencing it.
func (tx *Tx) DeleteNote(id string) bool {
	tx.mustWrite()
	if _, ok := tx.db.notes[id]; !ok {
		return false
	}

	for tagID := range tx.db.byNote[id] {
		delete(tx.db.byTag[tagID], id)
		if len(tx.db.byTag[tagID]) == 0 {
			delete(tx.db.byTag, tagID)
		}
	}
	delete(tx.db.byNote, id)
	delete(tx.db.notes, id)

	return true
}

// # Note-Tag Junction

// Link inserts the (noteID, tagID) pair. It reports false when the pair
// already existed, in which case nothing changes.
func (tx *Tx) Link(noteID, tagID string) bool {
	tx.mustWrite()
	if _, ok := tx.db.byNote[noteID][tagID]; ok {
		return false
	}

	if tx.db.byNote[noteID] == nil {
		tx.db.byNote[noteID] = make(map[string]time.Time)
	}
	if tx.db.byTag[tagID] == nil {
		tx.db.byTag[tagID] = make(map[string]struct{})
	}
	tx.db.byNote[noteID][tagID] = tx.db.now()
	tx.db.byTag[tagID][noteID] = struct{}{}

	return true
}

// Unlink removes the (noteID, tagID) pair and reports whether it existed.
func (tx *Tx) Unlink(noteID, tagID string) bool {
	tx.mustWrite()
	if _, ok := tx.db.byNote[noteID][tagID]; !ok {
		return false
	}

	delete(tx.db.byNote[noteID], tagID)
	if len(tx.db.byNote[noteID]) == 0 {
		delete(tx.db.byNote, noteID)
	}
	delete(tx.db.byTag[tagID], noteID)
	if len(tx.db.byTag[tagID]) == 0 {
		delete(tx.db.byTag, tagID)
	}

	return true
}

// Linked reports whether the (noteID, tagID) pair exists.
func (tx *Tx) Linked(noteID, tagID string) bool {
	_, ok := tx.db.byNote[noteID][tagID]
	return ok
}

// TagIDsOf returns the tag ids attached to a note in unspecified order.
func (tx *Tx) TagIDsOf(noteID string) []string {
	ids := make([]string, 0, len(tx.db.byNote[noteID]))
	for id := range tx.db.byNote[noteID] {
		ids = append(ids, id)
	}
	return ids
}

// NoteIDsOf returns the note ids attached to a tag in unspecified order.
func (tx *Tx) NoteIDsOf(tagID string) []string {
	ids := make([]string, 0, len(tx.db.byTag[tagID]))
	for id := range tx.db.byTag[tagID] {
		ids = append(ids, id)
	}
	return ids
}

// LinkCount returns the number of junction rows.
func (tx *Tx) LinkCount() int {
	count := 0
	for _, tags := range tx.db.byNote {
		count += len(tags)
	}
	return count
}

// # Helpers

func (tx *Tx) mustWrite() {
	if !tx.writable {
		panic("memdb: write inside a read-only transaction")
	}
}

func cloneTag(row TagRow) TagRow {
	if row.ParentID != nil {
		parent := *row.ParentID
		row.ParentID = &parent
	}
	return row
}
