// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level storage errors and
// higher-level application errors.
//
// Every adapter (PostgreSQL, Redis) funnels its driver failures through this
// package so that services only ever see [apperr.AppError] values. A failed
// read or write is a StorageError ([apperr.Internal]); the only driver error
// that is reclassified is a foreign-key violation, which means the referenced
// tag or note vanished under a concurrent delete.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tagtree/internal/platform/apperr"
)

// Wrap inspects a PostgreSQL error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// Callers that treat "no rows" as a normal absent result must check
// [pgx.ErrNoRows] before calling Wrap.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Referenced row vanished mid-flight
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return apperr.NotFound(resourceFor(pgErr.ConstraintName))
	}

	// 2. Everything else is a storage failure
	return apperr.Internal(fmt.Errorf("postgres: %s: %w", action, err))
}

// WrapRedis classifies a go-redis error the same way [Wrap] does for pgx.
// [redis.Nil] must be handled by the caller as an absent result.
func WrapRedis(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, redis.TxFailedErr) {
		return apperr.Internal(fmt.Errorf("redis: %s: optimistic transaction aborted: %w", action, err))
	}

	return apperr.Internal(fmt.Errorf("redis: %s: %w", action, err))
}

// resourceFor maps a foreign-key constraint name onto the resource label used
// in the NotFound message.
func resourceFor(constraint string) string {
	switch constraint {
	case "notetag_noteid_fkey":
		return "Note"
	case "notetag_tagid_fkey":
		return "Tag"
	default:
		return "Resource"
	}
}
