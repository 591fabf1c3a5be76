// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pgtest opens the PostgreSQL database used by the integration suites.

The suites run only when TAGTREE_TEST_DATABASE_URL is set. Every caller holds a
session advisory lock for the lifetime of its test, because test binaries of
different packages run in parallel against the same database.
*/
package pgtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tagtree/internal/platform/migration"
	"github.com/taibuivan/tagtree/internal/platform/postgres"
)

// EnvDatabaseURL names the variable holding the test DSN.
const EnvDatabaseURL = "TAGTREE_TEST_DATABASE_URL"

const suiteLockKey int64 = 0x74616774657374

// Open returns a pool on an empty, migrated schema, or skips t.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDatabaseURL)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	lockConn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = lockConn.Exec(ctx, "SELECT pg_advisory_lock($1)", suiteLockKey)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = lockConn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", suiteLockKey)
		lockConn.Release()
	})

	require.NoError(t, migration.RunUp(dsn, migrationsPath(), logger))

	_, err = pool.Exec(ctx, "TRUNCATE tagtree.notetag, tagtree.note, tagtree.tag")
	require.NoError(t, err)

	return pool
}

func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "data", "migrations")
}
