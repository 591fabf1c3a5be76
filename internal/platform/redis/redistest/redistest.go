// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package redistest starts an in-process Redis for adapter tests.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Attempts is the optimistic retry bound used by the test repositories.
const Attempts = 8

// New returns a client on a fresh miniredis server closed with t.
func New(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, server
}
