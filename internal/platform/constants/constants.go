// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Tag Defaults: Fallback colour and name limits.
  - Storage Layout: Redis key taxonomy and the PostgreSQL move lock.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "tagtree-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Tag Defaults

const (
	// DefaultTagColor is applied when a tag is created without a colour.
	DefaultTagColor = "#888888"

	// MaxTagNameLength bounds tag names in Unicode characters.
	MaxTagNameLength = 200

	// MaxTagColorLength bounds the free-form colour display string.
	MaxTagColorLength = 64

	// MaxNoteTitleLength bounds the informational note title kept by the registry.
	MaxNoteTitleLength = 500

	// MaxQueryTags bounds the distinct tag ids accepted by one HTTP note query.
	MaxQueryTags = 500
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # PostgreSQL Locks

// TagTreeLockKey is the pg_advisory_xact_lock key that serializes every
// parent-pointer write. The value is "tagtree" in ASCII.
const TagTreeLockKey int64 = 0x74616774726565

// # Redis Keys (Storage Taxonomy)

const (
	// RedisKeyTagIndex is a set of every tag id.
	RedisKeyTagIndex = "tagtree:tags"

	// RedisKeyTagRevision is bumped inside every MULTI that writes a tag; moves WATCH it.
	RedisKeyTagRevision = "tagtree:tags:rev"

	// RedisPrefixTag prefixes the hash holding one tag's fields.
	RedisPrefixTag = "tagtree:tag:"

	// RedisKeyNoteIndex is a sorted set of note ids scored by updated-at (unix nanos).
	RedisKeyNoteIndex = "tagtree:notes"

	// RedisPrefixNote prefixes the hash holding one note's fields.
	RedisPrefixNote = "tagtree:note:"

	// RedisPrefixTagNotes prefixes the set of note ids attached to a tag.
	RedisPrefixTagNotes = "tagtree:notetag:bytag:"

	// RedisPrefixNoteTags prefixes the hash of tag id -> association created-at for a note.
	RedisPrefixNoteTags = "tagtree:notetag:bynote:"
)
