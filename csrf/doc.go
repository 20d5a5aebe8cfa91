// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package csrf issues and consumes single-use anti-forgery tokens.

Every rendered form gets a token bound to the viewing user; the next
mutating request from that user must present it:

	token, err := store.Issue(ctx, user)
	ok, err := store.Consume(ctx, user, presented)

Two backends implement Store:

  - MemoryStore: sharded in-process map with optional TTL eviction.
  - RedisStore: shared across processes; consume is an atomic
    compare-and-delete Lua script.
*/
package csrf
