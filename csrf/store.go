// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"

	"github.com/danielhkuo/postboard/auth"
)

// TokenBytes is the entropy of an issued token; it is hex encoded on the wire.
const TokenBytes = 16

// Store hands out single-use anti-forgery tokens keyed by user identity.
//
// Issue replaces any token the user already holds. Consume succeeds at most
// once per issued token and only for the user it was issued to; a failed
// Consume leaves the stored token untouched.
type Store interface {
	Issue(ctx context.Context, user string) (string, error)
	Consume(ctx context.Context, user, token string) (bool, error)
}

func newToken() (string, error) {
	return auth.GenerateID(TokenBytes)
}
