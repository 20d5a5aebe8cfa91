// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// TrackingCookieName is the cookie that carries the tracking token.
	TrackingCookieName = "tracking_id"
	// TrackingLifetime is how long a freshly issued token's cookie lives.
	TrackingLifetime = 24 * time.Hour

	signatureHexLen = 64
)

// TrackingToken is a visitor id plus the signature binding it to one user.
type TrackingToken struct {
	ID        uint64
	Signature string
}

// String renders the cookie wire format "<id>_<signature>".
func (t TrackingToken) String() string {
	return strconv.FormatUint(t.ID, 10) + "_" + t.Signature
}

// ParseTrackingToken validates the shape of a cookie value. It does not
// check the signature; that needs the user and is done by Tracker.
func ParseTrackingToken(raw string) (TrackingToken, error) {
	i := strings.LastIndexByte(raw, '_')
	if i <= 0 || i == len(raw)-1 {
		return TrackingToken{}, ErrInvalidToken
	}
	idPart, sig := raw[:i], raw[i+1:]

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return TrackingToken{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// Leading zeros would make String() differ from the cookie we were sent.
	if strconv.FormatUint(id, 10) != idPart {
		return TrackingToken{}, ErrInvalidToken
	}

	if len(sig) != signatureHexLen || strings.ToLower(sig) != sig {
		return TrackingToken{}, ErrInvalidToken
	}
	if _, err := hex.DecodeString(sig); err != nil {
		return TrackingToken{}, ErrInvalidToken
	}

	return TrackingToken{ID: id, Signature: sig}, nil
}

// Resolution is the outcome of resolving a request's tracking cookie.
// When Reissued is set the caller must write Token as a new cookie
// expiring at Expires.
type Resolution struct {
	Token    TrackingToken
	Reissued bool
	Expires  time.Time
}

// Tracker issues and validates tracking tokens. It keeps no server-side
// state: a token's signature is the only thing that makes it valid.
type Tracker struct {
	signer *Signer
	now    func() time.Time
	newID  func() (uint64, error)
}

func NewTracker(signer *Signer) *Tracker {
	return &Tracker{
		signer: signer,
		now:    time.Now,
		newID:  GenerateTrackingID,
	}
}

// Resolve returns the caller's existing token when it verifies for user and
// a fresh one otherwise. A missing, malformed or forged cookie is not an
// error; only a failure of the random source is.
func (t *Tracker) Resolve(cookieValue string, present bool, user string) (Resolution, error) {
	if present {
		if tok, err := ParseTrackingToken(cookieValue); err == nil && t.signer.Verify(tok.ID, user, tok.Signature) {
			return Resolution{Token: tok}, nil
		}
	}

	id, err := t.newID()
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{
		Token:    TrackingToken{ID: id, Signature: t.signer.Sign(id, user)},
		Reissued: true,
		Expires:  t.now().Add(TrackingLifetime),
	}, nil
}
