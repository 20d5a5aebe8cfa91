// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides visitor tracking tokens and random id generation.

# Signatures

A Signer computes HMAC-SHA256 over a tracking id and a user identity,
keyed with the process-wide tracking secret:

	signer, err := auth.NewSigner(secret) // secret must be >= 32 bytes
	sig := signer.Sign(id, "guest1")
	ok := signer.Verify(id, "guest1", sig)

Verification is constant time. A signature made for one user never
verifies for another, so a token can't be replayed across identities.

# Tracking Tokens

Tokens travel in the tracking_id cookie as "<id>_<signature>":

	tracker := auth.NewTracker(signer)
	res, err := tracker.Resolve(cookieValue, cookiePresent, user)
	if res.Reissued {
		// write res.Token.String() as a cookie expiring at res.Expires
	}

Resolve never writes cookies itself. Invalid or forged cookies are
silently replaced with a freshly issued token; the server stores nothing.

# ID Generation

	id, err := auth.GenerateID(16)          // 32 hex characters
	trackingID, err := auth.GenerateTrackingID() // random uint64
*/
package auth
