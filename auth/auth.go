// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// MinSecretLen is the shortest tracking secret NewSigner accepts.
const MinSecretLen = 32

var (
	ErrSecretTooShort = errors.New("tracking secret too short")
	ErrInvalidToken   = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateTrackingID returns a uniformly random 64-bit visitor id.
// Zero is never returned so an unset id can't be mistaken for a real one.
func GenerateTrackingID() (uint64, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("failed to generate tracking ID: %w", err)
		}
		if id := binary.BigEndian.Uint64(b[:]); id != 0 {
			return id, nil
		}
	}
}

// Signer computes the keyed digest that binds a tracking id to a user.
type Signer struct {
	secret []byte
}

// NewSigner copies secret so later mutation by the caller has no effect.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrSecretTooShort, MinSecretLen, len(secret))
	}
	return &Signer{secret: append([]byte(nil), secret...)}, nil
}

// Sign returns the hex HMAC-SHA256 of "<id>_<user>" under the signer's secret.
// The decimal id never contains '_', so the separator can't be shifted
// between the two fields.
func (s *Signer) Sign(id uint64, user string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write(strconv.AppendUint(nil, id, 10))
	h.Write([]byte{'_'})
	h.Write([]byte(user))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature is the signature of (id, user).
func (s *Signer) Verify(id uint64, user, signature string) bool {
	expected := s.Sign(id, user)
	return hmac.Equal([]byte(signature), []byte(expected))
}
