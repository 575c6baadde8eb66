/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package multipass implements scoped, time-bounded delegation of a BBS+
// credential. A holder derives leases: each lease discloses a subset of the
// credential's attributes for a bounded window and embeds a fresh signature
// proof bound to the lease header, so neither the lease nor the proof can be
// reused outside the terms it names. Leases nest into chains whose every link
// may only narrow its parent.
package multipass

import (
	"encoding/binary"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// Tier ranks a lease's privilege. Delegation may keep or lower the tier,
// never raise it.
type Tier uint8

// Window is a half-open validity interval: NotBefore is inclusive, NotAfter
// is exclusive.
type Window struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.NotAfter.After(w.NotBefore)
}

// Contains reports whether at falls inside the window.
func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.NotBefore) && at.Before(w.NotAfter)
}

// Within reports whether the whole window is nested inside outer.
func (w Window) Within(outer Window) bool {
	return !w.NotBefore.Before(outer.NotBefore) && !w.NotAfter.After(outer.NotAfter)
}

// Lease is one link of a delegation chain. Scope holds the disclosed
// attribute indexes in ascending order and Disclosed the matching attribute
// values. MaxPassages caps how many times the lease may be presented, zero
// meaning uncapped; DeviceKey pins the lease to the attested device key it
// was derived on and Freshness carries the device entropy claim sampled at
// derivation. Proof is a BBS+ signature proof whose nonce commits to the
// lease header, so any change to the lease terms invalidates it.
type Lease struct {
	ID          string
	AnchorID    string
	Tier        Tier
	MaxPassages uint32
	Scope       []int
	Window      Window
	Disclosed   [][]byte
	DeviceKey   []byte
	Freshness   []byte
	Nonce       []byte
	Proof       []byte
}

// AnchorID derives the chain anchor identifier for an issuer public key: the
// base58 form of its blake2b-256 digest.
func AnchorID(issuerPubKey []byte) string {
	digest := blake2b.Sum256(issuerPubKey)

	return base58.Encode(digest[:])
}

// headerBytes returns the canonical encoding of the lease terms. Fixed field
// order, big-endian lengths and values; Unix nanoseconds for the window
// bounds. The proof nonce is headerBytes followed by the holder nonce, which
// is what makes the embedded proof tamper-evident.
func (l *Lease) headerBytes() []byte {
	bytes := make([]byte, 0, 64)

	bytes = appendLenPrefixed(bytes, []byte(l.ID))
	bytes = appendLenPrefixed(bytes, []byte(l.AnchorID))
	bytes = append(bytes, byte(l.Tier))
	bytes = binary.BigEndian.AppendUint32(bytes, l.MaxPassages)

	bytes = binary.BigEndian.AppendUint16(bytes, uint16(len(l.Scope)))
	for _, ind := range l.Scope {
		bytes = binary.BigEndian.AppendUint32(bytes, uint32(ind))
	}

	bytes = binary.BigEndian.AppendUint64(bytes, uint64(l.Window.NotBefore.UnixNano()))
	bytes = binary.BigEndian.AppendUint64(bytes, uint64(l.Window.NotAfter.UnixNano()))

	bytes = appendLenPrefixed(bytes, l.DeviceKey)
	bytes = appendLenPrefixed(bytes, l.Freshness)

	return bytes
}

// proofNonce binds the embedded proof to the lease terms and to the holder's
// fresh nonce.
func (l *Lease) proofNonce() []byte {
	return append(l.headerBytes(), l.Nonce...)
}

func appendLenPrefixed(bytes, value []byte) []byte {
	bytes = binary.BigEndian.AppendUint16(bytes, uint16(len(value)))

	return append(bytes, value...)
}
