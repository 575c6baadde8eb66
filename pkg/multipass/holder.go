/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package multipass

import (
	"crypto/rand"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/getspookyid/multipass/pkg/attestation"
	bbs "github.com/getspookyid/multipass/pkg/crypto/primitive/bbs12381g2pub"
)

// Holder owns a BBS+ credential and derives leases from it. The full
// attribute vector and the signature never leave the holder; every lease
// carries only a derived proof.
type Holder struct {
	messages    [][]byte
	signature   []byte
	pubKeyBytes []byte
	anchorID    string

	rand        io.Reader
	attVerifier attestation.Verifier
	minTrust    attestation.TrustLevel
}

// Option configures a Holder.
type Option func(*Holder)

// WithReader sets the source of randomness for proof derivation.
func WithReader(r io.Reader) Option {
	return func(h *Holder) {
		h.rand = r
	}
}

// WithAttestation requires every lease request to carry a device attestation
// chain verifying to at least minTrust.
func WithAttestation(v attestation.Verifier, minTrust attestation.TrustLevel) Option {
	return func(h *Holder) {
		h.attVerifier = v
		h.minTrust = minTrust
	}
}

// NewHolder creates a Holder for a credential of one or more attribute values
// signed by the issuer. The signature is verified against issuerPubKey before
// the holder is returned, so a holder never exists around an invalid
// credential.
func NewHolder(messages [][]byte, signature, issuerPubKey []byte, opts ...Option) (*Holder, error) {
	if len(messages) == 0 {
		return nil, errors.New("credential has no attributes")
	}

	if err := bbs.New().Verify(messages, signature, issuerPubKey); err != nil {
		return nil, errors.Wrap(err, "verify credential signature")
	}

	h := &Holder{
		messages:    messages,
		signature:   signature,
		pubKeyBytes: issuerPubKey,
		anchorID:    AnchorID(issuerPubKey),
		rand:        rand.Reader,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// AnchorID returns the anchor identifier shared by all leases this holder
// derives.
func (h *Holder) AnchorID() string {
	return h.anchorID
}

// LeaseRequest describes the lease a relying party asks for. Nonce must be a
// fresh verifier-chosen value. MaxPassages caps presentations, zero meaning
// uncapped. Freshness is an optional device entropy claim folded into the
// lease header. DeviceAttestation is a leaf-first DER chain and is only
// consulted when the holder enforces attestation.
type LeaseRequest struct {
	Tier              Tier
	MaxPassages       uint32
	Scope             []int
	Window            Window
	Nonce             []byte
	Freshness         []byte
	DeviceAttestation [][]byte
}

// Derive creates a lease for req, nested under parent when parent is not nil.
// A child lease may only narrow its parent: scope must be a subset, the window
// must nest, the tier must not rise and the passage cap must not grow. The
// returned lease embeds a signature proof disclosing exactly the requested
// attributes, bound to the lease header and the request nonce.
func (h *Holder) Derive(parent *Lease, req *LeaseRequest) (*Lease, error) {
	if len(req.Scope) == 0 {
		return nil, errors.New("empty lease scope")
	}

	if len(req.Nonce) == 0 {
		return nil, errors.New("lease request nonce is not defined")
	}

	if !req.Window.Valid() {
		return nil, errors.New("empty lease window")
	}

	scope := normalizeScope(req.Scope)

	for _, ind := range scope {
		if ind < 0 || ind >= len(h.messages) {
			return nil, errors.Wrapf(bbs.ErrIndexOutOfRange,
				"scope index %d of %d attributes", ind, len(h.messages))
		}
	}

	if parent != nil {
		if !scopeSubset(scope, parent.Scope) {
			return nil, ErrScopeExpansionDenied
		}

		if !req.Window.Within(parent.Window) {
			return nil, ErrWindowExpansionDenied
		}

		if req.Tier > parent.Tier {
			return nil, ErrTierEscalationDenied
		}

		if !passagesWithin(req.MaxPassages, parent.MaxPassages) {
			return nil, ErrPassageExpansionDenied
		}
	}

	var deviceKey []byte

	if h.attVerifier != nil {
		stmt, err := h.attVerifier.Verify(req.DeviceAttestation)
		if err != nil {
			return nil, errors.Wrap(err, "verify device attestation")
		}

		if stmt.Level < h.minTrust {
			return nil, errors.Wrapf(ErrUntrustedDevice,
				"device level %s below required %s", stmt.Level, h.minTrust)
		}

		deviceKey = stmt.DeviceKey
	}

	disclosed := make([][]byte, len(scope))
	for i, ind := range scope {
		disclosed[i] = h.messages[ind]
	}

	lease := &Lease{
		ID:          uuid.NewString(),
		AnchorID:    h.anchorID,
		Tier:        req.Tier,
		MaxPassages: req.MaxPassages,
		Scope:       scope,
		Window:      req.Window,
		Disclosed:   disclosed,
		DeviceKey:   deviceKey,
		Freshness:   req.Freshness,
		Nonce:       req.Nonce,
	}

	proof, err := bbs.NewWithReader(h.rand).DeriveProof(h.messages, h.signature,
		lease.proofNonce(), h.pubKeyBytes, scope)
	if err != nil {
		return nil, errors.Wrap(err, "derive lease proof")
	}

	lease.Proof = proof

	return lease, nil
}

// normalizeScope returns a sorted copy of scope with duplicates removed.
func normalizeScope(scope []int) []int {
	out := make([]int, len(scope))
	copy(out, scope)
	sort.Ints(out)

	deduped := out[:0]

	for i, ind := range out {
		if i == 0 || ind != out[i-1] {
			deduped = append(deduped, ind)
		}
	}

	return deduped
}

// passagesWithin reports whether a child passage cap stays inside the
// parent's. Zero means uncapped, so a capped parent admits only capped
// children at or below its cap.
func passagesWithin(child, parent uint32) bool {
	if parent == 0 {
		return true
	}

	return child != 0 && child <= parent
}

// scopeSubset reports whether every index of inner appears in outer. Both
// slices are sorted ascending.
func scopeSubset(inner, outer []int) bool {
	j := 0

	for _, ind := range inner {
		for j < len(outer) && outer[j] < ind {
			j++
		}

		if j == len(outer) || outer[j] != ind {
			return false
		}
	}

	return true
}
