/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package multipass

import (
	"time"

	"github.com/pkg/errors"

	bbs "github.com/getspookyid/multipass/pkg/crypto/primitive/bbs12381g2pub"
)

// Chain is a delegation chain ordered root lease first. Chains are value
// snapshots: Extend returns a new chain and never mutates the receiver, so a
// chain handed to a verifier cannot change under it.
type Chain []*Lease

// Extend returns a new chain with lease appended as the leaf.
func (c Chain) Extend(lease *Lease) Chain {
	out := make(Chain, len(c), len(c)+1)
	copy(out, c)

	return append(out, lease)
}

// Leaf returns the last lease of the chain, or nil for an empty chain.
func (c Chain) Leaf() *Lease {
	if len(c) == 0 {
		return nil
	}

	return c[len(c)-1]
}

// VerifyChain checks a delegation chain against the issuer public key at the
// given time. Nothing about the chain is taken on trust: every link's anchor,
// scope and window nesting, tier ordering, disclosed-value alignment and
// embedded proof are re-checked here, so concatenating honestly derived leases
// into a widening chain still fails. attributeCount is the credential schema
// size; proofs covering any other count are rejected. The leaf window must
// contain at. The first failing link is reported via ChainError.
func VerifyChain(chain Chain, issuerPubKey []byte, attributeCount int, at time.Time) error {
	if len(chain) == 0 {
		return errors.New("empty delegation chain")
	}

	anchorID := AnchorID(issuerPubKey)

	for i, lease := range chain {
		if err := verifyLink(lease, chain, i, anchorID); err != nil {
			return &ChainError{Link: i, Err: err}
		}

		err := bbs.New().VerifyProofFor(lease.Disclosed, lease.Proof, lease.proofNonce(),
			issuerPubKey, attributeCount)
		if err != nil {
			return &ChainError{Link: i, Err: errors.Wrap(err, "verify lease proof")}
		}
	}

	leaf := chain.Leaf()

	if at.Before(leaf.Window.NotBefore) {
		return &ChainError{Link: len(chain) - 1, Err: ErrLeaseNotYetValid}
	}

	if !at.Before(leaf.Window.NotAfter) {
		return &ChainError{Link: len(chain) - 1, Err: ErrLeaseExpired}
	}

	return nil
}

func verifyLink(lease *Lease, chain Chain, i int, anchorID string) error {
	if lease == nil {
		return errors.New("lease is not defined")
	}

	if lease.AnchorID != anchorID {
		return errors.Errorf("anchor mismatch: lease anchored at %s", lease.AnchorID)
	}

	if !lease.Window.Valid() {
		return errors.New("empty lease window")
	}

	if len(lease.Scope) == 0 {
		return errors.New("empty lease scope")
	}

	if len(lease.Disclosed) != len(lease.Scope) {
		return errors.Errorf("disclosed %d values for %d scope indexes",
			len(lease.Disclosed), len(lease.Scope))
	}

	for j := 1; j < len(lease.Scope); j++ {
		if lease.Scope[j] <= lease.Scope[j-1] {
			return errors.New("scope indexes not strictly ascending")
		}
	}

	if i == 0 {
		return nil
	}

	parent := chain[i-1]

	if !scopeSubset(lease.Scope, parent.Scope) {
		return ErrScopeExpansionDenied
	}

	if !lease.Window.Within(parent.Window) {
		return ErrWindowExpansionDenied
	}

	if lease.Tier > parent.Tier {
		return ErrTierEscalationDenied
	}

	if !passagesWithin(lease.MaxPassages, parent.MaxPassages) {
		return ErrPassageExpansionDenied
	}

	return nil
}
