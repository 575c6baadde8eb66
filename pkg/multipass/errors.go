/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package multipass

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrScopeExpansionDenied is returned when a lease requests attribute
	// indexes outside its parent's scope.
	ErrScopeExpansionDenied = errors.New("scope expansion denied")

	// ErrWindowExpansionDenied is returned when a lease requests a validity
	// window not nested inside its parent's window.
	ErrWindowExpansionDenied = errors.New("window expansion denied")

	// ErrTierEscalationDenied is returned when a lease requests a tier above
	// its parent's tier.
	ErrTierEscalationDenied = errors.New("tier escalation denied")

	// ErrPassageExpansionDenied is returned when a lease requests more
	// passages than its parent allows.
	ErrPassageExpansionDenied = errors.New("passage expansion denied")

	// ErrLeaseExpired is returned when the checked time falls at or after the
	// lease window's end.
	ErrLeaseExpired = errors.New("lease expired")

	// ErrLeaseNotYetValid is returned when the checked time falls before the
	// lease window's start.
	ErrLeaseNotYetValid = errors.New("lease not yet valid")

	// ErrUntrustedDevice is returned when the requesting device's attestation
	// level is below the holder's policy.
	ErrUntrustedDevice = errors.New("untrusted device")
)

// ChainError reports which link of a delegation chain failed verification.
// Link 0 is the root lease.
type ChainError struct {
	Link int
	Err  error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("chain link %d: %s", e.Link, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}
