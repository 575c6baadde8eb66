/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import "errors"

// Sentinel errors of the signature and proof engines. All failures returned by
// this package either are one of these or wrap one of them, so callers can
// distinguish caller bugs (schema, index range) from cryptographic rejections
// with errors.Is.
var (
	// ErrSchemaMismatch is returned when an attribute vector disagrees with
	// the schema length the generators were derived for.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIndexOutOfRange is returned when a revealed-index set points outside
	// the schema's index range.
	ErrIndexOutOfRange = errors.New("revealed index out of range")

	// ErrInvalidSignature is returned when the signature equation does not hold.
	ErrInvalidSignature = errors.New("invalid BLS12-381 signature")

	// ErrInvalidProof is returned when a signature proof fails verification.
	ErrInvalidProof = errors.New("invalid BLS12-381 signature proof")
)
