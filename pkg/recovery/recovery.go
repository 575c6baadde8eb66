/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package recovery splits an issuer secret scalar into Shamir shares over the
// BLS12-381 scalar field and reconstructs it from any threshold-sized subset.
// Shares are plain field elements; fewer than threshold shares reveal nothing
// about the secret.
package recovery

import (
	"encoding/binary"
	"io"

	bls12381 "github.com/kilic/bls12-381"
	"github.com/pkg/errors"
)

// shareValueSize is the serialized size of a share value, matching the
// 32-byte big-endian reduced form of a scalar.
const shareValueSize = 32

// Share is one Shamir share: the evaluation of the secret polynomial at
// point Index. Index is never zero.
type Share struct {
	Index uint32
	Value []byte
}

// Split shares secret among n holders so that any threshold of them can
// reconstruct it. The secret is a scalar in 32-byte big-endian reduced form,
// as produced by PrivateKey.Marshal. Polynomial coefficients are drawn
// from r.
func Split(secret []byte, n, threshold int, r io.Reader) ([]Share, error) {
	if len(secret) != shareValueSize {
		return nil, errors.New("invalid size of secret")
	}

	if threshold < 1 || threshold > n {
		return nil, errors.Errorf("invalid threshold %d for %d shares", threshold, n)
	}

	secretFr := bls12381.NewFr().FromBytes(secret)

	// coefficients[0] is the secret; the rest are random, making the
	// polynomial degree threshold-1.
	coefficients := make([]*bls12381.Fr, threshold)
	coefficients[0] = secretFr

	for i := 1; i < threshold; i++ {
		c, err := bls12381.NewFr().Rand(r)
		if err != nil {
			return nil, errors.Wrap(err, "draw polynomial coefficient")
		}

		coefficients[i] = c
	}

	shares := make([]Share, n)

	for i := 0; i < n; i++ {
		index := uint32(i + 1)
		x := frFromUint32(index)

		value := bls12381.NewFr().Set(coefficients[threshold-1])

		for j := threshold - 2; j >= 0; j-- {
			value.Mul(value, x)
			value.Add(value, coefficients[j])
		}

		shares[i] = Share{
			Index: index,
			Value: value.ToBytes(),
		}
	}

	return shares, nil
}

// Reconstruct recovers the secret from the given shares by Lagrange
// interpolation at zero. The shares' count is taken as the threshold; passing
// fewer shares than the split threshold yields a wrong scalar, not an error.
func Reconstruct(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.New("no shares defined")
	}

	seen := make(map[uint32]struct{}, len(shares))

	for _, share := range shares {
		if share.Index == 0 {
			return nil, errors.New("share index is zero")
		}

		if _, ok := seen[share.Index]; ok {
			return nil, errors.Errorf("duplicate share index %d", share.Index)
		}

		seen[share.Index] = struct{}{}

		if len(share.Value) != shareValueSize {
			return nil, errors.Errorf("invalid size of share %d value", share.Index)
		}
	}

	// a single share carries a degree-zero polynomial, which is the secret
	if len(shares) == 1 {
		return shares[0].Value, nil
	}

	secret := bls12381.NewFr().Zero()

	for i, share := range shares {
		value := bls12381.NewFr().FromBytes(share.Value)

		term := bls12381.NewFr()
		term.Mul(value, lagrangeCoefficientAtZero(shares, i))
		secret.Add(secret, term)
	}

	return secret.ToBytes(), nil
}

// lagrangeCoefficientAtZero computes Π (x_j / (x_j - x_i)) over j != i for an
// interpolation to position zero. At least two shares with distinct indexes
// are required.
func lagrangeCoefficientAtZero(shares []Share, i int) *bls12381.Fr {
	xi := frFromUint32(shares[i].Index)

	var top, bot *bls12381.Fr

	for j, share := range shares {
		if j == i {
			continue
		}

		xj := frFromUint32(share.Index)

		diff := bls12381.NewFr()
		diff.Sub(xj, xi)

		if top == nil {
			top = bls12381.NewFr().Set(xj)
			bot = diff

			continue
		}

		top.Mul(top, xj)
		bot.Mul(bot, diff)
	}

	botInv := bls12381.NewFr()
	botInv.Inverse(bot)

	top.Mul(top, botInv)

	return top
}

func frFromUint32(value uint32) *bls12381.Fr {
	bytes := make([]byte, shareValueSize)
	binary.BigEndian.PutUint32(bytes[shareValueSize-4:], value)

	return bls12381.NewFr().FromBytes(bytes)
}
