/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"errors"
	"hash"
	"math/big"

	bls12381 "github.com/kilic/bls12-381"
	"golang.org/x/crypto/blake2b"
)

// fpModulus is the BLS12-381 base field modulus.
var fpModulus, _ = new(big.Int).SetString(
	"1a0111ea397fe69a4b1ba7b6434bacd764774b84f38512bf6730d2a0f6b0f624"+
		"1eabfffeb153ffffb9feffffffffaaab", 16)

const fpUncompressedSize = 48

// hashToG1 maps data onto G1 with the hash_to_curve construction of
// draft-irtf-cfrg-hash-to-curve, instantiated with blake2b-512 as the
// expansion hash. Each of the two field elements is mapped separately and
// the images are added; cofactor clearing commutes with the addition, so
// the sum equals the two-point construction of the draft.
func hashToG1(data []byte) (*bls12381.PointG1, error) {
	newBlake2b := func() hash.Hash {
		// We pass a null key so error is impossible here.
		h, _ := blake2b.New512(nil) //nolint:errcheck
		return h
	}

	randBytes, err := expandMsgXMD(newBlake2b, data, []byte(hashToG1DST), 2*64)
	if err != nil {
		return nil, err
	}

	p0, err := g1.MapToCurve(reduceToFp(randBytes[:64]))
	if err != nil {
		return nil, err
	}

	p1, err := g1.MapToCurve(reduceToFp(randBytes[64:]))
	if err != nil {
		return nil, err
	}

	g1.Add(p0, p0, p1)

	return g1.Affine(p0), nil
}

// reduceToFp interprets data as a big-endian integer, reduces it modulo the
// base field order and returns the canonical 48-byte encoding.
func reduceToFp(data []byte) []byte {
	u := new(big.Int).SetBytes(data)
	u.Mod(u, fpModulus)

	out := make([]byte, fpUncompressedSize)
	u.FillBytes(out)

	return out
}

// expandMsgXMD implements expand_message_xmd of draft-irtf-cfrg-hash-to-curve
// for an arbitrary Merkle-Damgard hash function.
func expandMsgXMD(f func() hash.Hash, msg []byte, domain []byte, outLen int) ([]byte, error) {
	h := f()
	if len(domain) > 255 {
		return nil, errors.New("invalid domain length")
	}

	domainLen := uint8(len(domain))

	// DST_prime = DST || I2OSP(len(DST), 1)
	// b_0 = H(Z_pad || msg || l_i_b_str || I2OSP(0, 1) || DST_prime)
	_, _ = h.Write(make([]byte, h.BlockSize()))
	_, _ = h.Write(msg)
	_, _ = h.Write([]byte{uint8(outLen >> 8), uint8(outLen)})
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(domain)
	_, _ = h.Write([]byte{domainLen})
	b0 := h.Sum(nil)

	// b_1 = H(b_0 || I2OSP(1, 1) || DST_prime)
	h.Reset()
	_, _ = h.Write(b0)
	_, _ = h.Write([]byte{1})
	_, _ = h.Write(domain)
	_, _ = h.Write([]byte{domainLen})
	b1 := h.Sum(nil)

	// b_i = H(strxor(b_0, b_(i - 1)) || I2OSP(i, 1) || DST_prime)
	ell := (outLen + h.Size() - 1) / h.Size()
	bi := b1
	out := make([]byte, outLen)

	for i := 1; i < ell; i++ {
		h.Reset()

		tmp := make([]byte, h.Size())
		for j := 0; j < h.Size(); j++ {
			tmp[j] = b0[j] ^ bi[j]
		}

		_, _ = h.Write(tmp)
		_, _ = h.Write([]byte{1 + uint8(i)})
		_, _ = h.Write(domain)
		_, _ = h.Write([]byte{domainLen})

		// b_1 || ... || b_(ell - 1)
		copy(out[(i-1)*h.Size():i*h.Size()], bi)
		bi = h.Sum(nil)
	}

	// b_ell
	copy(out[(ell-1)*h.Size():], bi)

	return out[:outLen], nil
}
