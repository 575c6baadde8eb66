/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandMsgXMD(t *testing.T) {
	dst := []byte("BLS12381G1_XMD:SHA-256_SSWU_RO_TEST_DST")
	msg := []byte("some input message")

	// composing the expansion with map-to-curve and point addition must
	// reproduce the library's built-in SHA-256 hash_to_curve
	randBytes, err := expandMsgXMD(sha256.New, msg, dst, 2*64)
	require.NoError(t, err)
	require.Len(t, randBytes, 128)

	p0, err := g1.MapToCurve(reduceToFp(randBytes[:64]))
	require.NoError(t, err)

	p1, err := g1.MapToCurve(reduceToFp(randBytes[64:]))
	require.NoError(t, err)

	g1.Add(p0, p0, p1)
	g1.Affine(p0)

	expected, err := g1.HashToCurve(msg, dst)
	require.NoError(t, err)
	require.Equal(t, g1.ToBytes(expected), g1.ToBytes(p0))

	t.Run("excessive domain length", func(t *testing.T) {
		longDomain := make([]byte, 256)

		_, err := expandMsgXMD(sha256.New, msg, longDomain, 2*64)
		require.EqualError(t, err, "invalid domain length")
	})
}

func TestHashToG1(t *testing.T) {
	p1, err := hashToG1([]byte("input one"))
	require.NoError(t, err)
	require.True(t, g1.IsOnCurve(p1))
	require.True(t, g1.InCorrectSubgroup(p1))

	p2, err := hashToG1([]byte("input two"))
	require.NoError(t, err)
	require.False(t, g1.Equal(p1, p2))

	p1Again, err := hashToG1([]byte("input one"))
	require.NoError(t, err)
	require.True(t, g1.Equal(p1, p1Again))
}
