/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoKPayload(t *testing.T) {
	payload := newPoKPayload(4, []int{0, 2})
	require.Equal(t, 3, payload.lenInBytes())

	bytes, err := payload.toBytes()
	require.NoError(t, err)
	require.Len(t, bytes, 3)

	payloadParsed, err := parsePoKPayload(bytes)
	require.NoError(t, err)
	require.Equal(t, payload, payloadParsed)

	t.Run("multi-byte bitvector", func(t *testing.T) {
		payload := newPoKPayload(10, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

		bytes, err := payload.toBytes()
		require.NoError(t, err)

		payloadParsed, err := parsePoKPayload(bytes)
		require.NoError(t, err)
		require.Equal(t, payload, payloadParsed)
	})

	t.Run("invalid bytes", func(t *testing.T) {
		_, err := parsePoKPayload([]byte{})
		require.Error(t, err)

		_, err = parsePoKPayload([]byte{0, 10, 0})
		require.Error(t, err)
	})
}

func TestBitvectorToIndexes(t *testing.T) {
	require.Equal(t, []int{0}, bitvectorToIndexes([]byte{1}))
	require.Equal(t, []int{1, 2}, bitvectorToIndexes([]byte{6}))
	require.Equal(t, []int{0, 8}, bitvectorToIndexes([]byte{1, 1}))
	require.Empty(t, bitvectorToIndexes([]byte{0}))
}
