/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	bbs "github.com/getspookyid/multipass/pkg/crypto/primitive/bbs12381g2pub"
)

func TestGenerateKeyPair(t *testing.T) {
	h := sha256.New

	seed := make([]byte, 32)

	pubKey, privKey, err := bbs.GenerateKeyPair(h, seed)
	require.NoError(t, err)
	require.NotNil(t, pubKey)
	require.NotNil(t, privKey)

	// use random seed
	pubKey, privKey, err = bbs.GenerateKeyPair(h, nil)
	require.NoError(t, err)
	require.NotNil(t, pubKey)
	require.NotNil(t, privKey)

	// invalid size of seed
	pubKey, privKey, err = bbs.GenerateKeyPair(h, make([]byte, 31))
	require.Error(t, err)
	require.EqualError(t, err, "invalid size of seed")
	require.Nil(t, pubKey)
	require.Nil(t, privKey)
}

func TestGenerateKeyPair_Deterministic(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7

	pubKey1, privKey1, err := bbs.GenerateKeyPair(sha256.New, seed)
	require.NoError(t, err)

	pubKey2, privKey2, err := bbs.GenerateKeyPair(sha256.New, seed)
	require.NoError(t, err)

	pubKeyBytes1, err := pubKey1.Marshal()
	require.NoError(t, err)

	pubKeyBytes2, err := pubKey2.Marshal()
	require.NoError(t, err)

	require.Equal(t, pubKeyBytes1, pubKeyBytes2)

	privKeyBytes1, err := privKey1.Marshal()
	require.NoError(t, err)

	privKeyBytes2, err := privKey2.Marshal()
	require.NoError(t, err)

	require.Equal(t, privKeyBytes1, privKeyBytes2)
}

func TestPrivateKey_Marshal(t *testing.T) {
	_, privKey := generateKeyPairRandom(t)

	privKeyBytes, err := privKey.Marshal()
	require.NoError(t, err)
	require.NotNil(t, privKeyBytes)
	require.Len(t, privKeyBytes, 32)

	privKeyParsed, err := bbs.UnmarshalPrivateKey(privKeyBytes)
	require.NoError(t, err)
	require.Equal(t, privKey, privKeyParsed)

	_, err = bbs.UnmarshalPrivateKey(nil)
	require.EqualError(t, err, "invalid size of private key")

	t.Run("reparsed key signs verifiable signatures", func(t *testing.T) {
		messagesBytes := [][]byte{[]byte("message1"), []byte("message2")}

		signatureBytes, err := bbs.New().Sign(messagesBytes, privKeyBytes)
		require.NoError(t, err)

		pubKeyBytes, err := privKeyParsed.PublicKey().Marshal()
		require.NoError(t, err)

		require.NoError(t, bbs.New().Verify(messagesBytes, signatureBytes, pubKeyBytes))
	})
}

func TestPrivateKey_LinkageTag(t *testing.T) {
	_, privKey := generateKeyPairRandom(t)

	tag := privKey.LinkageTag([]byte("site-one.example"))
	require.Len(t, tag, 48)

	// same key and site always produce the same pseudonym
	require.Equal(t, tag, privKey.LinkageTag([]byte("site-one.example")))

	// a different site yields an uncorrelated tag
	require.NotEqual(t, tag, privKey.LinkageTag([]byte("site-two.example")))

	// a different key yields a different tag for the same site
	_, otherKey := generateKeyPairRandom(t)
	require.NotEqual(t, tag, otherKey.LinkageTag([]byte("site-one.example")))
}

func TestPrivateKey_PublicKey(t *testing.T) {
	pubKey, privKey := generateKeyPairRandom(t)

	require.Equal(t, pubKey, privKey.PublicKey())
}

func TestPublicKey_Marshal(t *testing.T) {
	pubKey, _ := generateKeyPairRandom(t)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)
	require.NotNil(t, pubKeyBytes)
	require.Len(t, pubKeyBytes, 96)

	pubKeyParsed, err := bbs.UnmarshalPublicKey(pubKeyBytes)
	require.NoError(t, err)

	pubKeyParsedBytes, err := pubKeyParsed.Marshal()
	require.NoError(t, err)
	require.Equal(t, pubKeyBytes, pubKeyParsedBytes)

	_, err = bbs.UnmarshalPublicKey([]byte("invalid"))
	require.EqualError(t, err, "invalid size of public key")
}

func TestPublicKey_ToPublicKeyWithGenerators(t *testing.T) {
	pubKey, _ := generateKeyPairRandom(t)

	pubKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(5)
	require.NoError(t, err)
	require.NotNil(t, pubKeyWithGenerators)
	require.Equal(t, 5, pubKeyWithGenerators.MessagesCount())

	t.Run("invalid schema size", func(t *testing.T) {
		pubKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(0)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrSchemaMismatch)
		require.Nil(t, pubKeyWithGenerators)

		_, err = pubKey.ToPublicKeyWithGenerators(-1)
		require.ErrorIs(t, err, bbs.ErrSchemaMismatch)
	})

	t.Run("generators are deterministic", func(t *testing.T) {
		again, err := pubKey.ToPublicKeyWithGenerators(5)
		require.NoError(t, err)
		require.Equal(t, pubKeyWithGenerators, again)
	})
}
