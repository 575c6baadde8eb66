/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub_test

import (
	"crypto/rand"
	"crypto/sha256"
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	bbs "github.com/getspookyid/multipass/pkg/crypto/primitive/bbs12381g2pub"
)

func TestBlsG2Pub_SignAndVerify(t *testing.T) {
	pubKey, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	messagesBytes := [][]byte{
		[]byte("message1"),
		[]byte("message2"),
		[]byte("message3"),
	}

	signatureBytes, err := bls.Sign(messagesBytes, priv(t, privKey))
	require.NoError(t, err)
	require.Len(t, signatureBytes, 112)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	require.NoError(t, bls.Verify(messagesBytes, signatureBytes, pubKeyBytes))

	t.Run("invalid signature", func(t *testing.T) {
		err := bls.Verify(messagesBytes, []byte("invalid"), pubKeyBytes)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid size of signature")
	})

	t.Run("tampered message", func(t *testing.T) {
		tampered := [][]byte{
			[]byte("message1"),
			[]byte("tampered"),
			[]byte("message3"),
		}

		err := bls.Verify(tampered, signatureBytes, pubKeyBytes)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrInvalidSignature)
	})

	t.Run("wrong messages count", func(t *testing.T) {
		err := bls.Verify(messagesBytes[:2], signatureBytes, pubKeyBytes)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrSchemaMismatch)
	})

	t.Run("invalid public key", func(t *testing.T) {
		err := bls.Verify(messagesBytes, signatureBytes, []byte("invalid"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse public key")
	})
}

func TestBlsG2Pub_Sign(t *testing.T) {
	_, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	t.Run("no messages", func(t *testing.T) {
		_, err := bls.Sign(nil, priv(t, privKey))
		require.EqualError(t, err, "messages are not defined")
	})

	t.Run("invalid private key", func(t *testing.T) {
		_, err := bls.Sign([][]byte{[]byte("message")}, []byte("invalid"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unmarshal private key")
	})
}

func TestBlsG2Pub_SignWithKeyFor(t *testing.T) {
	_, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	messagesBytes := [][]byte{
		[]byte("message1"),
		[]byte("message2"),
	}

	signatureBytes, err := bls.SignWithKeyFor(messagesBytes, privKey, 2)
	require.NoError(t, err)
	require.Len(t, signatureBytes, 112)

	_, err = bls.SignWithKeyFor(messagesBytes, privKey, 3)
	require.Error(t, err)
	require.ErrorIs(t, err, bbs.ErrSchemaMismatch)
}

func TestBlsG2Pub_SignIsRandomized(t *testing.T) {
	pubKey, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	messagesBytes := [][]byte{[]byte("message1"), []byte("message2")}

	sig1, err := bls.Sign(messagesBytes, priv(t, privKey))
	require.NoError(t, err)

	sig2, err := bls.Sign(messagesBytes, priv(t, privKey))
	require.NoError(t, err)

	// fresh (e, s) per call, same message vector never signs to the same bytes
	require.NotEqual(t, sig1, sig2)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	require.NoError(t, bls.Verify(messagesBytes, sig1, pubKeyBytes))
	require.NoError(t, bls.Verify(messagesBytes, sig2, pubKeyBytes))
}

func TestBlsG2Pub_DeterministicWithReader(t *testing.T) {
	_, privKey := generateKeyPairRandom(t)

	messagesBytes := [][]byte{[]byte("message1"), []byte("message2")}

	sig1, err := bbs.NewWithReader(mathrand.New(mathrand.NewSource(42))).
		SignWithKey(messagesBytes, privKey)
	require.NoError(t, err)

	sig2, err := bbs.NewWithReader(mathrand.New(mathrand.NewSource(42))).
		SignWithKey(messagesBytes, privKey)
	require.NoError(t, err)

	require.Equal(t, sig1, sig2)
}

func TestBlsG2Pub_DeriveProof(t *testing.T) {
	pubKey, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	messagesBytes := [][]byte{
		[]byte("message1"),
		[]byte("message2"),
		[]byte("message3"),
		[]byte("message4"),
	}

	signatureBytes, err := bls.SignWithKey(messagesBytes, privKey)
	require.NoError(t, err)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	nonce := []byte("nonce")
	revealedIndexes := []int{0, 2}

	proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, revealedIndexes)
	require.NoError(t, err)
	require.NotEmpty(t, proofBytes)

	revealedMessages := make([][]byte, len(revealedIndexes))
	for i, ind := range revealedIndexes {
		revealedMessages[i] = messagesBytes[ind]
	}

	require.NoError(t, bls.VerifyProof(revealedMessages, proofBytes, nonce, pubKeyBytes))

	t.Run("unordered revealed indexes", func(t *testing.T) {
		proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes,
			[]int{2, 0})
		require.NoError(t, err)

		require.NoError(t, bls.VerifyProof(revealedMessages, proofBytes, nonce, pubKeyBytes))
	})

	t.Run("wrong nonce", func(t *testing.T) {
		err := bls.VerifyProof(revealedMessages, proofBytes, []byte("other nonce"), pubKeyBytes)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrInvalidProof)
	})

	t.Run("tampered revealed message", func(t *testing.T) {
		err := bls.VerifyProof([][]byte{[]byte("message1"), []byte("tampered")},
			proofBytes, nonce, pubKeyBytes)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrInvalidProof)
	})

	t.Run("no messages revealed", func(t *testing.T) {
		_, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, nil)
		require.EqualError(t, err, "no message to reveal")
	})

	t.Run("revealed index out of range", func(t *testing.T) {
		_, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{4})
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrIndexOutOfRange)

		_, err = bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{-1})
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrIndexOutOfRange)
	})

	t.Run("invalid signature", func(t *testing.T) {
		tamperedSig := make([]byte, len(signatureBytes))
		copy(tamperedSig, signatureBytes)
		tamperedSig[60] ^= 0xff

		_, err := bls.DeriveProof(messagesBytes, tamperedSig, nonce, pubKeyBytes, revealedIndexes)
		require.Error(t, err)
		require.ErrorIs(t, err, bbs.ErrInvalidSignature)
	})

	t.Run("malformed proof", func(t *testing.T) {
		err := bls.VerifyProof(revealedMessages, []byte("malformed"), nonce, pubKeyBytes)
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse signature proof")
	})
}

func TestBlsG2Pub_DeriveProofSingleMessage(t *testing.T) {
	pubKey, privKey := generateKeyPairRandom(t)

	bls := bbs.New()

	messagesBytes := [][]byte{[]byte("single message")}

	signatureBytes, err := bls.SignWithKey(messagesBytes, privKey)
	require.NoError(t, err)

	pubKeyBytes, err := pubKey.Marshal()
	require.NoError(t, err)

	nonce := []byte("nonce")

	proofBytes, err := bls.DeriveProof(messagesBytes, signatureBytes, nonce, pubKeyBytes, []int{0})
	require.NoError(t, err)

	require.NoError(t, bls.VerifyProof(messagesBytes, proofBytes, nonce, pubKeyBytes))
}

func TestParseProofNonce(t *testing.T) {
	proofNonce := bbs.ParseProofNonce([]byte("some nonce"))
	require.NotNil(t, proofNonce)
	require.Len(t, proofNonce.ToBytes(), 32)

	otherNonce := bbs.ParseProofNonce([]byte("other nonce"))
	require.NotEqual(t, proofNonce.ToBytes(), otherNonce.ToBytes())
}

func generateKeyPairRandom(t *testing.T) (*bbs.PublicKey, *bbs.PrivateKey) {
	t.Helper()

	seed := make([]byte, 32)

	_, err := rand.Read(seed)
	require.NoError(t, err)

	pubKey, privKey, err := bbs.GenerateKeyPair(sha256.New, seed)
	require.NoError(t, err)

	return pubKey, privKey
}

func priv(t *testing.T, privKey *bbs.PrivateKey) []byte {
	t.Helper()

	bytes, err := privKey.Marshal()
	require.NoError(t, err)

	return bytes
}
