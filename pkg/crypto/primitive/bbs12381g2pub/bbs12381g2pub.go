/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bbs12381g2pub contains BBS+ signing primitives and keys. Public keys are
// BLS12-381 points in the G2 group, while signatures and proofs live in G1.
// A single signature covers an ordered vector of messages, and a signature
// proof of knowledge reveals any chosen subset of them without weakening the
// unforgeability of the rest.
package bbs12381g2pub

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"

	bls12381 "github.com/kilic/bls12-381"
)

// BBSG2Pub defines a BBS+ signature scheme where public key is a point in the
// field of G2. All randomness consumed by signing and proof derivation is
// drawn from the configured reader.
type BBSG2Pub struct {
	rand io.Reader
}

// New creates a new BBSG2Pub backed by crypto/rand.
func New() *BBSG2Pub {
	return &BBSG2Pub{rand: rand.Reader}
}

// NewWithReader creates a new BBSG2Pub drawing randomness from r. Passing a
// deterministic reader makes signatures and proofs reproducible, which is
// only safe in tests.
func NewWithReader(r io.Reader) *BBSG2Pub {
	return &BBSG2Pub{rand: r}
}

const (
	// Signature length.
	bls12381SignatureLen = 112

	// Default BLS 12-381 public key length in G2 field.
	bls12381G2PublicKeyLen = 96

	// Number of bytes in G1 X coordinate.
	g1CompressedSize = 48

	// Number of bytes in G1 X and Y coordinates.
	g1UncompressedSize = 96

	// Number of bytes in G2 X(a, b) and Y(a, b) coordinates.
	g2UncompressedSize = 192

	// Number of bytes in scalar compressed form.
	frCompressedSize = 32

	// Number of bytes in scalar uncompressed form.
	frUncompressedSize = 48
)

var (
	g1 = bls12381.NewG1() //nolint:gochecknoglobals
	g2 = bls12381.NewG2() //nolint:gochecknoglobals
)

// Verify makes BLS BBS12-381 signature verification.
func (bbs *BBSG2Pub) Verify(messages [][]byte, sigBytes, pubKeyBytes []byte) error {
	signature, err := ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}

	pubKey, err := UnmarshalPublicKey(pubKeyBytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}

	messagesFr := messagesToFr(messages)

	publicKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(len(messages))
	if err != nil {
		return fmt.Errorf("build generators from public key: %w", err)
	}

	return signature.Verify(messagesFr, publicKeyWithGenerators)
}

// Sign signs the one or more messages using private key in compressed form.
func (bbs *BBSG2Pub) Sign(messages [][]byte, privKeyBytes []byte) ([]byte, error) {
	privKey, err := UnmarshalPrivateKey(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}

	if len(messages) == 0 {
		return nil, errors.New("messages are not defined")
	}

	return bbs.SignWithKey(messages, privKey)
}

// SignWithKey signs the one or more messages using BBS+ key pair.
func (bbs *BBSG2Pub) SignWithKey(messages [][]byte, privKey *PrivateKey) ([]byte, error) {
	return bbs.SignWithKeyFor(messages, privKey, len(messages))
}

// SignWithKeyFor signs messages against a fixed attribute schema of
// messagesCount slots. A message vector of any other length is rejected with
// ErrSchemaMismatch before any group operation runs.
func (bbs *BBSG2Pub) SignWithKeyFor(messages [][]byte, privKey *PrivateKey, messagesCount int) ([]byte, error) {
	if len(messages) != messagesCount {
		return nil, fmt.Errorf("%w: got %d messages for a schema of %d",
			ErrSchemaMismatch, len(messages), messagesCount)
	}

	pubKey := privKey.PublicKey()

	pubKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(messagesCount)
	if err != nil {
		return nil, fmt.Errorf("build generators from public key: %w", err)
	}

	e, s := createRandSignatureFr(bbs.rand), createRandSignatureFr(bbs.rand)

	exp := bls12381.NewFr().Set(privKey.FR)
	exp.Add(exp, e)
	exp.Inverse(exp)

	messagesFr := messagesToFr(messages)

	b := computeB(s, messagesFr, pubKeyWithGenerators)
	sig := g1.New()
	g1.MulScalar(sig, b, frToRepr(exp))

	signature := &Signature{
		A: sig,
		E: e,
		S: s,
	}

	return signature.ToBytes()
}

// VerifyProof verifies a BBS+ signature proof for one or more revealed
// messages. The revealed messages are supplied in the order of their original
// indexes; their positions within the full vector travel inside the proof.
func (bbs *BBSG2Pub) VerifyProof(messagesBytes [][]byte, proof, nonce, pubKeyBytes []byte) error {
	payload, err := parsePoKPayload(proof)
	if err != nil {
		return fmt.Errorf("parse signature proof: %w", err)
	}

	return bbs.verifyProof(payload, messagesBytes, proof, nonce, pubKeyBytes)
}

// VerifyProofFor verifies a BBS+ signature proof against a fixed attribute
// schema of messagesCount slots. A proof carrying any other message count is
// rejected with ErrSchemaMismatch before the group checks run.
func (bbs *BBSG2Pub) VerifyProofFor(messagesBytes [][]byte, proof, nonce, pubKeyBytes []byte,
	messagesCount int) error {
	payload, err := parsePoKPayload(proof)
	if err != nil {
		return fmt.Errorf("parse signature proof: %w", err)
	}

	if payload.messagesCount != messagesCount {
		return fmt.Errorf("%w: proof covers %d messages for a schema of %d",
			ErrSchemaMismatch, payload.messagesCount, messagesCount)
	}

	return bbs.verifyProof(payload, messagesBytes, proof, nonce, pubKeyBytes)
}

func (bbs *BBSG2Pub) verifyProof(payload *pokPayload, messagesBytes [][]byte,
	proof, nonce, pubKeyBytes []byte) error {
	signatureProof, err := ParseSignatureProof(proof[payload.lenInBytes():])
	if err != nil {
		return fmt.Errorf("parse signature proof: %w", err)
	}

	messages := messagesToFr(messagesBytes)

	pubKey, err := UnmarshalPublicKey(pubKeyBytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}

	publicKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(payload.messagesCount)
	if err != nil {
		return fmt.Errorf("build generators from public key: %w", err)
	}

	if len(payload.revealed) > len(messages) {
		return fmt.Errorf("%w: payload revealed bigger from messages", ErrInvalidProof)
	}

	revealedMessages := make(map[int]*SignatureMessage)
	for i := range payload.revealed {
		revealedMessages[payload.revealed[i]] = messages[i]
	}

	challengeBytes := signatureProof.GetBytesForChallenge(revealedMessages)
	challengeBytes = append(challengeBytes, nonce...)
	proofChallenge := frFromOKM(challengeBytes)

	return signatureProof.Verify(proofChallenge, publicKeyWithGenerators, revealedMessages, messages)
}

// DeriveProof derives a proof of BBS+ signature with some messages disclosed.
// The revealed indexes are normalized into ascending order so equal disclosure
// sets always hash to the same challenge transcript.
func (bbs *BBSG2Pub) DeriveProof(messages [][]byte, sigBytes, nonce, pubKeyBytes []byte,
	revealedIndexes []int) ([]byte, error) {
	if len(revealedIndexes) == 0 {
		return nil, errors.New("no message to reveal")
	}

	// normalized ascending order keeps the challenge transcript canonical
	revealedIndexes = append([]int(nil), revealedIndexes...)
	sort.Ints(revealedIndexes)

	messagesCount := len(messages)

	messagesFr := messagesToFr(messages)

	pubKey, err := UnmarshalPublicKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	publicKeyWithGenerators, err := pubKey.ToPublicKeyWithGenerators(messagesCount)
	if err != nil {
		return nil, fmt.Errorf("build generators from public key: %w", err)
	}

	signature, err := ParseSignature(sigBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	pokSignature, err := NewPoKOfSignature(signature, messagesFr, revealedIndexes,
		publicKeyWithGenerators, bbs.rand)
	if err != nil {
		return nil, fmt.Errorf("init proof of knowledge signature: %w", err)
	}

	challengeBytes := pokSignature.ToBytes()
	challengeBytes = append(challengeBytes, nonce...)
	proofChallenge := frFromOKM(challengeBytes)

	proof := pokSignature.GenerateProof(proofChallenge)

	payload := newPoKPayload(messagesCount, revealedIndexes)

	payloadBytes, err := payload.toBytes()
	if err != nil {
		return nil, fmt.Errorf("derive proof: paylod to bytes: %w", err)
	}

	signatureProofBytes := append(payloadBytes, proof.ToBytes()...)

	return signatureProofBytes, nil
}

func computeB(s *bls12381.Fr, messages []*SignatureMessage, key *PublicKeyWithGenerators) *bls12381.PointG1 {
	const basesOffset = 2

	cb := newCommitmentBuilder(len(messages) + basesOffset)

	cb.add(g1.One(), bls12381.NewFr().One())
	cb.add(key.h0, s)

	for i := 0; i < len(messages); i++ {
		cb.add(key.h[i], messages[i].FR)
	}

	return cb.build()
}

type commitmentBuilder struct {
	bases   []*bls12381.PointG1
	scalars []*bls12381.Fr
}

func newCommitmentBuilder(expectedSize int) *commitmentBuilder {
	return &commitmentBuilder{
		bases:   make([]*bls12381.PointG1, 0, expectedSize),
		scalars: make([]*bls12381.Fr, 0, expectedSize),
	}
}

func (cb *commitmentBuilder) add(base *bls12381.PointG1, scalar *bls12381.Fr) {
	cb.bases = append(cb.bases, base)
	cb.scalars = append(cb.scalars, scalar)
}

func (cb *commitmentBuilder) build() *bls12381.PointG1 {
	return sumOfG1Products(cb.bases, cb.scalars)
}

func sumOfG1Products(bases []*bls12381.PointG1, scalars []*bls12381.Fr) *bls12381.PointG1 {
	res := g1.Zero()

	for i := 0; i < len(bases); i++ {
		b := bases[i]
		s := scalars[i]

		g := g1.New()

		g1.MulScalar(g, b, frToRepr(s))
		g1.Add(res, res, g)
	}

	return res
}

func compareTwoPairings(p1 *bls12381.PointG1, q1 *bls12381.PointG2,
	p2 *bls12381.PointG1, q2 *bls12381.PointG2) bool {
	engine := bls12381.NewEngine()

	engine.AddPair(p1, q1)
	engine.AddPair(p2, q2)

	return engine.Check()
}

// ProofNonce is a nonce for a signature proof of knowledge. It binds a single
// derivation to a verifier challenge so a captured proof cannot be replayed.
type ProofNonce struct {
	fr *bls12381.Fr
}

// ParseProofNonce creates a new ProofNonce from bytes.
func ParseProofNonce(proofNonceBytes []byte) *ProofNonce {
	return &ProofNonce{
		frFromOKM(proofNonceBytes),
	}
}

// ToBytes converts ProofNonce into bytes.
func (pn *ProofNonce) ToBytes() []byte {
	return pn.fr.ToBytes()
}
