/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"errors"
	"fmt"

	bls12381 "github.com/kilic/bls12-381"
)

// PoKOfSignatureProof defines a BBS+ signature proof.
// It is the actual proof that is sent from prover to verifier.
type PoKOfSignatureProof struct {
	aPrime *bls12381.PointG1
	aBar   *bls12381.PointG1
	d      *bls12381.PointG1

	proofVC1 *ProofG1
	proofVC2 *ProofG1
}

// GetBytesForChallenge creates the canonical challenge transcript from the
// proof and the revealed messages. It must produce exactly the bytes of
// PoKOfSignature.ToBytes for the challenge recomputation to succeed.
func (sp *PoKOfSignatureProof) GetBytesForChallenge(revealedMessages map[int]*SignatureMessage) []byte {
	challengeBytes := g1.ToUncompressed(sp.aPrime)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(sp.aBar)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(sp.d)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(sp.proofVC1.commitment)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(sp.proofVC2.commitment)...)
	challengeBytes = append(challengeBytes, revealedToBytes(revealedMessages)...)

	return challengeBytes
}

// Verify verifies PoKOfSignatureProof. It checks the pairing relation of the
// randomized signature and both Schnorr identities under the recomputed
// challenge. Failure of any single check rejects the proof; there is no
// partial acceptance.
func (sp *PoKOfSignatureProof) Verify(challenge *bls12381.Fr, pubKey *PublicKeyWithGenerators,
	revealedMessages map[int]*SignatureMessage, messages []*SignatureMessage) error {
	if g1.IsZero(sp.aPrime) {
		return fmt.Errorf("%w: randomized signature is at infinity", ErrInvalidProof)
	}

	aBarNeg := g1.New()
	g1.Neg(aBarNeg, sp.aBar)

	if !compareTwoPairings(sp.aPrime, pubKey.w, aBarNeg, g2.One()) {
		return fmt.Errorf("%w: pairing check failed", ErrInvalidProof)
	}

	if err := sp.verifyVC1Proof(challenge, pubKey); err != nil {
		return err
	}

	return sp.verifyVC2Proof(challenge, pubKey, revealedMessages, messages)
}

func (sp *PoKOfSignatureProof) verifyVC1Proof(challenge *bls12381.Fr, pubKey *PublicKeyWithGenerators) error {
	basesVC1 := []*bls12381.PointG1{sp.aPrime, pubKey.h0}

	aBarD := g1.New()
	g1.Sub(aBarD, sp.aBar, sp.d)

	err := sp.proofVC1.Verify(basesVC1, aBarD, challenge)
	if err != nil {
		return fmt.Errorf("%w: bad signature proof vc1", ErrInvalidProof)
	}

	return nil
}

func (sp *PoKOfSignatureProof) verifyVC2Proof(challenge *bls12381.Fr, pubKey *PublicKeyWithGenerators,
	revealedMessages map[int]*SignatureMessage, messages []*SignatureMessage) error {
	revealedMessagesCount := len(revealedMessages)

	basesVC2 := make([]*bls12381.PointG1, 0, 2+pubKey.messagesCount-revealedMessagesCount)
	basesVC2 = append(basesVC2, sp.d, pubKey.h0)

	basesDisclosed := make([]*bls12381.PointG1, 0, 1+revealedMessagesCount)
	exponents := make([]*bls12381.Fr, 0, 1+revealedMessagesCount)

	basesDisclosed = append(basesDisclosed, g1.One())
	exponents = append(exponents, bls12381.NewFr().One())

	revealedMessagesInd := 0

	for i := range pubKey.h {
		if _, ok := revealedMessages[i]; ok {
			basesDisclosed = append(basesDisclosed, pubKey.h[i])
			exponents = append(exponents, messages[revealedMessagesInd].FR)
			revealedMessagesInd++
		} else {
			basesVC2 = append(basesVC2, pubKey.h[i])
		}
	}

	// pr = g1 * h1^m1 * h2^m2 ... for the disclosed messages.
	pr := sumOfG1Products(basesDisclosed, exponents)

	err := sp.proofVC2.Verify(basesVC2, pr, challenge)
	if err != nil {
		return fmt.Errorf("%w: bad signature proof vc2", ErrInvalidProof)
	}

	return nil
}

// ToBytes converts PoKOfSignatureProof to its canonical byte form: compressed
// A', Abar and d followed by the two Schnorr proofs.
func (sp *PoKOfSignatureProof) ToBytes() []byte {
	bytes := make([]byte, 0)

	bytes = append(bytes, g1.ToCompressed(sp.aPrime)...)
	bytes = append(bytes, g1.ToCompressed(sp.aBar)...)
	bytes = append(bytes, g1.ToCompressed(sp.d)...)

	bytes = append(bytes, sp.proofVC1.ToBytes()...)
	bytes = append(bytes, sp.proofVC2.ToBytes()...)

	return bytes
}

// vc1Len is the fixed wire size of the first Schnorr proof: one compressed
// commitment and two responses.
const vc1Len = g1CompressedSize + 2*frCompressedSize

// ParseSignatureProof parses a signature proof.
func ParseSignatureProof(sigProofBytes []byte) (*PoKOfSignatureProof, error) {
	if len(sigProofBytes) < 3*g1CompressedSize+2*vc1Len {
		return nil, errors.New("invalid size of signature proof")
	}

	g1Points := make([]*bls12381.PointG1, 3)
	offset := 0

	for i := range g1Points {
		g1Point, err := g1.FromCompressed(sigProofBytes[offset : offset+g1CompressedSize])
		if err != nil {
			return nil, fmt.Errorf("parse G1 point: %w", err)
		}

		g1Points[i] = g1Point
		offset += g1CompressedSize
	}

	proofVC1, err := ParseProofG1(sigProofBytes[offset : offset+vc1Len])
	if err != nil {
		return nil, fmt.Errorf("parse G1 proof: %w", err)
	}

	offset += vc1Len

	proofVC2, err := ParseProofG1(sigProofBytes[offset:])
	if err != nil {
		return nil, fmt.Errorf("parse G1 proof: %w", err)
	}

	return &PoKOfSignatureProof{
		aPrime:   g1Points[0],
		aBar:     g1Points[1],
		d:        g1Points[2],
		proofVC1: proofVC1,
		proofVC2: proofVC2,
	}, nil
}

// ProofG1 is a Schnorr proof of knowledge of scalars behind a vector
// commitment in G1.
type ProofG1 struct {
	commitment *bls12381.PointG1
	responses  []*bls12381.Fr
}

// NewProofG1 creates a new ProofG1.
func NewProofG1(commitment *bls12381.PointG1, responses []*bls12381.Fr) *ProofG1 {
	return &ProofG1{
		commitment: commitment,
		responses:  responses,
	}
}

// Verify verifies the Schnorr identity for the given bases and the public
// commitment under challenge.
func (pg1 *ProofG1) Verify(bases []*bls12381.PointG1, commitment *bls12381.PointG1,
	challenge *bls12381.Fr) error {
	if len(pg1.responses) != len(bases) {
		return errors.New("invalid number of responses")
	}

	contribution := pg1.getChallengeContribution(bases, commitment, challenge)
	g1.Sub(contribution, contribution, pg1.commitment)

	if !g1.IsZero(contribution) {
		return errors.New("contribution is not zero")
	}

	return nil
}

func (pg1 *ProofG1) getChallengeContribution(bases []*bls12381.PointG1, commitment *bls12381.PointG1,
	challenge *bls12381.Fr) *bls12381.PointG1 {
	points := make([]*bls12381.PointG1, len(bases)+1)
	copy(points, bases)
	points[len(bases)] = commitment

	scalars := make([]*bls12381.Fr, len(pg1.responses)+1)
	copy(scalars, pg1.responses)
	scalars[len(pg1.responses)] = challenge

	return sumOfG1Products(points, scalars)
}

// ToBytes converts ProofG1 to bytes.
func (pg1 *ProofG1) ToBytes() []byte {
	bytes := g1.ToCompressed(pg1.commitment)

	for _, resp := range pg1.responses {
		bytes = append(bytes, resp.ToBytes()...)
	}

	return bytes
}

// ParseProofG1 parses ProofG1 from bytes.
func ParseProofG1(bytes []byte) (*ProofG1, error) {
	if len(bytes) < g1CompressedSize ||
		(len(bytes)-g1CompressedSize)%frCompressedSize != 0 {
		return nil, errors.New("invalid size of G1 signature proof")
	}

	commitment, err := g1.FromCompressed(bytes[:g1CompressedSize])
	if err != nil {
		return nil, fmt.Errorf("parse G1 point: %w", err)
	}

	responsesCount := (len(bytes) - g1CompressedSize) / frCompressedSize
	responses := make([]*bls12381.Fr, responsesCount)

	offset := g1CompressedSize

	for i := range responses {
		responses[i] = parseFr(bytes[offset : offset+frCompressedSize])
		offset += frCompressedSize
	}

	return NewProofG1(commitment, responses), nil
}
