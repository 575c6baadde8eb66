/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbs12381g2pub

import (
	"fmt"
	"io"
	"sort"

	bls12381 "github.com/kilic/bls12-381"
)

// PoKOfSignature is Proof of Knowledge of a Signature that is used by the
// prover to construct PoKOfSignatureProof.
type PoKOfSignature struct {
	aPrime *bls12381.PointG1
	aBar   *bls12381.PointG1
	d      *bls12381.PointG1

	pokVC1   *ProverCommittedG1
	secrets1 []*bls12381.Fr

	pokVC2   *ProverCommittedG1
	secrets2 []*bls12381.Fr

	revealedMessages map[int]*SignatureMessage
}

// NewPoKOfSignature creates a new PoKOfSignature. The signature is verified
// before any randomization so invalid credentials are rejected up front.
// Randomizers and blinding factors are drawn from r on every call.
func NewPoKOfSignature(signature *Signature, messages []*SignatureMessage, revealedIndexes []int,
	pubKey *PublicKeyWithGenerators, r io.Reader) (*PoKOfSignature, error) {
	err := signature.Verify(messages, pubKey)
	if err != nil {
		return nil, fmt.Errorf("verify input signature: %w", err)
	}

	for _, ind := range revealedIndexes {
		if ind < 0 || ind >= len(messages) {
			return nil, fmt.Errorf("%w: requested index %d of %d messages",
				ErrIndexOutOfRange, ind, len(messages))
		}
	}

	r1, r2 := createRandSignatureFr(r), createRandSignatureFr(r)

	b := computeB(signature.S, messages, pubKey)

	r3 := bls12381.NewFr()
	r3.Inverse(r1)

	aPrime := g1.New()
	g1.MulScalar(aPrime, signature.A, frToRepr(r1))

	aBar := g1.New()
	aBarDenom := g1.New()
	g1.MulScalar(aBarDenom, aPrime, frToRepr(signature.E))
	g1.MulScalar(aBar, b, frToRepr(r1))
	g1.Sub(aBar, aBar, aBarDenom)

	commitmentBasesCount := 2
	cbD := newCommitmentBuilder(commitmentBasesCount)
	cbD.add(b, r1)
	cbD.add(pubKey.h0, r2)
	d := cbD.build()

	sPrime := bls12381.NewFr()
	sPrime.Mul(r2, r3)
	sPrime.Add(sPrime, signature.S)

	pokVC1, secrets1 := newVC1Signature(aPrime, pubKey.h0, signature.E, r2, r)

	revealedMessages := make(map[int]*SignatureMessage, len(revealedIndexes))

	for _, ind := range revealedIndexes {
		revealedMessages[ind] = messages[ind]
	}

	pokVC2, secrets2 := newVC2Signature(d, r3, pubKey, sPrime, messages, revealedMessages, r)

	return &PoKOfSignature{
		aPrime:           aPrime,
		aBar:             aBar,
		d:                d,
		pokVC1:           pokVC1,
		secrets1:         secrets1,
		pokVC2:           pokVC2,
		secrets2:         secrets2,
		revealedMessages: revealedMessages,
	}, nil
}

func newVC1Signature(aPrime *bls12381.PointG1, h0 *bls12381.PointG1,
	e, r2 *bls12381.Fr, r io.Reader) (*ProverCommittedG1, []*bls12381.Fr) {
	committing1 := NewProverCommittingG1(r)
	secrets1 := make([]*bls12381.Fr, 2)

	committing1.Commit(aPrime)
	secrets1[0] = e

	committing1.Commit(h0)
	secrets1[1] = r2

	pokVC1 := committing1.Finish()

	return pokVC1, secrets1
}

func newVC2Signature(d *bls12381.PointG1, r3 *bls12381.Fr, pubKey *PublicKeyWithGenerators, sPrime *bls12381.Fr,
	messages []*SignatureMessage, revealedMessages map[int]*SignatureMessage,
	r io.Reader) (*ProverCommittedG1, []*bls12381.Fr) {
	messagesCount := len(messages)
	committing2 := NewProverCommittingG1(r)
	baseSecretsCount := 2
	secrets2 := make([]*bls12381.Fr, 0, baseSecretsCount+messagesCount)

	// The linear relation proved is d^(-r3) * h0^s' * Π h_i^m_i == -(g1 * Π h_j^m_j)
	// over hidden i and revealed j, so the first witness carries a negated r3.
	committing2.Commit(d)

	r3Neg := bls12381.NewFr()
	r3Neg.Neg(r3)

	secrets2 = append(secrets2, r3Neg)

	committing2.Commit(pubKey.h0)
	secrets2 = append(secrets2, sPrime)

	for i := 0; i < messagesCount; i++ {
		if _, ok := revealedMessages[i]; ok {
			continue
		}

		committing2.Commit(pubKey.h[i])

		sourceFR := messages[i].FR
		hiddenFRCopy := bls12381.NewFr()
		hiddenFRCopy.Set(sourceFR)

		secrets2 = append(secrets2, hiddenFRCopy)
	}

	pokVC2 := committing2.Finish()

	return pokVC2, secrets2
}

// ToBytes converts PoKOfSignature to the canonical challenge transcript:
// uncompressed A', Abar, d and both Schnorr commitments, followed by the
// revealed message count, indexes and values in ascending index order. The
// byte order is pinned; any divergence between prover and verifier breaks
// challenge recomputation.
func (pos *PoKOfSignature) ToBytes() []byte {
	challengeBytes := g1.ToUncompressed(pos.aPrime)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(pos.aBar)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(pos.d)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(pos.pokVC1.commitment)...)
	challengeBytes = append(challengeBytes, g1.ToUncompressed(pos.pokVC2.commitment)...)
	challengeBytes = append(challengeBytes, revealedToBytes(pos.revealedMessages)...)

	return challengeBytes
}

func revealedToBytes(revealedMessages map[int]*SignatureMessage) []byte {
	indexes := make([]int, 0, len(revealedMessages))
	for ind := range revealedMessages {
		indexes = append(indexes, ind)
	}

	sort.Ints(indexes)

	bytes := uint32ToBytes(uint32(len(indexes)))

	for _, ind := range indexes {
		bytes = append(bytes, uint32ToBytes(uint32(ind))...)
		bytes = append(bytes, revealedMessages[ind].FR.ToBytes()...)
	}

	return bytes
}

// GenerateProof generates PoKOfSignatureProof proof from PoKOfSignature signature.
func (pos *PoKOfSignature) GenerateProof(challengeHash *bls12381.Fr) *PoKOfSignatureProof {
	return &PoKOfSignatureProof{
		aPrime:   pos.aPrime,
		aBar:     pos.aBar,
		d:        pos.d,
		proofVC1: pos.pokVC1.GenerateProof(challengeHash, pos.secrets1),
		proofVC2: pos.pokVC2.GenerateProof(challengeHash, pos.secrets2),
	}
}

// ProverCommittedG1 helps to generate a ProofG1.
type ProverCommittedG1 struct {
	bases           []*bls12381.PointG1
	blindingFactors []*bls12381.Fr
	commitment      *bls12381.PointG1
}

// GenerateProof generates proof ProofG1 for all secrets.
func (g *ProverCommittedG1) GenerateProof(challenge *bls12381.Fr, secrets []*bls12381.Fr) *ProofG1 {
	responses := make([]*bls12381.Fr, len(g.bases))

	for i := range g.blindingFactors {
		c := bls12381.NewFr()
		c.Mul(challenge, secrets[i])

		s := bls12381.NewFr()
		s.Add(g.blindingFactors[i], c)
		responses[i] = s
	}

	return &ProofG1{
		commitment: g.commitment,
		responses:  responses,
	}
}

// ProverCommittingG1 is a proof of knowledge of messages in a vector commitment.
type ProverCommittingG1 struct {
	bases           []*bls12381.PointG1
	blindingFactors []*bls12381.Fr
	rand            io.Reader
}

// NewProverCommittingG1 creates a new ProverCommittingG1. Blinding factors are
// drawn from r.
func NewProverCommittingG1(r io.Reader) *ProverCommittingG1 {
	return &ProverCommittingG1{
		bases:           make([]*bls12381.PointG1, 0),
		blindingFactors: make([]*bls12381.Fr, 0),
		rand:            r,
	}
}

// Commit appends a base point and a freshly generated blinding factor.
func (pc *ProverCommittingG1) Commit(base *bls12381.PointG1) {
	pc.bases = append(pc.bases, base)
	r := createRandSignatureFr(pc.rand)
	pc.blindingFactors = append(pc.blindingFactors, r)
}

// Finish helps to generate ProverCommittedG1 after commitment of all base points.
func (pc *ProverCommittingG1) Finish() *ProverCommittedG1 {
	commitment := sumOfG1Products(pc.bases, pc.blindingFactors)

	return &ProverCommittedG1{
		bases:           pc.bases,
		blindingFactors: pc.blindingFactors,
		commitment:      commitment,
	}
}
