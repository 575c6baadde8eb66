/*
Copyright SpookyID Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package attestation gates lease derivation on device hardware attestation.
// A verifier consumes a DER certificate chain produced by the device keystore
// and reports how strongly the device key is protected.
package attestation

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"

	"github.com/pkg/errors"
)

// TrustLevel ranks how strongly a device key is protected. Levels are ordered;
// a policy requiring Hardware is satisfied by StrongBox but not by Software.
type TrustLevel int

const (
	// TrustLevelNone means no attestation was presented or it did not verify.
	TrustLevelNone TrustLevel = iota

	// TrustLevelSoftware means the chain verified but the key lives in a
	// software keystore.
	TrustLevelSoftware

	// TrustLevelHardware means the key is bound to a hardware-backed keystore (TEE).
	TrustLevelHardware

	// TrustLevelStrongBox means the key is bound to a dedicated secure element.
	TrustLevelStrongBox
)

func (l TrustLevel) String() string {
	switch l {
	case TrustLevelSoftware:
		return "software"
	case TrustLevelHardware:
		return "hardware"
	case TrustLevelStrongBox:
		return "strongbox"
	default:
		return "none"
	}
}

// Statement is the outcome of a successful attestation check.
type Statement struct {
	// Level is the protection level proven by the chain.
	Level TrustLevel

	// DeviceKey is the attested key in SubjectPublicKeyInfo DER form.
	DeviceKey []byte

	// RootIssuer is the subject of the trusted root that anchored the chain.
	RootIssuer string
}

// Verifier checks a device attestation chain.
type Verifier interface {
	// Verify validates chainDER, a leaf-first DER certificate chain, and
	// returns the attested statement.
	Verify(chainDER [][]byte) (*Statement, error)
}

// androidKeyStoreAttestationOID marks the Android KeyStore attestation
// extension. Its presence on the leaf is what distinguishes a hardware
// keystore certificate from an ordinary one.
var androidKeyStoreAttestationOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 1, 17} //nolint:gochecknoglobals

// strongBoxSecurityLevel is the KeyDescription attestationSecurityLevel
// value for a dedicated secure element.
const strongBoxSecurityLevel = 2

// ChainVerifier verifies x509 attestation chains against a fixed set of
// trusted root certificates.
type ChainVerifier struct {
	roots []*x509.Certificate
}

// NewChainVerifier creates a ChainVerifier trusting the given root
// certificates in DER form.
func NewChainVerifier(rootsDER [][]byte) (*ChainVerifier, error) {
	if len(rootsDER) == 0 {
		return nil, errors.New("no trusted roots defined")
	}

	roots := make([]*x509.Certificate, len(rootsDER))

	for i, der := range rootsDER {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, errors.Wrapf(err, "parse trusted root %d", i)
		}

		roots[i] = cert
	}

	return &ChainVerifier{roots: roots}, nil
}

// Verify walks the chain leaf to root, checking every link's signature against
// its issuer and requiring the terminal certificate to be one of the trusted
// roots. A leaf without the keystore attestation extension reports Software;
// with it, the KeyDescription's security level decides between Hardware and
// StrongBox.
func (v *ChainVerifier) Verify(chainDER [][]byte) (*Statement, error) {
	if len(chainDER) == 0 {
		return nil, errors.New("empty attestation chain")
	}

	chain := make([]*x509.Certificate, len(chainDER))

	for i, der := range chainDER {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, errors.Wrapf(err, "parse attestation certificate %d", i)
		}

		chain[i] = cert
	}

	for i := 0; i < len(chain)-1; i++ {
		if err := chain[i].CheckSignatureFrom(chain[i+1]); err != nil {
			return nil, errors.Wrapf(err, "certificate %d not signed by its issuer", i)
		}
	}

	root, err := v.trustedRoot(chain[len(chain)-1])
	if err != nil {
		return nil, err
	}

	leaf := chain[0]

	level := TrustLevelSoftware

	for _, ext := range leaf.Extensions {
		if ext.Id.Equal(androidKeyStoreAttestationOID) {
			level = attestedLevel(ext.Value)
			break
		}
	}

	return &Statement{
		Level:      level,
		DeviceKey:  leaf.RawSubjectPublicKeyInfo,
		RootIssuer: root.Subject.String(),
	}, nil
}

// attestedLevel reads the attestationSecurityLevel field of the KeyDescription
// carried by the attestation extension. A chain whose leaf carries the
// extension is hardware-backed at minimum; StrongBox is reported only when the
// description names a secure element. A description that does not parse keeps
// the Hardware floor.
func attestedLevel(keyDescriptionDER []byte) TrustLevel {
	var description asn1.RawValue

	if _, err := asn1.Unmarshal(keyDescriptionDER, &description); err != nil {
		return TrustLevelHardware
	}

	var attestationVersion int

	rest, err := asn1.Unmarshal(description.Bytes, &attestationVersion)
	if err != nil {
		return TrustLevelHardware
	}

	var securityLevel asn1.Enumerated

	if _, err := asn1.Unmarshal(rest, &securityLevel); err != nil {
		return TrustLevelHardware
	}

	if securityLevel == strongBoxSecurityLevel {
		return TrustLevelStrongBox
	}

	return TrustLevelHardware
}

func (v *ChainVerifier) trustedRoot(last *x509.Certificate) (*x509.Certificate, error) {
	for _, root := range v.roots {
		if bytes.Equal(last.Raw, root.Raw) {
			return root, nil
		}

		if bytes.Equal(last.RawIssuer, root.RawSubject) {
			if err := last.CheckSignatureFrom(root); err == nil {
				return root, nil
			}
		}
	}

	return nil, errors.New("attestation chain is not anchored in a trusted root")
}
