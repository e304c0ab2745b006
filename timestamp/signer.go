// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timestamp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	"github.com/notaryproject/sigscope/cms"
	"github.com/notaryproject/sigscope/internal/crypto/hashutil"
	"github.com/notaryproject/sigscope/oid"
)

// SigningCertificate contains certificates of the TSA.
//
// Reference: RFC 2634 5.4 Signing Certificate Attribute Definition
//
//	SigningCertificate ::=  SEQUENCE {
//	 certs        SEQUENCE OF ESSCertID,
//	 policies     SEQUENCE OF PolicyInformation OPTIONAL }
//
//	ESSCertID ::=  SEQUENCE {
//	 certHash                 Hash,
//	 issuerSerial             IssuerSerial OPTIONAL }
type SigningCertificate struct {
	Certificates []ESSCertID
	Policies     asn1.RawValue `asn1:"optional"`
}

// ESSCertID identifies a certificate by its SHA-1 hash.
type ESSCertID struct {
	CertHash     []byte
	IssuerSerial asn1.RawValue `asn1:"optional"`
}

// SigningCertificateV2 contains certificates of the TSA.
//
// Reference: RFC 5035 3 SigningCertificateV2
//
//	SigningCertificateV2 ::=  SEQUENCE {
//	 certs        SEQUENCE OF ESSCertIDv2,
//	 policies     SEQUENCE OF PolicyInformation OPTIONAL }
type SigningCertificateV2 struct {
	// Certificates contains the list of certificates. The first certificate
	// MUST be the signing certificate used to verify the timestamp token.
	Certificates []ESSCertIDv2

	// Policies suggests policy values to be used in the certification path
	// validation.
	Policies asn1.RawValue `asn1:"optional"`
}

// ESSCertIDv2 uniquely identifies a certificate.
//
// Reference: RFC 5035 4 ESSCertIDv2
//
//	ESSCertIDv2 ::=  SEQUENCE {
//	 hashAlgorithm           AlgorithmIdentifier
//	 	DEFAULT {algorithm id-sha256},
//	 certHash                 Hash,
//	 issuerSerial             IssuerSerial OPTIONAL }
type ESSCertIDv2 struct {
	// HashAlgorithm is the hashing algorithm used to hash certificate.
	// When it is not present, the default value is SHA256 (id-sha256).
	HashAlgorithm pkix.AlgorithmIdentifier `asn1:"optional"`

	// CertHash is the certificate hash using algorithm identified
	// by HashAlgorithm. It is computed over the entire DER-encoded
	// certificate (including the signature)
	CertHash []byte

	// IssuerSerial holds the issuer and serialNumber of the certificate.
	IssuerSerial asn1.RawValue `asn1:"optional"`
}

// signingCertificate identifies the certificate of the first signer of the
// token among the embedded certificates. The ESS signing certificate
// attributes are preferred over the signer identifier, as the latter is
// not covered by the signature.
//
// References: RFC 3161 2.4.1 & 2.4.2; RFC 5035 4
func signingCertificate(signed *cms.SignedData) *x509.Certificate {
	if len(signed.SignerInfos) == 0 {
		return nil
	}
	signerInfo := &signed.SignerInfos[0]

	// malformed signed attributes leave the signer identifier as the only
	// reference
	attrs, _ := cms.DecodeAttributes(signerInfo.RawSignedAttributes)
	if values := attrs.Get(oid.SigningCertificateV2.String()); len(values) > 0 {
		var sc SigningCertificateV2
		if _, err := asn1.Unmarshal(values[0], &sc); err == nil && len(sc.Certificates) > 0 {
			certID := sc.Certificates[0]
			if hash, ok := hashForCertID(certID.HashAlgorithm.Algorithm, crypto.SHA256); ok {
				if cert := findByHash(signed.Certificates, hash, certID.CertHash); cert != nil {
					return cert
				}
			}
		}
	}
	if values := attrs.Get(oid.SigningCertificate.String()); len(values) > 0 {
		var sc SigningCertificate
		if _, err := asn1.Unmarshal(values[0], &sc); err == nil && len(sc.Certificates) > 0 {
			if cert := findByHash(signed.Certificates, crypto.SHA1, sc.Certificates[0].CertHash); cert != nil {
				return cert
			}
		}
	}
	return signed.SignerCertificate(signerInfo)
}

func findByHash(certs []*x509.Certificate, hash crypto.Hash, certHash []byte) *x509.Certificate {
	for _, cert := range certs {
		digest, err := hashutil.ComputeHash(hash, cert.Raw)
		if err != nil {
			return nil
		}
		if bytes.Equal(digest, certHash) {
			return cert
		}
	}
	return nil
}

// hashForCertID returns the hash of an ESS certificate identifier.
func hashForCertID(alg asn1.ObjectIdentifier, fallback crypto.Hash) (crypto.Hash, bool) {
	if len(alg) == 0 {
		return fallback, true
	}
	return oid.ToHash(alg)
}
