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

package cms

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/notaryproject/sigscope/internal/encoding/ber"
	"github.com/notaryproject/sigscope/oid"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// SignedData is a decoded SignedData structure for golang friendly types.
type SignedData struct {
	// Version is the syntax version number of the SignedData.
	Version int

	// DigestAlgorithms lists the digest algorithms announced by the
	// envelope.
	DigestAlgorithms []pkix.AlgorithmIdentifier

	// ContentType is the content type of the EncapsulatedContentInfo.
	ContentType asn1.ObjectIdentifier

	// Content is the content of the EncapsulatedContentInfo. It is nil for
	// detached signatures.
	Content []byte

	// Certificates is the list of X.509 certificates in the SignedData, in
	// encoding order.
	Certificates []*x509.Certificate

	// RawCertificates holds every member of the certificate set in encoding
	// order, including those that are not parsable X.509 certificates.
	RawCertificates [][]byte

	// CRLCount is the number of members of the revocation information set.
	CRLCount int

	// SignerInfos is the list of signer information in encoding order.
	SignerInfos []SignerInfo
}

// SignerInfo is a decoded SignerInfo structure. Attribute sets are kept as
// raw encodings and decoded with DecodeAttributes, so that a malformed set
// does not affect the rest of the envelope.
type SignerInfo struct {
	// Version is the syntax version number of the SignerInfo.
	Version int

	// SignerIdentifier identifies the signing certificate.
	SignerIdentifier SignerIdentifier

	// DigestAlgorithm is the digest algorithm used by the signer.
	DigestAlgorithm pkix.AlgorithmIdentifier

	// SignatureAlgorithm is the signature algorithm used by the signer.
	SignatureAlgorithm pkix.AlgorithmIdentifier

	// Signature is the signature value.
	Signature []byte

	// RawSignedAttributes is the [0] IMPLICIT encoded signed attribute set,
	// or nil if absent.
	RawSignedAttributes []byte

	// RawUnsignedAttributes is the [1] IMPLICIT encoded unsigned attribute
	// set, or nil if absent.
	RawUnsignedAttributes []byte
}

// DecodeSignedData decodes an ASN.1 BER-encoded ContentInfo carrying
// SignedData, or a bare SignedData structure.
//
// Zero octets following the outermost structure are ignored.
func DecodeSignedData(data []byte, opts ...DecodeOption) (*SignedData, error) {
	if err := CheckSize(data, opts...); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, malformed(nil, "input is empty")
	}

	der, err := ber.ConvertToDER(data)
	if err != nil {
		return nil, malformed(err, "failed to convert from BER to DER")
	}

	signedDataBytes, err := unwrapContentInfo(der)
	if err != nil {
		return nil, err
	}

	var sd signedData
	rest, err := asn1.Unmarshal(signedDataBytes, &sd)
	if err != nil {
		return nil, malformed(err, "invalid signed data")
	}
	if len(rest) > 0 {
		return nil, malformed(nil, "trailing data after signed data")
	}

	result := &SignedData{
		Version:          sd.Version,
		DigestAlgorithms: sd.DigestAlgorithmIdentifiers,
		ContentType:      sd.EncapsulatedContentInfo.ContentType,
		Content:          sd.EncapsulatedContentInfo.Content,
		SignerInfos:      make([]SignerInfo, 0, len(sd.SignerInfos)),
	}
	if sd.Certificates.FullBytes != nil {
		result.RawCertificates, err = splitElements(sd.Certificates.Bytes)
		if err != nil {
			return nil, malformed(err, "invalid certificate set")
		}
		for _, raw := range result.RawCertificates {
			// other certificate formats are kept raw only
			if cert, err := x509.ParseCertificate(raw); err == nil {
				result.Certificates = append(result.Certificates, cert)
			}
		}
	}
	if sd.CRLs.FullBytes != nil {
		crls, err := splitElements(sd.CRLs.Bytes)
		if err != nil {
			return nil, malformed(err, "invalid revocation information set")
		}
		result.CRLCount = len(crls)
	}
	for i, si := range sd.SignerInfos {
		sid, err := parseSignerIdentifier(si.SignerIdentifier.FullBytes)
		if err != nil {
			return nil, malformed(err, "invalid signer identifier of signer info %d", i)
		}
		result.SignerInfos = append(result.SignerInfos, SignerInfo{
			Version:               si.Version,
			SignerIdentifier:      sid,
			DigestAlgorithm:       si.DigestAlgorithm,
			SignatureAlgorithm:    si.SignatureAlgorithm,
			Signature:             si.Signature,
			RawSignedAttributes:   si.SignedAttributes.FullBytes,
			RawUnsignedAttributes: si.UnsignedAttributes.FullBytes,
		})
	}
	return result, nil
}

// unwrapContentInfo returns the encoded SignedData from a ContentInfo, or
// der itself if it is a bare SignedData.
func unwrapContentInfo(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, malformed(nil, "content is not a SEQUENCE")
	}

	switch {
	case seq.PeekASN1Tag(cryptobyte_asn1.INTEGER):
		// SignedData starts with its version
		return der, nil
	case seq.PeekASN1Tag(cryptobyte_asn1.OBJECT_IDENTIFIER):
		var contentType asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&contentType) {
			return nil, malformed(nil, "invalid content type of content info")
		}
		if !oid.SignedData.Equal(contentType) {
			return nil, DecodeError{
				Kind:    KindUnexpectedContentType,
				Message: fmt.Sprintf("content type %s is not signed-data", contentType),
			}
		}
	default:
		return nil, malformed(nil, "content is neither a content info nor signed data")
	}

	var contentInfo ContentInfo
	rest, err := asn1.Unmarshal(der, &contentInfo)
	if err != nil {
		return nil, malformed(err, "invalid content info: failed to unmarshal DER to ContentInfo")
	}
	if len(rest) > 0 {
		return nil, malformed(nil, "trailing data after content info")
	}
	return contentInfo.Content.Bytes, nil
}

// parseSignerIdentifier decodes the SignerIdentifier CHOICE.
func parseSignerIdentifier(raw []byte) (SignerIdentifier, error) {
	input := cryptobyte.String(raw)
	switch {
	case input.PeekASN1Tag(cryptobyte_asn1.SEQUENCE):
		var ias IssuerAndSerialNumber
		rest, err := asn1.Unmarshal(raw, &ias)
		if err != nil {
			return SignerIdentifier{}, err
		}
		if len(rest) > 0 {
			return SignerIdentifier{}, errors.New("trailing data after issuer and serial number")
		}
		return SignerIdentifier{IssuerAndSerialNumber: &ias}, nil
	case input.PeekASN1Tag(cryptobyte_asn1.Tag(0).ContextSpecific()):
		var ski cryptobyte.String
		if !input.ReadASN1(&ski, cryptobyte_asn1.Tag(0).ContextSpecific()) || !input.Empty() {
			return SignerIdentifier{}, errors.New("invalid subject key identifier")
		}
		return SignerIdentifier{SubjectKeyIdentifier: []byte(ski)}, nil
	}
	return SignerIdentifier{}, errors.New("unknown signer identifier choice")
}

// splitElements splits the content of a SET OF into its encoded members.
func splitElements(content []byte) ([][]byte, error) {
	input := cryptobyte.String(content)
	var elements [][]byte
	for !input.Empty() {
		var element cryptobyte.String
		var tag cryptobyte_asn1.Tag
		if !input.ReadAnyASN1Element(&element, &tag) {
			return nil, errors.New("invalid element encoding")
		}
		elements = append(elements, []byte(element))
	}
	return elements, nil
}

// SignerCertificate finds the certificate of the signer in the envelope by
// issuer name and serial number, or by subject key identifier. It returns
// nil if the certificate is not embedded.
//
// Reference: RFC 5652 5.3 SignerIdentifier
func (d *SignedData) SignerCertificate(signerInfo *SignerInfo) *x509.Certificate {
	sid := signerInfo.SignerIdentifier
	for _, cert := range d.Certificates {
		switch {
		case sid.IssuerAndSerialNumber != nil:
			ref := sid.IssuerAndSerialNumber
			if ref.SerialNumber != nil &&
				bytes.Equal(cert.RawIssuer, ref.Issuer.FullBytes) &&
				cert.SerialNumber.Cmp(ref.SerialNumber) == 0 {
				return cert
			}
		case sid.SubjectKeyIdentifier != nil:
			if len(cert.SubjectKeyId) > 0 && bytes.Equal(cert.SubjectKeyId, sid.SubjectKeyIdentifier) {
				return cert
			}
		}
	}
	return nil
}
