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

package testhelper

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"

	"github.com/notaryproject/sigscope/oid"
)

// Attribute is an attribute to embed in a SignerInfo.
type Attribute struct {
	Type   asn1.ObjectIdentifier
	Values [][]byte
}

// NewAttribute marshals each value and returns the attribute. It panics if
// a value cannot be marshaled.
func NewAttribute(attrType asn1.ObjectIdentifier, values ...any) Attribute {
	attr := Attribute{Type: attrType}
	for _, v := range values {
		attr.Values = append(attr.Values, Must(asn1.Marshal(v)))
	}
	return attr
}

// SignerInfo describes a SignerInfo to build. Zero fields get defaults.
// The signature is not a real signature over the content.
type SignerInfo struct {
	// Version defaults to 1, or 3 when SubjectKeyID is set.
	Version int

	// Certificate identifies the signer by issuer and serial number.
	Certificate *x509.Certificate

	// SubjectKeyID identifies the signer by subject key identifier and
	// takes precedence over Certificate.
	SubjectKeyID []byte

	// DigestAlgorithm defaults to SHA-256.
	DigestAlgorithm asn1.ObjectIdentifier

	// SignatureAlgorithm defaults to sha256WithRSAEncryption.
	SignatureAlgorithm asn1.ObjectIdentifier

	// Signature defaults to a fixed placeholder value.
	Signature []byte

	SignedAttributes   []Attribute
	UnsignedAttributes []Attribute

	// RawSignedAttributes and RawUnsignedAttributes replace the encoded
	// attribute sets verbatim when set.
	RawSignedAttributes   []byte
	RawUnsignedAttributes []byte
}

// SignedData describes a SignedData structure to build.
type SignedData struct {
	// ContentType defaults to id-data.
	ContentType asn1.ObjectIdentifier

	// Content is the encapsulated content. Nil means detached.
	Content []byte

	// Certificates are encoded members of the certificate set.
	Certificates [][]byte

	// CRLs are encoded members of the revocation information set.
	CRLs [][]byte

	SignerInfos []SignerInfo
}

type issuerAndSerialNumber struct {
	Issuer       asn1.RawValue
	SerialNumber *big.Int
}

type signerInfo struct {
	Version            int
	SignerIdentifier   asn1.RawValue
	DigestAlgorithm    pkix.AlgorithmIdentifier
	SignedAttributes   asn1.RawValue `asn1:"optional"`
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Signature          []byte
	UnsignedAttributes asn1.RawValue `asn1:"optional"`
}

type encapsulatedContentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"optional"`
}

type signedData struct {
	Version                 int
	DigestAlgorithms        asn1.RawValue
	EncapsulatedContentInfo encapsulatedContentInfo
	Certificates            asn1.RawValue `asn1:"optional"`
	CRLs                    asn1.RawValue `asn1:"optional"`
	SignerInfos             asn1.RawValue
}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue
}

// Bytes returns the DER encoding of the bare SignedData.
func (sd SignedData) Bytes() ([]byte, error) {
	contentType := sd.ContentType
	if contentType == nil {
		contentType = oid.Data
	}
	encap := encapsulatedContentInfo{ContentType: contentType}
	if sd.Content != nil {
		content, err := asn1.Marshal(sd.Content)
		if err != nil {
			return nil, err
		}
		encap.Content = explicit(0, content)
	}

	var digestAlgorithms, signerInfos [][]byte
	for _, si := range sd.SignerInfos {
		encoded, err := si.Bytes()
		if err != nil {
			return nil, err
		}
		signerInfos = append(signerInfos, encoded)
		digestAlgorithm, err := asn1.Marshal(pkix.AlgorithmIdentifier{Algorithm: si.digestAlgorithm()})
		if err != nil {
			return nil, err
		}
		digestAlgorithms = append(digestAlgorithms, digestAlgorithm)
	}

	value := signedData{
		Version:                 1,
		DigestAlgorithms:        Set(digestAlgorithms...),
		EncapsulatedContentInfo: encap,
		SignerInfos:             Set(signerInfos...),
	}
	if sd.Certificates != nil {
		value.Certificates = implicitSet(0, sd.Certificates)
	}
	if sd.CRLs != nil {
		value.CRLs = implicitSet(1, sd.CRLs)
	}
	return asn1.Marshal(value)
}

// ContentInfo returns the DER encoding of the SignedData wrapped in a
// ContentInfo.
func (sd SignedData) ContentInfo() ([]byte, error) {
	encoded, err := sd.Bytes()
	if err != nil {
		return nil, err
	}
	return ContentInfo(oid.SignedData, encoded)
}

// ContentInfo wraps the encoded content in a ContentInfo.
func ContentInfo(contentType asn1.ObjectIdentifier, content []byte) ([]byte, error) {
	return asn1.Marshal(contentInfo{
		ContentType: contentType,
		Content:     explicit(0, content),
	})
}

func (si SignerInfo) digestAlgorithm() asn1.ObjectIdentifier {
	if si.DigestAlgorithm == nil {
		return oid.SHA256
	}
	return si.DigestAlgorithm
}

// Bytes returns the DER encoding of the SignerInfo.
func (si SignerInfo) Bytes() ([]byte, error) {
	value := signerInfo{
		Version:            si.Version,
		DigestAlgorithm:    pkix.AlgorithmIdentifier{Algorithm: si.digestAlgorithm()},
		SignatureAlgorithm: pkix.AlgorithmIdentifier{Algorithm: si.SignatureAlgorithm},
		Signature:          si.Signature,
	}
	if value.SignatureAlgorithm.Algorithm == nil {
		value.SignatureAlgorithm.Algorithm = oid.SHA256WithRSA
	}
	if value.Signature == nil {
		value.Signature = []byte("placeholder signature value")
	}

	switch {
	case si.SubjectKeyID != nil:
		if value.Version == 0 {
			value.Version = 3
		}
		value.SignerIdentifier = asn1.RawValue{
			Class: asn1.ClassContextSpecific,
			Tag:   0,
			Bytes: si.SubjectKeyID,
		}
	case si.Certificate != nil:
		encoded, err := asn1.Marshal(issuerAndSerialNumber{
			Issuer:       asn1.RawValue{FullBytes: si.Certificate.RawIssuer},
			SerialNumber: si.Certificate.SerialNumber,
		})
		if err != nil {
			return nil, err
		}
		value.SignerIdentifier = asn1.RawValue{FullBytes: encoded}
	default:
		// issuer with an empty name
		encoded, err := asn1.Marshal(issuerAndSerialNumber{
			Issuer:       asn1.RawValue{FullBytes: []byte{0x30, 0x00}},
			SerialNumber: big.NewInt(1),
		})
		if err != nil {
			return nil, err
		}
		value.SignerIdentifier = asn1.RawValue{FullBytes: encoded}
	}
	if value.Version == 0 {
		value.Version = 1
	}

	var err error
	if value.SignedAttributes, err = attributeSet(0, si.SignedAttributes, si.RawSignedAttributes); err != nil {
		return nil, err
	}
	if value.UnsignedAttributes, err = attributeSet(1, si.UnsignedAttributes, si.RawUnsignedAttributes); err != nil {
		return nil, err
	}
	return asn1.Marshal(value)
}

// EncodeAttributes returns the [tag] IMPLICIT encoding of the attribute
// set, keeping the given order.
func EncodeAttributes(tag int, attrs []Attribute) ([]byte, error) {
	set, err := attributeSet(tag, attrs, nil)
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(set)
}

func attributeSet(tag int, attrs []Attribute, raw []byte) (asn1.RawValue, error) {
	if raw != nil {
		return asn1.RawValue{FullBytes: raw}, nil
	}
	if attrs == nil {
		return asn1.RawValue{}, nil
	}
	var encoded [][]byte
	for _, attr := range attrs {
		b, err := asn1.Marshal(struct {
			Type   asn1.ObjectIdentifier
			Values asn1.RawValue
		}{
			Type:   attr.Type,
			Values: Set(attr.Values...),
		})
		if err != nil {
			return asn1.RawValue{}, err
		}
		encoded = append(encoded, b)
	}
	return implicitSet(tag, encoded), nil
}

// Set returns a SET OF holding the encoded members in the given order.
func Set(members ...[]byte) asn1.RawValue {
	return asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSet,
		IsCompound: true,
		Bytes:      concat(members),
	}
}

func implicitSet(tag int, members [][]byte) asn1.RawValue {
	return asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        tag,
		IsCompound: true,
		Bytes:      concat(members),
	}
}

func explicit(tag int, content []byte) asn1.RawValue {
	return asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        tag,
		IsCompound: true,
		Bytes:      content,
	}
}

func concat(members [][]byte) []byte {
	content := []byte{}
	for _, m := range members {
		content = append(content, m...)
	}
	return content
}

// Must panics if err is not nil.
func Must(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

// SigningTime returns a signing-time attribute.
func SigningTime(t time.Time) Attribute {
	return NewAttribute(oid.SigningTime, t.UTC())
}
