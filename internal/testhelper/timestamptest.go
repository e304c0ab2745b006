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
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"time"

	"github.com/notaryproject/sigscope/oid"
)

// TSTInfo describes a TSTInfo structure to build. Zero fields get
// defaults.
type TSTInfo struct {
	// Version defaults to 1.
	Version int

	// Policy defaults to 1.3.6.1.4.1.4146.2.3.
	Policy asn1.ObjectIdentifier

	// HashAlgorithm defaults to SHA-256.
	HashAlgorithm asn1.ObjectIdentifier

	// HashedMessage defaults to the SHA-256 digest of "hello".
	HashedMessage []byte

	// SerialNumber defaults to 1.
	SerialNumber *big.Int

	// GenTime defaults to 2024-01-01T00:00:00Z.
	GenTime time.Time

	AccuracySeconds int
	AccuracyMillis  int
	AccuracyMicros  int
	Ordering        bool
	Nonce           *big.Int

	// TSA is the encoded GeneralName of the authority. Empty means absent.
	TSA []byte

	Extensions []pkix.Extension
}

type messageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

type accuracy struct {
	Seconds      int `asn1:"optional"`
	Milliseconds int `asn1:"optional,tag:0"`
	Microseconds int `asn1:"optional,tag:1"`
}

type tstInfo struct {
	Version        int
	Policy         asn1.ObjectIdentifier
	MessageImprint messageImprint
	SerialNumber   *big.Int
	GenTime        time.Time        `asn1:"generalized"`
	Accuracy       accuracy         `asn1:"optional"`
	Ordering       bool             `asn1:"optional"`
	Nonce          *big.Int         `asn1:"optional"`
	TSA            asn1.RawValue    `asn1:"optional"`
	Extensions     []pkix.Extension `asn1:"optional,tag:1"`
}

// Bytes returns the DER encoding of the TSTInfo.
func (info TSTInfo) Bytes() ([]byte, error) {
	value := tstInfo{
		Version: info.Version,
		Policy:  info.Policy,
		MessageImprint: messageImprint{
			HashAlgorithm: pkix.AlgorithmIdentifier{Algorithm: info.HashAlgorithm},
			HashedMessage: info.HashedMessage,
		},
		SerialNumber: info.SerialNumber,
		GenTime:      info.GenTime,
		Accuracy: accuracy{
			Seconds:      info.AccuracySeconds,
			Milliseconds: info.AccuracyMillis,
			Microseconds: info.AccuracyMicros,
		},
		Ordering:   info.Ordering,
		Nonce:      info.Nonce,
		Extensions: info.Extensions,
	}
	if value.Version == 0 {
		value.Version = 1
	}
	if value.Policy == nil {
		value.Policy = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 4146, 2, 3}
	}
	if value.MessageImprint.HashAlgorithm.Algorithm == nil {
		value.MessageImprint.HashAlgorithm.Algorithm = oid.SHA256
	}
	if value.MessageImprint.HashedMessage == nil {
		sum := sha256.Sum256([]byte("hello"))
		value.MessageImprint.HashedMessage = sum[:]
	}
	if value.SerialNumber == nil {
		value.SerialNumber = big.NewInt(1)
	}
	if value.GenTime.IsZero() {
		value.GenTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if len(info.TSA) > 0 {
		// [0] EXPLICIT, as GeneralName is a CHOICE
		value.TSA = explicit(0, info.TSA)
	}
	return asn1.Marshal(value)
}

// DirectoryName returns an encoded directoryName GeneralName.
func DirectoryName(name pkix.Name) []byte {
	rdn := Must(asn1.Marshal(name.ToRDNSequence()))
	return Must(asn1.Marshal(explicit(4, rdn)))
}

// DNSName returns an encoded dNSName GeneralName.
func DNSName(name string) []byte {
	return Must(asn1.Marshal(asn1.RawValue{
		Class: asn1.ClassContextSpecific,
		Tag:   2,
		Bytes: []byte(name),
	}))
}

// URIName returns an encoded uniformResourceIdentifier GeneralName.
func URIName(uri string) []byte {
	return Must(asn1.Marshal(asn1.RawValue{
		Class: asn1.ClassContextSpecific,
		Tag:   6,
		Bytes: []byte(uri),
	}))
}

// TimestampToken describes an RFC 3161 timestamp token to build.
type TimestampToken struct {
	Info TSTInfo

	// Certificates are embedded into the token. The first certificate
	// identifies the signer if Signer is nil.
	Certificates []*x509.Certificate

	// Signer identifies the signer of the token.
	Signer *x509.Certificate

	// ContentType overrides the encapsulated content type.
	ContentType asn1.ObjectIdentifier

	// RawInfo replaces the encoded TSTInfo verbatim when set.
	RawInfo []byte

	// SignedAttributes are added after the content type and message
	// digest attributes.
	SignedAttributes []Attribute
}

// Bytes returns the DER encoding of the token as a ContentInfo.
func (tok TimestampToken) Bytes() ([]byte, error) {
	info := tok.RawInfo
	if info == nil {
		var err error
		if info, err = tok.Info.Bytes(); err != nil {
			return nil, err
		}
	}
	contentType := tok.ContentType
	if contentType == nil {
		contentType = oid.TSTInfo
	}

	signer := tok.Signer
	if signer == nil && len(tok.Certificates) > 0 {
		signer = tok.Certificates[0]
	}
	digest := sha256.Sum256(info)
	sd := SignedData{
		ContentType: contentType,
		Content:     info,
		SignerInfos: []SignerInfo{{
			Certificate: signer,
			SignedAttributes: append([]Attribute{
				NewAttribute(oid.ContentType, contentType),
				NewAttribute(oid.MessageDigest, digest[:]),
			}, tok.SignedAttributes...),
		}},
	}
	for _, cert := range tok.Certificates {
		sd.Certificates = append(sd.Certificates, cert.Raw)
	}
	return sd.ContentInfo()
}

// TimestampAttribute returns a signature-timestamp-token attribute holding
// the given encoded tokens as its values.
func TimestampAttribute(tokens ...[]byte) Attribute {
	return Attribute{
		Type:   oid.SignatureTimeStampToken,
		Values: tokens,
	}
}
