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

// Package timestamp decodes RFC 3161 timestamp tokens embedded in CMS
// signatures: https://datatracker.ietf.org/doc/html/rfc3161
//
// A token is decoded in two phases. The attribute value is first read as a
// single BER element and re-encoded in DER, then reinterpreted as a ContentInfo
// carrying a SignedData whose encapsulated content is a TSTInfo. Token
// signatures are not verified.
package timestamp

import (
	"bytes"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/notaryproject/sigscope/cms"
	"github.com/notaryproject/sigscope/internal/crypto/hashutil"
	"github.com/notaryproject/sigscope/internal/encoding/ber"
	"github.com/notaryproject/sigscope/oid"
)

// MessageImprint contains the hash of the datum to be time-stamped.
//
//	MessageImprint ::= SEQUENCE {
//	 hashAlgorithm   AlgorithmIdentifier,
//	 hashedMessage   OCTET STRING }
type MessageImprint struct {
	HashAlgorithm pkix.AlgorithmIdentifier
	HashedMessage []byte
}

//	Accuracy ::= SEQUENCE {
//	 seconds     INTEGER             OPTIONAL,
//	 millis  [0] INTEGER (1..999)    OPTIONAL,
//	 micros  [1] INTEGER (1..999)    OPTIONAL }
type Accuracy struct {
	Seconds      int `asn1:"optional"`
	Milliseconds int `asn1:"optional,tag:0"`
	Microseconds int `asn1:"optional,tag:1"`
}

// Duration returns the accuracy as a duration.
func (a Accuracy) Duration() time.Duration {
	return time.Duration(a.Seconds)*time.Second +
		time.Duration(a.Milliseconds)*time.Millisecond +
		time.Duration(a.Microseconds)*time.Microsecond
}

//	TSTInfo ::= SEQUENCE {
//	 version         INTEGER                 { v1(1) },
//	 policy          TSAPolicyId,
//	 messageImprint  MessageImprint,
//	 serialNumber    INTEGER,
//	 genTime         GeneralizedTime,
//	 accuracy        Accuracy                OPTIONAL,
//	 ordering        BOOLEAN                 DEFAULT FALSE,
//	 nonce           INTEGER                 OPTIONAL,
//	 tsa             [0] GeneralName         OPTIONAL,
//	 extensions      [1] IMPLICIT Extensions OPTIONAL }
type TSTInfo struct {
	Version        int // fixed to 1 as defined in RFC 3161 2.4.2 Response Format
	Policy         asn1.ObjectIdentifier
	MessageImprint MessageImprint
	SerialNumber   *big.Int
	GenTime        time.Time        `asn1:"generalized"`
	Accuracy       Accuracy         `asn1:"optional"`
	Ordering       bool             `asn1:"optional,default:false"`
	Nonce          *big.Int         `asn1:"optional"`
	TSA            asn1.RawValue    `asn1:"optional,tag:0"`
	Extensions     []pkix.Extension `asn1:"optional,tag:1"`
}

// Timestamp returns the timestamp by TSA and its accuracy.
func (tst *TSTInfo) Timestamp() (time.Time, time.Duration) {
	return tst.GenTime, tst.Accuracy.Duration()
}

// ParseTSTInfo parses a DER-encoded TSTInfo. Only version 1 is accepted.
func ParseTSTInfo(der []byte) (*TSTInfo, error) {
	if len(der) == 0 {
		return nil, malformed(nil, "TSTInfo is empty")
	}
	var info TSTInfo
	rest, err := asn1.Unmarshal(der, &info)
	if err != nil {
		return nil, malformed(err, "invalid TSTInfo")
	}
	if len(rest) > 0 {
		return nil, malformed(nil, "trailing data after TSTInfo")
	}
	if info.Version != 1 {
		return nil, malformed(nil, "TSTInfo version must be 1, but got %d", info.Version)
	}
	if info.SerialNumber == nil {
		return nil, malformed(nil, "TSTInfo has no serial number")
	}
	return &info, nil
}

// Token is a decoded RFC 3161 timestamp token.
type Token struct {
	// GenTime is the time at which the token was created, in UTC.
	GenTime time.Time

	// SerialNumber is the serial number assigned by the TSA.
	SerialNumber *big.Int

	// TSA is the name of the time stamping authority, or nil if the token
	// is anonymous.
	TSA *GeneralName

	// TSAName is the rendered TSA name. It is empty if TSA is nil.
	TSAName string

	// Policy is the TSA policy in dotted notation.
	Policy string

	// Accuracy is the accuracy of GenTime, or zero if not stated.
	Accuracy time.Duration

	// Ordering is the ordering flag of the TSTInfo.
	Ordering bool

	// Nonce is the nonce of the request, or nil.
	Nonce *big.Int

	// MessageImprint is the hash of the time-stamped datum.
	MessageImprint MessageImprint

	// Certificates are the certificates embedded in the token, as
	// candidates for the TSA certificate chain. They are not validated.
	Certificates []*x509.Certificate

	// SignerCertificate is the embedded certificate identified as the
	// token signer, or nil.
	SignerCertificate *x509.Certificate

	// Info is the decoded TSTInfo.
	Info *TSTInfo

	// SignedData is the envelope of the token.
	SignedData *cms.SignedData
}

// HasTSAName reports whether the token names its TSA.
func (t *Token) HasTSAName() bool {
	return t.TSA != nil
}

// DecodeToken decodes the value of a signature-timestamp-token attribute.
//
// Failures are reported as cms.ErrTimestampMalformed, except a size limit
// given by cms.WithMaxSize which is reported as cms.ErrTooLarge.
func DecodeToken(rawValue []byte, opts ...cms.DecodeOption) (*Token, error) {
	if err := cms.CheckSize(rawValue, opts...); err != nil {
		return nil, err
	}

	// phase one: a single BER element re-encoded in DER
	canonical, err := ber.ConvertToDER(rawValue)
	if err != nil {
		return nil, malformed(err, "attribute value is not an ASN.1 element")
	}

	// phase two: ContentInfo carrying SignedData carrying TSTInfo
	var contentInfo cms.ContentInfo
	if _, err := asn1.Unmarshal(canonical, &contentInfo); err != nil {
		return nil, malformed(err, "attribute value is not a content info")
	}
	signed, err := cms.DecodeSignedData(canonical, opts...)
	if err != nil {
		if errors.Is(err, cms.ErrTooLarge) {
			return nil, err
		}
		return nil, malformed(err, "invalid timestamp token envelope")
	}
	if !oid.TSTInfo.Equal(signed.ContentType) {
		return nil, malformed(nil, "unexpected encapsulated content type %s", signed.ContentType)
	}
	info, err := ParseTSTInfo(signed.Content)
	if err != nil {
		return nil, err
	}
	return newToken(info, signed)
}

// NewToken builds a token from an already decoded envelope, such as a PDF
// document timestamp.
func NewToken(signed *cms.SignedData) (*Token, error) {
	if !oid.TSTInfo.Equal(signed.ContentType) {
		return nil, malformed(nil, "unexpected encapsulated content type %s", signed.ContentType)
	}
	info, err := ParseTSTInfo(signed.Content)
	if err != nil {
		return nil, err
	}
	return newToken(info, signed)
}

func newToken(info *TSTInfo, signed *cms.SignedData) (*Token, error) {
	token := &Token{
		GenTime:           info.GenTime.UTC(),
		SerialNumber:      info.SerialNumber,
		Policy:            info.Policy.String(),
		Accuracy:          info.Accuracy.Duration(),
		Ordering:          info.Ordering,
		Nonce:             info.Nonce,
		MessageImprint:    info.MessageImprint,
		Certificates:      signed.Certificates,
		SignerCertificate: signingCertificate(signed),
		Info:              info,
		SignedData:        signed,
	}
	if info.TSA.FullBytes != nil {
		name, err := parseGeneralName(info.TSA.Bytes)
		if err != nil {
			return nil, malformed(err, "invalid TSA name")
		}
		token.TSA = name
		token.TSAName = name.String()
	}
	return token, nil
}

// MatchesImprint reports whether the message imprint of the token is the
// digest of message.
func (t *Token) MatchesImprint(message []byte) (bool, error) {
	hashAlg := t.MessageImprint.HashAlgorithm.Algorithm
	hash, ok := oid.ToHash(hashAlg)
	if !ok {
		return false, fmt.Errorf("unsupported message imprint hash algorithm: %v", hashAlg)
	}
	digest, err := hashutil.ComputeHash(hash, message)
	if err != nil {
		return false, err
	}
	return bytes.Equal(t.MessageImprint.HashedMessage, digest), nil
}

func malformed(detail error, format string, args ...any) error {
	return cms.DecodeError{
		Kind:    cms.KindTimestampMalformed,
		Message: fmt.Sprintf(format, args...),
		Detail:  detail,
	}
}
