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

// Package inspect builds structural reports of CMS signatures and the RFC
// 3161 timestamp tokens attached to their signers.
//
// A report never discards partial information: failures are recorded on the
// smallest unit that failed, being the entry, the attribute set of a signer
// or the timestamp slot of a signer.
package inspect

import (
	"crypto/x509"
	"time"

	"github.com/notaryproject/sigscope/cms"
	"github.com/notaryproject/sigscope/oid"
	"github.com/notaryproject/sigscope/timestamp"
)

// Signature is a raw signature block extracted from a document.
type Signature struct {
	Metadata Metadata

	// Contents is the encoded CMS envelope.
	Contents []byte
}

// Metadata holds the claims of the host document about a signature. They
// are passed through unverified.
type Metadata struct {
	Name        string
	Reason      string
	Location    string
	ContactInfo string

	// SigningTime is the claimed signing time, or nil.
	SigningTime *time.Time

	Filter    string
	SubFilter string

	// FieldName is the name of the form field holding the signature.
	FieldName string

	// ByteRange lists offset and length pairs of the signed bytes.
	ByteRange []int64
}

// Report is the result of one inspection run.
type Report struct {
	// Entries holds one entry per signature in document order. It is empty,
	// not nil, when there are no signatures.
	Entries []Entry
}

// Entry is the inspection result of one signature.
type Entry struct {
	Index    int
	Metadata Metadata

	// Size is the length of the signature contents in bytes.
	Size int

	// Envelope is the decoded envelope, or nil if decoding failed.
	Envelope *cms.SignedData

	// Error is set when the envelope could not be decoded.
	Error error

	// Signers holds one report per SignerInfo in encoding order.
	Signers []SignerReport

	// DocumentTimestamp is set when the envelope itself is a timestamp
	// token, as used by document timestamp signatures.
	DocumentTimestamp *TimestampResult
}

// Algorithm is an algorithm identifier with its registered name.
type Algorithm struct {
	OID  string
	Name string
}

// SignerReport is the inspection result of one SignerInfo.
type SignerReport struct {
	Index      int
	SignerInfo *cms.SignerInfo

	DigestAlgorithm    Algorithm
	SignatureAlgorithm Algorithm

	// SignatureScheme is the scheme named by the digest and signature
	// algorithms together, or x509.UnknownSignatureAlgorithm.
	SignatureScheme x509.SignatureAlgorithm

	// SignerCertificate is the embedded certificate identified by the
	// signer identifier, or nil.
	SignerCertificate *x509.Certificate

	// SignedAttributes is nil when the set is absent or undecodable.
	SignedAttributes      *cms.AttributeTable
	SignedAttributesError error

	// UnsignedAttributes is nil when the set is absent or undecodable.
	UnsignedAttributes      *cms.AttributeTable
	UnsignedAttributesError error

	// Attributes summarizes the signed attributes followed by the unsigned
	// ones, in encoding order.
	Attributes []AttributeSummary

	// SigningTime is the value of the signing-time signed attribute.
	SigningTime      *time.Time
	SigningTimeError error

	Timestamp TimestampResult
}

// AttributeSummary describes one attribute of a signer.
type AttributeSummary struct {
	OID        string
	Name       string
	Role       oid.Role
	Signed     bool
	ValueCount int
}

// TimestampState is the state of a timestamp slot.
type TimestampState int

// Timestamp slot states.
const (
	// TimestampAbsent means no signature-timestamp-token attribute.
	TimestampAbsent TimestampState = iota

	// TimestampMalformed means the attribute is present but its token could
	// not be decoded.
	TimestampMalformed

	// TimestampDecoded means the token was decoded.
	TimestampDecoded
)

// String returns the name of the state.
func (s TimestampState) String() string {
	switch s {
	case TimestampAbsent:
		return "absent"
	case TimestampMalformed:
		return "malformed"
	case TimestampDecoded:
		return "decoded"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s TimestampState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TimestampResult is the resolved timestamp slot of a signer.
type TimestampResult struct {
	State TimestampState

	// Token is set in the decoded state.
	Token *timestamp.Token

	// Error is set in the malformed state.
	Error error

	// ValueCount is the number of values of the attribute.
	ValueCount int

	// Extra holds the values following the first one. They are retained
	// but not interpreted.
	Extra [][]byte

	// ImprintMatch reports whether the message imprint of the token is the
	// digest of the signature value it stamps. It is nil when unknown.
	ImprintMatch *bool
}

// Summary counts the contents of a report.
type Summary struct {
	Signatures          int `json:"signatures" yaml:"signatures"`
	DecodedEnvelopes    int `json:"decoded_envelopes" yaml:"decoded_envelopes"`
	Signers             int `json:"signers" yaml:"signers"`
	TimestampsDecoded   int `json:"timestamps_decoded" yaml:"timestamps_decoded"`
	TimestampsMalformed int `json:"timestamps_malformed" yaml:"timestamps_malformed"`
	TimestampsAbsent    int `json:"timestamps_absent" yaml:"timestamps_absent"`
	DocumentTimestamps  int `json:"document_timestamps" yaml:"document_timestamps"`
}

// Summary counts the entries, signers and timestamp states of the report.
func (r *Report) Summary() Summary {
	s := Summary{Signatures: len(r.Entries)}
	for _, entry := range r.Entries {
		if entry.Envelope != nil {
			s.DecodedEnvelopes++
		}
		if entry.DocumentTimestamp != nil && entry.DocumentTimestamp.State == TimestampDecoded {
			s.DocumentTimestamps++
		}
		for _, signer := range entry.Signers {
			s.Signers++
			switch signer.Timestamp.State {
			case TimestampAbsent:
				s.TimestampsAbsent++
			case TimestampMalformed:
				s.TimestampsMalformed++
			case TimestampDecoded:
				s.TimestampsDecoded++
			}
		}
	}
	return s
}
