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

package render

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"time"

	"github.com/notaryproject/sigscope/cms"
	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/oid"
	"github.com/notaryproject/sigscope/timestamp"
)

// document is the serialized form of a report. It is shared by the JSON,
// YAML and CBOR renderers; CBOR falls back to the json tags.
type document struct {
	Summary    inspect.Summary `json:"summary" yaml:"summary"`
	Signatures []signatureView `json:"signatures" yaml:"signatures"`
}

type signatureView struct {
	Index             int            `json:"index" yaml:"index"`
	FieldName         string         `json:"field_name,omitempty" yaml:"field_name,omitempty"`
	Name              string         `json:"name,omitempty" yaml:"name,omitempty"`
	Reason            string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Location          string         `json:"location,omitempty" yaml:"location,omitempty"`
	ContactInfo       string         `json:"contact_info,omitempty" yaml:"contact_info,omitempty"`
	ClaimedTime       *time.Time     `json:"claimed_signing_time,omitempty" yaml:"claimed_signing_time,omitempty"`
	Filter            string         `json:"filter,omitempty" yaml:"filter,omitempty"`
	SubFilter         string         `json:"sub_filter,omitempty" yaml:"sub_filter,omitempty"`
	ByteRange         []int64        `json:"byte_range,omitempty" yaml:"byte_range,omitempty,flow"`
	Size              int            `json:"size" yaml:"size"`
	Error             string         `json:"error,omitempty" yaml:"error,omitempty"`
	Envelope          *envelopeView  `json:"envelope,omitempty" yaml:"envelope,omitempty"`
	Signers           []signerView   `json:"signers" yaml:"signers"`
	DocumentTimestamp *timestampView `json:"document_timestamp,omitempty" yaml:"document_timestamp,omitempty"`
}

type envelopeView struct {
	Version          int               `json:"version" yaml:"version"`
	ContentType      algorithmView     `json:"content_type" yaml:"content_type"`
	Detached         bool              `json:"detached" yaml:"detached"`
	DigestAlgorithms []algorithmView   `json:"digest_algorithms" yaml:"digest_algorithms"`
	Certificates     []certificateView `json:"certificates" yaml:"certificates"`
	UnparsedCerts    int               `json:"unparsed_certificates,omitempty" yaml:"unparsed_certificates,omitempty"`
	CRLs             int               `json:"crls" yaml:"crls"`
}

// algorithmView is an object identifier with its registered name.
type algorithmView struct {
	OID  string `json:"oid" yaml:"oid"`
	Name string `json:"name" yaml:"name"`
}

type signerView struct {
	Index                   int              `json:"index" yaml:"index"`
	Version                 int              `json:"version" yaml:"version"`
	Identifier              string           `json:"identifier" yaml:"identifier"`
	DigestAlgorithm         algorithmView    `json:"digest_algorithm" yaml:"digest_algorithm"`
	SignatureAlgorithm      algorithmView    `json:"signature_algorithm" yaml:"signature_algorithm"`
	SignatureScheme         string           `json:"signature_scheme,omitempty" yaml:"signature_scheme,omitempty"`
	Certificate             *certificateView `json:"certificate,omitempty" yaml:"certificate,omitempty"`
	SigningTime             *time.Time       `json:"signing_time,omitempty" yaml:"signing_time,omitempty"`
	SigningTimeError        string           `json:"signing_time_error,omitempty" yaml:"signing_time_error,omitempty"`
	SignedAttributesError   string           `json:"signed_attributes_error,omitempty" yaml:"signed_attributes_error,omitempty"`
	UnsignedAttributesError string           `json:"unsigned_attributes_error,omitempty" yaml:"unsigned_attributes_error,omitempty"`
	Attributes              []attributeView  `json:"attributes" yaml:"attributes"`
	Timestamp               timestampView    `json:"timestamp" yaml:"timestamp"`
}

type attributeView struct {
	OID    string   `json:"oid" yaml:"oid"`
	Name   string   `json:"name" yaml:"name"`
	Role   string   `json:"role" yaml:"role"`
	Signed bool     `json:"signed" yaml:"signed"`
	Count  int      `json:"values" yaml:"values"`
	Values []string `json:"encoded_values,omitempty" yaml:"encoded_values,omitempty"`
}

type timestampView struct {
	State        string            `json:"state" yaml:"state"`
	Error        string            `json:"error,omitempty" yaml:"error,omitempty"`
	Values       int               `json:"values,omitempty" yaml:"values,omitempty"`
	Extra        []string          `json:"extra_values,omitempty" yaml:"extra_values,omitempty"`
	GenTime      *time.Time        `json:"gen_time,omitempty" yaml:"gen_time,omitempty"`
	Accuracy     string            `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	SerialNumber string            `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	Policy       string            `json:"policy,omitempty" yaml:"policy,omitempty"`
	TSA          string            `json:"tsa,omitempty" yaml:"tsa,omitempty"`
	Ordering     bool              `json:"ordering,omitempty" yaml:"ordering,omitempty"`
	Nonce        string            `json:"nonce,omitempty" yaml:"nonce,omitempty"`
	ImprintAlg   *algorithmView    `json:"imprint_algorithm,omitempty" yaml:"imprint_algorithm,omitempty"`
	Imprint      string            `json:"imprint,omitempty" yaml:"imprint,omitempty"`
	ImprintMatch *bool             `json:"imprint_match,omitempty" yaml:"imprint_match,omitempty"`
	Certificates []certificateView `json:"certificates,omitempty" yaml:"certificates,omitempty"`
	Signer       *certificateView  `json:"signer,omitempty" yaml:"signer,omitempty"`
}

type viewBuilder struct {
	registry *oid.Registry
	values   bool
}

func (v *viewBuilder) document(report *inspect.Report) *document {
	doc := &document{
		Summary:    report.Summary(),
		Signatures: make([]signatureView, 0, len(report.Entries)),
	}
	for _, entry := range report.Entries {
		doc.Signatures = append(doc.Signatures, v.signature(entry))
	}
	return doc
}

func (v *viewBuilder) signature(entry inspect.Entry) signatureView {
	md := entry.Metadata
	sv := signatureView{
		Index:       entry.Index,
		FieldName:   md.FieldName,
		Name:        md.Name,
		Reason:      md.Reason,
		Location:    md.Location,
		ContactInfo: md.ContactInfo,
		ClaimedTime: md.SigningTime,
		Filter:      md.Filter,
		SubFilter:   md.SubFilter,
		ByteRange:   md.ByteRange,
		Size:        entry.Size,
		Error:       errorString(entry.Error),
		Signers:     make([]signerView, 0, len(entry.Signers)),
	}
	if entry.Envelope != nil {
		sv.Envelope = v.envelope(entry.Envelope)
	}
	for _, signer := range entry.Signers {
		sv.Signers = append(sv.Signers, v.signer(signer))
	}
	if entry.DocumentTimestamp != nil {
		ts := v.timestamp(*entry.DocumentTimestamp)
		sv.DocumentTimestamp = &ts
	}
	return sv
}

func (v *viewBuilder) envelope(sd *cms.SignedData) *envelopeView {
	ev := &envelopeView{
		Version:          sd.Version,
		ContentType:      v.algorithm(sd.ContentType),
		Detached:         sd.Content == nil,
		DigestAlgorithms: make([]algorithmView, 0, len(sd.DigestAlgorithms)),
		Certificates:     certificates(sd.Certificates),
		UnparsedCerts:    len(sd.RawCertificates) - len(sd.Certificates),
		CRLs:             sd.CRLCount,
	}
	for _, alg := range sd.DigestAlgorithms {
		ev.DigestAlgorithms = append(ev.DigestAlgorithms, v.algorithm(alg.Algorithm))
	}
	return ev
}

func (v *viewBuilder) signer(s inspect.SignerReport) signerView {
	sv := signerView{
		Index:                   s.Index,
		DigestAlgorithm:         algorithmView(s.DigestAlgorithm),
		SignatureAlgorithm:      algorithmView(s.SignatureAlgorithm),
		SigningTime:             s.SigningTime,
		SigningTimeError:        errorString(s.SigningTimeError),
		SignedAttributesError:   errorString(s.SignedAttributesError),
		UnsignedAttributesError: errorString(s.UnsignedAttributesError),
		Attributes:              make([]attributeView, 0, len(s.Attributes)),
		Timestamp:               v.timestamp(s.Timestamp),
	}
	if s.SignatureScheme != x509.UnknownSignatureAlgorithm {
		sv.SignatureScheme = s.SignatureScheme.String()
	}
	if s.SignerInfo != nil {
		sv.Version = s.SignerInfo.Version
		sv.Identifier = signerIdentifier(s.SignerInfo.SignerIdentifier)
	}
	if s.SignerCertificate != nil {
		cv := certificate(s.SignerCertificate)
		sv.Certificate = &cv
	}
	for _, attr := range s.Attributes {
		av := attributeView{
			OID:    attr.OID,
			Name:   attr.Name,
			Role:   attr.Role.String(),
			Signed: attr.Signed,
			Count:  attr.ValueCount,
		}
		if v.values {
			table := s.UnsignedAttributes
			if attr.Signed {
				table = s.SignedAttributes
			}
			av.Values = hexValues(table.Get(attr.OID))
		}
		sv.Attributes = append(sv.Attributes, av)
	}
	return sv
}

func (v *viewBuilder) timestamp(result inspect.TimestampResult) timestampView {
	tv := timestampView{
		State:        result.State.String(),
		Error:        errorString(result.Error),
		Values:       result.ValueCount,
		ImprintMatch: result.ImprintMatch,
	}
	if v.values {
		tv.Extra = hexValues(result.Extra)
	}
	if result.Token != nil {
		v.token(&tv, result.Token)
	}
	return tv
}

func (v *viewBuilder) token(tv *timestampView, token *timestamp.Token) {
	genTime := token.GenTime
	tv.GenTime = &genTime
	if token.Accuracy > 0 {
		tv.Accuracy = token.Accuracy.String()
	}
	if token.SerialNumber != nil {
		tv.SerialNumber = token.SerialNumber.String()
	}
	tv.Policy = token.Policy
	tv.TSA = token.TSAName
	tv.Ordering = token.Ordering
	if token.Nonce != nil {
		tv.Nonce = token.Nonce.String()
	}
	alg := v.algorithm(token.MessageImprint.HashAlgorithm.Algorithm)
	tv.ImprintAlg = &alg
	tv.Imprint = hex.EncodeToString(token.MessageImprint.HashedMessage)
	tv.Certificates = certificates(token.Certificates)
	if token.SignerCertificate != nil {
		cv := certificate(token.SignerCertificate)
		tv.Signer = &cv
	}
}

func (v *viewBuilder) algorithm(id asn1.ObjectIdentifier) algorithmView {
	dotted := id.String()
	return algorithmView{OID: dotted, Name: v.registry.Name(dotted)}
}

// signerIdentifier renders the issuer and serial number, or the subject key
// identifier in hex.
func signerIdentifier(sid cms.SignerIdentifier) string {
	if ias := sid.IssuerAndSerialNumber; ias != nil {
		issuer := hex.EncodeToString(ias.Issuer.FullBytes)
		var rdn pkix.RDNSequence
		if rest, err := asn1.Unmarshal(ias.Issuer.FullBytes, &rdn); err == nil && len(rest) == 0 {
			var name pkix.Name
			name.FillFromRDNSequence(&rdn)
			issuer = name.String()
		}
		serial := "?"
		if ias.SerialNumber != nil {
			serial = ias.SerialNumber.String()
		}
		return "issuer=" + issuer + " serial=" + serial
	}
	if len(sid.SubjectKeyIdentifier) > 0 {
		return "ski=" + hex.EncodeToString(sid.SubjectKeyIdentifier)
	}
	return ""
}

func hexValues(values [][]byte) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = hex.EncodeToString(value)
	}
	return out
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
