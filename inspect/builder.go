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

package inspect

import (
	"context"
	"encoding/asn1"
	"errors"
	"sync"
	"time"

	"github.com/notaryproject/sigscope/cms"
	logging "github.com/notaryproject/sigscope/internal/log"
	"github.com/notaryproject/sigscope/internal/metrics"
	"github.com/notaryproject/sigscope/oid"
	"github.com/notaryproject/sigscope/timestamp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry sets the OID registry used to classify attributes and name
// algorithms.
func WithRegistry(registry *oid.Registry) Option {
	return func(b *Builder) {
		if registry != nil {
			b.registry = registry
		}
	}
}

// WithMaxSize limits the size of signature envelopes and timestamp tokens.
// Zero means unbounded.
func WithMaxSize(n int) Option {
	return func(b *Builder) {
		b.maxSize = n
	}
}

// WithConcurrency sets the number of signatures decoded in parallel.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets the logger receiving decoding failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the collectors recording inspections.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// Builder builds reports. A Builder is safe for concurrent use.
type Builder struct {
	registry    *oid.Registry
	maxSize     int
	concurrency int
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry:    oid.Default(),
		concurrency: 1,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildReport builds a report with the default builder.
func BuildReport(signatures []Signature) *Report {
	return NewBuilder().Build(context.Background(), signatures)
}

// Build inspects the signatures. It never fails: decoding failures are
// recorded in the report. Signatures not inspected before ctx is done get
// the context error as their entry error.
func (b *Builder) Build(ctx context.Context, signatures []Signature) *Report {
	entries := make([]Entry, len(signatures))
	sem := semaphore.NewWeighted(int64(b.concurrency))
	wg := sync.WaitGroup{}

	for i := range signatures {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(signatures); j++ {
				entries[j] = b.canceledEntry(j, signatures[j], err)
			}
			break
		}
		wg.Add(1)
		go func(index int) {
			defer sem.Release(1)
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				entries[index] = b.canceledEntry(index, signatures[index], err)
				return
			}
			entries[index] = b.buildEntry(index, signatures[index])
		}(i)
	}
	wg.Wait()
	return &Report{Entries: entries}
}

func (b *Builder) canceledEntry(index int, sig Signature, err error) Entry {
	b.metrics.ObserveSignature("canceled", 0)
	return Entry{
		Index:    index,
		Metadata: sig.Metadata,
		Size:     len(sig.Contents),
		Error:    err,
	}
}

func (b *Builder) buildEntry(index int, sig Signature) Entry {
	entry := Entry{
		Index:    index,
		Metadata: sig.Metadata,
		Size:     len(sig.Contents),
	}
	logger := b.logger.WithField("signature", index)

	start := time.Now()
	envelope, err := cms.DecodeSignedData(sig.Contents, cms.WithMaxSize(b.maxSize))
	b.metrics.ObserveSignature(envelopeResult(err), time.Since(start))
	if err != nil {
		logger.WithError(err).Warn("failed to decode signature envelope")
		entry.Error = err
		return entry
	}
	entry.Envelope = envelope
	logger.Debugf("decoded signature envelope with %d signers", len(envelope.SignerInfos))

	if oid.TSTInfo.Equal(envelope.ContentType) {
		entry.DocumentTimestamp = documentTimestamp(envelope)
	}

	entry.Signers = make([]SignerReport, len(envelope.SignerInfos))
	for i := range envelope.SignerInfos {
		entry.Signers[i] = b.buildSigner(logger.WithField("signer", i), envelope, i)
		b.metrics.ObserveSigner(entry.Signers[i].Timestamp.State.String())
	}
	return entry
}

func envelopeResult(err error) string {
	switch {
	case err == nil:
		return "decoded"
	case errors.Is(err, cms.ErrTooLarge):
		return "too_large"
	case errors.Is(err, cms.ErrUnexpectedContentType):
		return "unexpected_content_type"
	default:
		return "malformed"
	}
}

func documentTimestamp(envelope *cms.SignedData) *TimestampResult {
	token, err := timestamp.NewToken(envelope)
	if err != nil {
		return &TimestampResult{State: TimestampMalformed, Error: err}
	}
	return &TimestampResult{State: TimestampDecoded, Token: token}
}

func (b *Builder) buildSigner(logger logrus.FieldLogger, envelope *cms.SignedData, index int) SignerReport {
	signerInfo := &envelope.SignerInfos[index]
	report := SignerReport{
		Index:              index,
		SignerInfo:         signerInfo,
		DigestAlgorithm:    b.algorithm(signerInfo.DigestAlgorithm.Algorithm),
		SignatureAlgorithm: b.algorithm(signerInfo.SignatureAlgorithm.Algorithm),
		SignatureScheme:    oid.ToSignatureAlgorithm(signerInfo.DigestAlgorithm.Algorithm, signerInfo.SignatureAlgorithm.Algorithm),
		SignerCertificate:  envelope.SignerCertificate(signerInfo),
	}

	// the attribute sets are decoded independently
	signed, err := cms.DecodeAttributes(signerInfo.RawSignedAttributes)
	if err != nil {
		logger.WithError(err).Warn("failed to decode signed attributes")
		report.SignedAttributesError = err
	}
	report.SignedAttributes = signed
	unsigned, err := cms.DecodeAttributes(signerInfo.RawUnsignedAttributes)
	if err != nil {
		logger.WithError(err).Warn("failed to decode unsigned attributes")
		report.UnsignedAttributesError = err
	}
	report.UnsignedAttributes = unsigned

	report.Attributes = append(b.summarize(signed, true), b.summarize(unsigned, false)...)
	report.SigningTime, report.SigningTimeError = b.signingTime(signed)
	report.Timestamp = b.resolveTimestamp(signerInfo, unsigned, report.UnsignedAttributesError)
	if report.Timestamp.State == TimestampMalformed {
		logger.WithError(report.Timestamp.Error).Warn("failed to decode timestamp token")
	}
	return report
}

func (b *Builder) algorithm(id asn1.ObjectIdentifier) Algorithm {
	dotted := id.String()
	return Algorithm{OID: dotted, Name: b.registry.Name(dotted)}
}

func (b *Builder) summarize(table *cms.AttributeTable, signed bool) []AttributeSummary {
	var summaries []AttributeSummary
	for _, attr := range table.Attributes() {
		summaries = append(summaries, AttributeSummary{
			OID:        attr.OID,
			Name:       b.registry.Name(attr.OID),
			Role:       b.registry.RoleOf(attr.OID),
			Signed:     signed,
			ValueCount: len(attr.Values),
		})
	}
	return summaries
}

// hasRole reports whether the dotted OID is the standard identifier of a
// role or is registered with that role.
func (b *Builder) hasRole(dotted string, standard asn1.ObjectIdentifier, role oid.Role) bool {
	return dotted == standard.String() || b.registry.RoleOf(dotted) == role
}

// signingTime returns the first signing-time signed attribute.
func (b *Builder) signingTime(signed *cms.AttributeTable) (*time.Time, error) {
	for _, attr := range signed.Attributes() {
		if !b.hasRole(attr.OID, oid.SigningTime, oid.RoleSigningTime) || len(attr.Values) == 0 {
			continue
		}
		var t time.Time
		rest, err := asn1.Unmarshal(attr.Values[0], &t)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, errors.New("trailing data after signing time")
		}
		t = t.UTC()
		return &t, nil
	}
	return nil, nil
}

// resolveTimestamp resolves the timestamp slot of a signer from its
// unsigned attributes. Only the first value of the attribute is decoded.
func (b *Builder) resolveTimestamp(signerInfo *cms.SignerInfo, unsigned *cms.AttributeTable, unsignedErr error) TimestampResult {
	if unsignedErr != nil {
		// the attribute may be present in the undecodable set
		return TimestampResult{
			State: TimestampMalformed,
			Error: cms.DecodeError{
				Kind:    cms.KindTimestampMalformed,
				Message: "unsigned attribute set is undecodable",
				Detail:  unsignedErr,
			},
		}
	}

	var values [][]byte
	for _, attr := range unsigned.Attributes() {
		if b.hasRole(attr.OID, oid.SignatureTimeStampToken, oid.RoleSignatureTimeStampToken) {
			values = attr.Values
			break
		}
	}
	if values == nil {
		return TimestampResult{State: TimestampAbsent}
	}

	result := TimestampResult{ValueCount: len(values)}
	if len(values) == 0 {
		result.State = TimestampMalformed
		result.Error = cms.DecodeError{
			Kind:    cms.KindTimestampMalformed,
			Message: "timestamp attribute has no value",
		}
		return result
	}
	if len(values) > 1 {
		result.Extra = values[1:]
	}

	token, err := timestamp.DecodeToken(values[0], cms.WithMaxSize(b.maxSize))
	if err != nil {
		result.State = TimestampMalformed
		result.Error = err
		return result
	}
	result.State = TimestampDecoded
	result.Token = token

	// RFC 3161 Appendix A: the token stamps the signature value
	if match, err := token.MatchesImprint(signerInfo.Signature); err == nil {
		result.ImprintMatch = &match
	}
	return result
}
