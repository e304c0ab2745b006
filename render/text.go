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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// palette holds the colors of the text format.
type palette struct {
	header    *color.Color
	label     *color.Color
	decoded   *color.Color
	malformed *color.Color
	absent    *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		header:    color.New(color.Bold, color.FgWhite),
		label:     color.New(color.FgCyan),
		decoded:   color.New(color.FgGreen),
		malformed: color.New(color.FgRed),
		absent:    color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.header, p.label, p.decoded, p.malformed, p.absent} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) state(state string) string {
	switch state {
	case "decoded":
		return p.decoded.Sprint(state)
	case "malformed":
		return p.malformed.Sprint(state)
	}
	return p.absent.Sprint(state)
}

// textWriter accumulates the first write error.
type textWriter struct {
	w   io.Writer
	p   *palette
	err error
}

func (t *textWriter) line(indent int, format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, "%s%s\n", strings.Repeat("  ", indent), fmt.Sprintf(format, args...))
}

func (t *textWriter) field(indent int, label string, value any) {
	t.line(indent, "%s %v", t.p.label.Sprint(label+":"), value)
}

func writeText(w io.Writer, doc *document, colored bool) error {
	t := &textWriter{w: w, p: newPalette(colored)}
	if len(doc.Signatures) == 0 {
		t.line(0, "No signatures found.")
		return t.err
	}
	for i, sig := range doc.Signatures {
		if i > 0 {
			t.line(0, "")
		}
		t.signature(sig)
	}
	t.line(0, "")
	s := doc.Summary
	t.line(0, "%s %d signature(s), %d decoded envelope(s), %d signer(s); timestamps: %d decoded, %d malformed, %d absent",
		t.p.header.Sprint("Summary:"), s.Signatures, s.DecodedEnvelopes, s.Signers,
		s.TimestampsDecoded, s.TimestampsMalformed, s.TimestampsAbsent)
	return t.err
}

func (t *textWriter) signature(sig signatureView) {
	title := fmt.Sprintf("Signature #%d", sig.Index+1)
	if sig.FieldName != "" {
		title += " (" + sig.FieldName + ")"
	}
	t.line(0, "%s", t.p.header.Sprint(title))
	optional := []struct{ label, value string }{
		{"Name", sig.Name},
		{"Reason", sig.Reason},
		{"Location", sig.Location},
		{"Contact", sig.ContactInfo},
		{"Filter", sig.Filter},
		{"SubFilter", sig.SubFilter},
	}
	for _, f := range optional {
		if f.value != "" {
			t.field(1, f.label, f.value)
		}
	}
	if sig.ClaimedTime != nil {
		t.field(1, "Claimed signing time", formatTime(*sig.ClaimedTime))
	}
	if len(sig.ByteRange) > 0 {
		t.field(1, "Byte range", sig.ByteRange)
	}
	t.field(1, "Size", fmt.Sprintf("%d bytes", sig.Size))
	if sig.Error != "" {
		t.field(1, "Error", t.p.malformed.Sprint(sig.Error))
		return
	}
	if env := sig.Envelope; env != nil {
		content := env.ContentType.Name
		if env.Detached {
			content += ", detached"
		}
		t.field(1, "Envelope", fmt.Sprintf("SignedData v%d (%s)", env.Version, content))
		t.field(1, "Certificates", len(env.Certificates))
		for _, cert := range env.Certificates {
			t.line(2, "- %s (issuer %s, serial %s)", cert.Subject, cert.Issuer, cert.SerialNumber)
		}
		if env.UnparsedCerts > 0 {
			t.field(2, "Unparsed certificates", env.UnparsedCerts)
		}
		if env.CRLs > 0 {
			t.field(1, "CRLs", env.CRLs)
		}
	}
	if sig.DocumentTimestamp != nil {
		t.timestamp(1, "Document timestamp", *sig.DocumentTimestamp)
	}
	for _, signer := range sig.Signers {
		t.signer(signer)
	}
}

func (t *textWriter) signer(s signerView) {
	t.line(1, "%s", t.p.header.Sprintf("Signer #%d", s.Index+1))
	t.field(2, "Identifier", s.Identifier)
	t.field(2, "Digest algorithm", algorithmText(s.DigestAlgorithm))
	t.field(2, "Signature algorithm", algorithmText(s.SignatureAlgorithm))
	if s.SignatureScheme != "" {
		t.field(2, "Signature scheme", s.SignatureScheme)
	}
	if s.Certificate != nil {
		t.field(2, "Certificate", s.Certificate.Subject)
	}
	if s.SigningTime != nil {
		t.field(2, "Signing time", formatTime(*s.SigningTime))
	}
	if s.SigningTimeError != "" {
		t.field(2, "Signing time error", t.p.malformed.Sprint(s.SigningTimeError))
	}
	if s.SignedAttributesError != "" {
		t.field(2, "Signed attributes", t.p.malformed.Sprint(s.SignedAttributesError))
	}
	if s.UnsignedAttributesError != "" {
		t.field(2, "Unsigned attributes", t.p.malformed.Sprint(s.UnsignedAttributesError))
	}
	if len(s.Attributes) > 0 {
		t.line(2, "%s", t.p.label.Sprint("Attributes:"))
		for _, attr := range s.Attributes {
			kind := "unsigned"
			if attr.Signed {
				kind = "signed"
			}
			name := attr.Name
			if name != attr.OID {
				name += " (" + attr.OID + ")"
			}
			t.line(3, "%-8s %s, %d value(s)", kind, name, attr.Count)
			for _, value := range attr.Values {
				t.line(4, "%s", value)
			}
		}
	}
	t.timestamp(2, "Timestamp", s.Timestamp)
}

func (t *textWriter) timestamp(indent int, label string, ts timestampView) {
	t.field(indent, label, t.p.state(ts.State))
	if ts.Error != "" {
		t.field(indent+1, "Error", ts.Error)
	}
	if ts.GenTime != nil {
		genTime := formatTime(*ts.GenTime)
		if ts.Accuracy != "" {
			genTime += " ±" + ts.Accuracy
		}
		t.field(indent+1, "Time", genTime)
		t.field(indent+1, "Serial number", ts.SerialNumber)
		t.field(indent+1, "Policy", ts.Policy)
		if ts.TSA != "" {
			t.field(indent+1, "TSA", ts.TSA)
		}
		if ts.Signer != nil {
			subject := ts.Signer.Subject
			if len(ts.Signer.ExtKeyUsage) > 0 {
				subject += " [" + strings.Join(ts.Signer.ExtKeyUsage, ", ") + "]"
			}
			t.field(indent+1, "TSA certificate", subject)
		}
		if ts.Nonce != "" {
			t.field(indent+1, "Nonce", ts.Nonce)
		}
		if ts.Ordering {
			t.field(indent+1, "Ordering", true)
		}
	}
	if ts.ImprintAlg != nil {
		imprint := algorithmText(*ts.ImprintAlg) + " " + ts.Imprint
		if ts.ImprintMatch != nil {
			if *ts.ImprintMatch {
				imprint += " " + t.p.decoded.Sprint("(matches signature)")
			} else {
				imprint += " " + t.p.malformed.Sprint("(does not match signature)")
			}
		}
		t.field(indent+1, "Message imprint", imprint)
	}
	if ts.Values > 1 {
		t.field(indent+1, "Additional values", ts.Values-1)
	}
}

func algorithmText(alg algorithmView) string {
	if alg.Name == "" || alg.Name == alg.OID {
		return alg.OID
	}
	return alg.Name + " (" + alg.OID + ")"
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
