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

package pdfsig

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pdfWriter writes minimal PDF files. Cross-reference tables are not
// valid, which the scanner does not rely on.
type pdfWriter struct {
	buf bytes.Buffer
}

func newPDF() *pdfWriter {
	w := &pdfWriter{}
	w.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return w
}

func (w *pdfWriter) object(number int, body string) *pdfWriter {
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", number, body)
	return w
}

func (w *pdfWriter) stream(number int, content []byte) *pdfWriter {
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< /Length %d >>\nstream\n", number, len(content))
	w.buf.Write(content)
	w.buf.WriteString("\nendstream\nendobj\n")
	return w
}

func (w *pdfWriter) trailer() *pdfWriter {
	w.buf.WriteString("xref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 20 /Root 1 0 R >>\nstartxref\n0\n%%EOF\n")
	return w
}

func (w *pdfWriter) bytes() []byte {
	return w.buf.Bytes()
}

// contents returns the /Contents hex string of an envelope reserved with
// zero padding.
func contents(envelope []byte, reserved int) string {
	padded := make([]byte, reserved)
	copy(padded, envelope)
	return "<" + hex.EncodeToString(padded) + ">"
}

func TestExtractNotPDF(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("hello"), append(bytes.Repeat([]byte{' '}, 2000), "%PDF-1.7"...)} {
		_, err := Extract(data)
		assert.ErrorIs(t, err, ErrNotPDF)
	}
}

func TestExtractNoSignatures(t *testing.T) {
	data := newPDF().
		object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		object(2, "<< /Type /Pages /Kids [] /Count 0 >>").
		trailer().bytes()
	sigs, err := Extract(data)
	require.NoError(t, err)
	assert.NotNil(t, sigs)
	assert.Empty(t, sigs)
}

func TestExtract(t *testing.T) {
	decoy := []byte("BT (fake) Tj ET\n9 0 obj << /ByteRange [0 1 2 3] /Contents <ff> >> endobj\n\x00\xff(")
	data := newPDF().
		object(1, "<< /Type /Catalog /AcroForm << /Fields [4 0 R 6 0 R] /SigFlags 3 >> >>").
		stream(2, decoy).
		object(3, "<< /T (form) /Kids [4 0 R] >>").
		object(4, "<< /FT /Sig /T (Signature1) /Parent 3 0 R /V 5 0 R /Subtype /Widget >>").
		object(5, "<< /Type /Sig /Filter /Adobe.PPKLite /SubFilter /adbe.pkcs7.detached "+
			"/ByteRange [0 100 200 300] /Contents <3003020101000000> "+
			"/Name (Alice) /Reason (Line\\nTwo \\(x\\) \\101) /Location <80> "+
			"/ContactInfo (alice@example.com) /M (D:20240101120000+01'00') >>").
		trailer().
		// incremental update
		object(6, "<< /FT /Sig /T <FEFF005A006F00EB> /V 7 0 R >>").
		object(7, "<< /Type /DocTimeStamp /SubFilter /ETSI.RFC3161 /ByteRange [0 10 20 30] /Contents <0400> "+
			"/Name <FEFF005A006F00EB> /M (D:20240102) >>").
		trailer().bytes()

	sigs, err := Extract(data)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	first := sigs[0]
	assert.Equal(t, []byte{0x30, 0x03, 0x02, 0x01, 0x01, 0x00, 0x00, 0x00}, first.Contents)
	assert.Equal(t, "Alice", first.Metadata.Name)
	assert.Equal(t, "Line\nTwo (x) A", first.Metadata.Reason)
	assert.Equal(t, "\u2022", first.Metadata.Location)
	assert.Equal(t, "alice@example.com", first.Metadata.ContactInfo)
	assert.Equal(t, "Adobe.PPKLite", first.Metadata.Filter)
	assert.Equal(t, "adbe.pkcs7.detached", first.Metadata.SubFilter)
	assert.Equal(t, "form.Signature1", first.Metadata.FieldName)
	assert.Equal(t, []int64{0, 100, 200, 300}, first.Metadata.ByteRange)
	require.NotNil(t, first.Metadata.SigningTime)
	assert.True(t, first.Metadata.SigningTime.Equal(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)))

	second := sigs[1]
	assert.Equal(t, []byte{0x04, 0x00}, second.Contents)
	assert.Equal(t, "Zo\u00eb", second.Metadata.Name)
	assert.Equal(t, "Zo\u00eb", second.Metadata.FieldName)
	assert.Equal(t, "ETSI.RFC3161", second.Metadata.SubFilter)
	require.NotNil(t, second.Metadata.SigningTime)
	assert.True(t, second.Metadata.SigningTime.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
}

func TestExtractRedefinedObject(t *testing.T) {
	data := newPDF().
		object(1, "<< /FT /Sig /T (old) /V 2 0 R >>").
		object(2, "<< /Type /Sig /ByteRange [0 1 2 3] /Contents <01> >>").
		trailer().
		object(1, "<< /FT /Sig /T (new) /V 2 0 R >>").
		trailer().bytes()

	sigs, err := Extract(data)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "new", sigs[0].Metadata.FieldName)
}

func TestExtractDirectSignatureDictionary(t *testing.T) {
	data := newPDF().
		object(1, "<< /FT /Sig /T (inline) /V << /Type /Sig /ByteRange [0 1 2 3] /Contents <02> /Reason (direct) >> >>").
		object(2, "<< /Type /Annot /ByteRange [0 1 2 3] /Contents (not a signature) >>").
		trailer().bytes()

	sigs, err := Extract(data)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "inline", sigs[0].Metadata.FieldName)
	assert.Equal(t, "direct", sigs[0].Metadata.Reason)
	assert.Equal(t, []byte{0x02}, sigs[0].Contents)
}

func TestExtractDamaged(t *testing.T) {
	full := newPDF().
		object(1, "<< /Type /Sig /ByteRange [0 1 2 3] /Contents <01> >>").
		object(2, "<< /Type /Sig /ByteRange [0 1 2 3] /Contents <02> >>").
		bytes()
	truncated := full[:bytes.LastIndex(full, []byte("/Contents"))]

	sigs, err := Extract(truncated)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, []byte{0x01}, sigs[0].Contents)

	garbage := newPDF().
		object(1, "<< /Type /Sig /ByteRange [0 1 2 3] /Contents <zz> >>").
		object(2, "<< /Key ( unterminated").
		bytes()
	assert.NotPanics(t, func() {
		_, err := Extract(garbage)
		assert.NoError(t, err)
	})

	deep := newPDF().object(1, string(bytes.Repeat([]byte("["), 10000))).bytes()
	assert.NotPanics(t, func() {
		_, err := Extract(deep)
		assert.NoError(t, err)
	})
}

func TestExtractAndInspect(t *testing.T) {
	signature := []byte("document signature value")
	token := testhelper.Must(testhelper.TimestampToken{}.Bytes())
	envelope := testhelper.Must(testhelper.SignedData{
		Certificates: [][]byte{testhelper.GetRSALeafCertificate().Cert.Raw},
		SignerInfos: []testhelper.SignerInfo{{
			Certificate:        testhelper.GetRSALeafCertificate().Cert,
			Signature:          signature,
			UnsignedAttributes: []testhelper.Attribute{testhelper.TimestampAttribute(token)},
		}},
	}.ContentInfo())

	data := newPDF().
		object(1, "<< /Type /Sig /SubFilter /adbe.pkcs7.detached /ByteRange [0 1 2 3] /Contents "+
			contents(envelope, len(envelope)+512)+" /Name (Bob) >>").
		trailer().bytes()

	sigs, err := Extract(data)
	require.NoError(t, err)
	report := inspect.BuildReport(sigs)
	require.Len(t, report.Entries, 1)

	entry := report.Entries[0]
	require.NoError(t, entry.Error)
	assert.Equal(t, "Bob", entry.Metadata.Name)
	assert.Equal(t, len(envelope)+512, entry.Size)
	require.Len(t, entry.Signers, 1)
	assert.Equal(t, inspect.TimestampDecoded, entry.Signers[0].Timestamp.State)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"D:20240101120000+01'00'", time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)},
		{"D:20240101120000-05'30", time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC)},
		{"D:20240101120000Z", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"D:20240101120000Z00'00'", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"D:20240101120000", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"D:202401011200", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"D:20240101", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"20240101120000+01'00'", time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	for _, input := range []string{"", "D:", "D:yesterday", "D:2024-01-01"} {
		_, err := ParseDate(input)
		assert.Error(t, err, input)
	}
}

func TestTextString(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"PDFDocEncoding", pdfString{value: []byte{'a', 0x92, 0xa0, 0xe9}}, "a\u2122\u20ac\u00e9"},
		{"UTF-16BE", pdfString{value: []byte{0xfe, 0xff, 0x00, 0x41, 0xd8, 0x3d, 0xde, 0x00}}, "A\U0001f600"},
		{"UTF-8", pdfString{value: append([]byte{0xef, 0xbb, 0xbf}, "caf\u00e9"...)}, "caf\u00e9"},
		{"not a string", name("Sig"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textString(tt.value))
		})
	}
}

func TestLexer(t *testing.T) {
	lex := &lexer{data: []byte("% comment\n<< /A#20B 12 0 R /C [1.5 -2 (a(b)c)] /D <41 1> >>")}
	p := &parser{lex: lex}
	v, err := p.value(0)
	require.NoError(t, err)

	d, ok := v.(*dictionary)
	require.True(t, ok)
	assert.Equal(t, reference{number: 12}, d.get("A B"))
	assert.Equal(t, array{1.5, int64(-2), pdfString{value: []byte("a(b)c")}}, d.get("C"))
	assert.Equal(t, pdfString{value: []byte{0x41, 0x10}, hex: true}, d.get("D"))
}

func TestLexerNameEscapeAtEnd(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{"/Adobe#2EPPKLite", "Adobe.PPKLite"},
		{"/Sig#41", "SigA"},
		{"/Sig#4", "Sig#4"},
		{"/Sig#", "Sig#"},
	}
	for _, tt := range tests {
		lex := &lexer{data: []byte(tt.data)}
		tok, err := lex.next()
		require.NoError(t, err, tt.data)
		assert.Equal(t, tokenName, tok.kind, tt.data)
		assert.Equal(t, tt.want, tok.text, tt.data)
		assert.Equal(t, len(tt.data), lex.pos, tt.data)
	}
}
