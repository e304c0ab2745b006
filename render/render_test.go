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
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/internal/testhelper"
)

var signatureValue = []byte("stamped signature value")

func testReport(t *testing.T) *inspect.Report {
	t.Helper()
	digest := sha256.Sum256(signatureValue)
	token, err := testhelper.TimestampToken{
		Info: testhelper.TSTInfo{
			HashedMessage: digest[:],
			SerialNumber:  big.NewInt(42),
			TSA:           testhelper.DirectoryName(pkix.Name{CommonName: "Example TSA"}),
		},
		Certificates: []*x509.Certificate{testhelper.GetTSACertificate().Cert},
	}.Bytes()
	require.NoError(t, err)

	leaf := testhelper.GetRSALeafCertificate().Cert
	contents, err := testhelper.SignedData{
		Certificates: [][]byte{leaf.Raw},
		SignerInfos: []testhelper.SignerInfo{
			{
				Certificate: leaf,
				Signature:   []byte("unstamped"),
				SignedAttributes: []testhelper.Attribute{
					testhelper.SigningTime(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)),
				},
			},
			{
				Certificate:        leaf,
				Signature:          signatureValue,
				UnsignedAttributes: []testhelper.Attribute{testhelper.TimestampAttribute(token)},
			},
			{
				Certificate:        leaf,
				Signature:          []byte("broken"),
				UnsignedAttributes: []testhelper.Attribute{testhelper.TimestampAttribute([]byte{0x30, 0x03, 0x02, 0x01, 0x01})},
			},
		},
	}.ContentInfo()
	require.NoError(t, err)

	return inspect.BuildReport([]inspect.Signature{
		{
			Metadata: inspect.Metadata{
				Name:      "Alice",
				Reason:    "approval",
				FieldName: "Signature1",
				SubFilter: "adbe.pkcs7.detached",
				ByteRange: []int64{0, 10, 20, 30},
			},
			Contents: contents,
		},
		{
			Metadata: inspect.Metadata{FieldName: "Signature2"},
			Contents: []byte{0x30, 0x05, 0x01},
		},
	})
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "JSON", " yaml ", "cbor"} {
		f, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(name)), string(f))
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "application/cbor", FormatCBOR.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}

func TestRenderUnsupportedFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, testReport(t), Format("xml"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatJSON, Options{}))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, inspect.Summary{
		Signatures:          2,
		DecodedEnvelopes:    1,
		Signers:             3,
		TimestampsDecoded:   1,
		TimestampsMalformed: 1,
		TimestampsAbsent:    1,
	}, doc.Summary)
	require.Len(t, doc.Signatures, 2)

	sig := doc.Signatures[0]
	assert.Equal(t, "Alice", sig.Name)
	assert.Equal(t, []int64{0, 10, 20, 30}, sig.ByteRange)
	require.NotNil(t, sig.Envelope)
	assert.Equal(t, "id-data", sig.Envelope.ContentType.Name)
	assert.True(t, sig.Envelope.Detached)
	require.Len(t, sig.Signers, 3)

	states := []string{sig.Signers[0].Timestamp.State, sig.Signers[1].Timestamp.State, sig.Signers[2].Timestamp.State}
	assert.Equal(t, []string{"absent", "decoded", "malformed"}, states)

	first := sig.Signers[0]
	assert.Equal(t, "SHA-256", first.DigestAlgorithm.Name)
	assert.Equal(t, "SHA256-RSA", first.SignatureScheme)
	assert.Contains(t, first.Identifier, "issuer=CN=Sigscope Test RSA Root")
	assert.Contains(t, first.Identifier, "serial=2")
	require.NotNil(t, first.SigningTime)
	assert.True(t, first.SigningTime.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)))
	require.NotEmpty(t, first.Attributes)
	assert.Nil(t, first.Attributes[0].Values)

	decoded := sig.Signers[1].Timestamp
	assert.Equal(t, "42", decoded.SerialNumber)
	assert.Equal(t, "CN=Example TSA", decoded.TSA)
	assert.Equal(t, "1.3.6.1.4.1.4146.2.3", decoded.Policy)
	require.NotNil(t, decoded.ImprintMatch)
	assert.True(t, *decoded.ImprintMatch)
	require.NotNil(t, decoded.Signer)
	assert.True(t, strings.HasPrefix(decoded.Signer.Subject, "CN=Sigscope Test TSA,"), decoded.Signer.Subject)

	assert.Equal(t, []string{"Timestamping"}, decoded.Signer.ExtKeyUsage)
	assert.False(t, decoded.Signer.IsCA)

	malformed := sig.Signers[2].Timestamp
	assert.NotEmpty(t, malformed.Error)
	assert.Nil(t, malformed.GenTime)

	broken := doc.Signatures[1]
	assert.NotEmpty(t, broken.Error)
	assert.Nil(t, broken.Envelope)
	assert.NotNil(t, broken.Signers)
	assert.Empty(t, broken.Signers)
}

func TestRenderValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatJSON, Options{Values: true}))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	attrs := doc.Signatures[0].Signers[2].Attributes
	require.Len(t, attrs, 1)
	assert.Equal(t, "signature-time-stamp-token", attrs[0].Name)
	assert.Equal(t, []string{"3003020101"}, attrs[0].Values)
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatYAML, Options{}))
	assert.Contains(t, buf.String(), "state: absent")
	assert.Contains(t, buf.String(), "state: decoded")
	assert.Contains(t, buf.String(), "state: malformed")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	summary, ok := doc["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, summary["signers"])
}

func TestRenderCBOR(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatCBOR, Options{}))

	var doc document
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Summary.Signatures)
	require.Len(t, doc.Signatures, 2)
	require.Len(t, doc.Signatures[0].Signers, 3)
	assert.Equal(t, "decoded", doc.Signatures[0].Signers[1].Timestamp.State)
	require.NotNil(t, doc.Signatures[0].Signers[1].Timestamp.GenTime)
	assert.True(t, doc.Signatures[0].Signers[1].Timestamp.GenTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatText, Options{}))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Signature #1 (Signature1)")
	assert.Contains(t, out, "Reason: approval")
	assert.Contains(t, out, "Signer #3")
	assert.Contains(t, out, "Timestamp: absent")
	assert.Contains(t, out, "Timestamp: decoded")
	assert.Contains(t, out, "Timestamp: malformed")
	assert.Contains(t, out, "TSA: CN=Example TSA")
	assert.Contains(t, out, "(matches signature)")
	assert.Contains(t, out, "[Timestamping]")
	assert.Contains(t, out, "Signature #2 (Signature2)")
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "timestamps: 1 decoded, 1 malformed, 1 absent")
}

func TestRenderTextColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testReport(t), FormatText, Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestEKUToString(t *testing.T) {
	assert.Equal(t, "Timestamping", ekuToString(x509.ExtKeyUsageTimeStamping))
	assert.Equal(t, "CodeSigning", ekuToString(x509.ExtKeyUsageCodeSigning))
	assert.Equal(t, "99", ekuToString(x509.ExtKeyUsage(99)))
}

func TestRenderEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, FormatText, Options{}))
	assert.Equal(t, "No signatures found.\n", buf.String())

	buf.Reset()
	require.NoError(t, Render(&buf, &inspect.Report{Entries: []inspect.Entry{}}, FormatJSON, Options{}))
	assert.Contains(t, buf.String(), `"signatures": []`)
}
