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
	"encoding/asn1"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/notaryproject/sigscope/internal/testhelper"
	"github.com/notaryproject/sigscope/oid"
)

// toIndefinite re-encodes the outermost SEQUENCE of der with the indefinite
// length form.
func toIndefinite(der []byte) []byte {
	header := 2
	if der[1] >= 0x80 {
		header += int(der[1] & 0x7f)
	}
	ber := []byte{der[0], 0x80}
	ber = append(ber, der[header:]...)
	return append(ber, 0x00, 0x00)
}

func testSignedData(t *testing.T) testhelper.SignedData {
	t.Helper()
	rsaRoot := testhelper.GetRSARootCertificate()
	rsaLeaf := testhelper.GetRSALeafCertificate()
	ecLeaf := testhelper.GetECLeafCertificate()
	return testhelper.SignedData{
		Content: []byte("hello world"),
		Certificates: [][]byte{
			rsaLeaf.Cert.Raw,
			rsaRoot.Cert.Raw,
			ecLeaf.Cert.Raw,
		},
		SignerInfos: []testhelper.SignerInfo{
			{
				Certificate: rsaLeaf.Cert,
				Signature:   []byte("signature 0"),
			},
			{
				SubjectKeyID:       ecLeaf.Cert.SubjectKeyId,
				DigestAlgorithm:    oid.SHA384,
				SignatureAlgorithm: oid.ECDSAWithSHA384,
				Signature:          []byte("signature 1"),
			},
		},
	}
}

func TestDecodeSignedData(t *testing.T) {
	fixture := testSignedData(t)
	data := testhelper.Must(fixture.ContentInfo())

	signed, err := DecodeSignedData(data)
	if err != nil {
		t.Fatalf("DecodeSignedData() error = %v", err)
	}
	if signed.Version != 1 {
		t.Errorf("Version = %d, want 1", signed.Version)
	}
	if !signed.ContentType.Equal(oid.Data) {
		t.Errorf("ContentType = %v, want %v", signed.ContentType, oid.Data)
	}
	if !bytes.Equal(signed.Content, []byte("hello world")) {
		t.Errorf("Content = %q, want %q", signed.Content, "hello world")
	}
	if got := len(signed.DigestAlgorithms); got != 2 {
		t.Errorf("len(DigestAlgorithms) = %d, want 2", got)
	}
	if got := len(signed.Certificates); got != 3 {
		t.Fatalf("len(Certificates) = %d, want 3", got)
	}
	for i, raw := range fixture.Certificates {
		if !bytes.Equal(signed.Certificates[i].Raw, raw) {
			t.Errorf("Certificates[%d] is out of order", i)
		}
		if !bytes.Equal(signed.RawCertificates[i], raw) {
			t.Errorf("RawCertificates[%d] is out of order", i)
		}
	}
	if got := len(signed.SignerInfos); got != 2 {
		t.Fatalf("len(SignerInfos) = %d, want 2", got)
	}

	first := signed.SignerInfos[0]
	if first.Version != 1 {
		t.Errorf("SignerInfos[0].Version = %d, want 1", first.Version)
	}
	if first.SignerIdentifier.IssuerAndSerialNumber == nil {
		t.Fatal("SignerInfos[0] is not identified by issuer and serial number")
	}
	if got := signed.SignerCertificate(&first); got != signed.Certificates[0] {
		t.Errorf("SignerCertificate(SignerInfos[0]) = %v, want the RSA leaf", got)
	}
	if !first.DigestAlgorithm.Algorithm.Equal(oid.SHA256) {
		t.Errorf("SignerInfos[0].DigestAlgorithm = %v, want %v", first.DigestAlgorithm.Algorithm, oid.SHA256)
	}

	second := signed.SignerInfos[1]
	if second.Version != 3 {
		t.Errorf("SignerInfos[1].Version = %d, want 3", second.Version)
	}
	if !bytes.Equal(second.SignerIdentifier.SubjectKeyIdentifier, testhelper.GetECLeafCertificate().Cert.SubjectKeyId) {
		t.Errorf("SignerInfos[1].SubjectKeyIdentifier = %x", second.SignerIdentifier.SubjectKeyIdentifier)
	}
	if got := signed.SignerCertificate(&second); got != signed.Certificates[2] {
		t.Errorf("SignerCertificate(SignerInfos[1]) = %v, want the EC leaf", got)
	}
	if !bytes.Equal(second.Signature, []byte("signature 1")) {
		t.Errorf("SignerInfos[1].Signature = %q", second.Signature)
	}
	if !second.SignatureAlgorithm.Algorithm.Equal(oid.ECDSAWithSHA384) {
		t.Errorf("SignerInfos[1].SignatureAlgorithm = %v", second.SignatureAlgorithm.Algorithm)
	}
	if first.RawSignedAttributes != nil || first.RawUnsignedAttributes != nil {
		t.Error("absent attribute sets should be nil")
	}
}

func TestDecodeSignedDataBare(t *testing.T) {
	fixture := testSignedData(t)
	wrapped, err := DecodeSignedData(testhelper.Must(fixture.ContentInfo()))
	if err != nil {
		t.Fatalf("DecodeSignedData() error = %v", err)
	}
	bare, err := DecodeSignedData(testhelper.Must(fixture.Bytes()))
	if err != nil {
		t.Fatalf("DecodeSignedData() of bare signed data error = %v", err)
	}
	if !reflect.DeepEqual(bare.SignerInfos, wrapped.SignerInfos) {
		t.Errorf("bare SignerInfos = %v, want %v", bare.SignerInfos, wrapped.SignerInfos)
	}
	if !reflect.DeepEqual(bare.RawCertificates, wrapped.RawCertificates) {
		t.Error("bare RawCertificates differ from the wrapped ones")
	}
}

func TestDecodeSignedDataSignerOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d signers", n), func(t *testing.T) {
			var fixture testhelper.SignedData
			for i := 0; i < n; i++ {
				// descending signature values so that a sorted SET would
				// reverse the order
				fixture.SignerInfos = append(fixture.SignerInfos, testhelper.SignerInfo{
					Signature: []byte{byte(0xff - i)},
				})
			}
			signed, err := DecodeSignedData(testhelper.Must(fixture.ContentInfo()))
			if err != nil {
				t.Fatalf("DecodeSignedData() error = %v", err)
			}
			if signed.SignerInfos == nil {
				t.Fatal("SignerInfos = nil, want empty slice")
			}
			if got := len(signed.SignerInfos); got != n {
				t.Fatalf("len(SignerInfos) = %d, want %d", got, n)
			}
			for i, si := range signed.SignerInfos {
				if !bytes.Equal(si.Signature, []byte{byte(0xff - i)}) {
					t.Errorf("SignerInfos[%d].Signature = %x, want %x", i, si.Signature, 0xff-i)
				}
			}
		})
	}
}

func TestDecodeSignedDataBER(t *testing.T) {
	der := testhelper.Must(testSignedData(t).ContentInfo())
	want, err := DecodeSignedData(der)
	if err != nil {
		t.Fatalf("DecodeSignedData() error = %v", err)
	}

	tests := map[string][]byte{
		"indefinite length":                   toIndefinite(der),
		"zero padding":                        append(append([]byte{}, der...), make([]byte, 512)...),
		"indefinite length with zero padding": append(toIndefinite(der), make([]byte, 7)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeSignedData(data)
			if err != nil {
				t.Fatalf("DecodeSignedData() error = %v", err)
			}
			if !reflect.DeepEqual(got.SignerInfos, want.SignerInfos) {
				t.Errorf("SignerInfos = %v, want %v", got.SignerInfos, want.SignerInfos)
			}
			if !reflect.DeepEqual(got.RawCertificates, want.RawCertificates) {
				t.Error("RawCertificates differ from the DER form")
			}
			if !bytes.Equal(got.Content, want.Content) {
				t.Errorf("Content = %q, want %q", got.Content, want.Content)
			}
		})
	}
}

func TestDecodeSignedDataDetached(t *testing.T) {
	fixture := testhelper.SignedData{
		SignerInfos: []testhelper.SignerInfo{{}},
	}
	signed, err := DecodeSignedData(testhelper.Must(fixture.ContentInfo()))
	if err != nil {
		t.Fatalf("DecodeSignedData() error = %v", err)
	}
	if signed.Content != nil {
		t.Errorf("Content = %x, want nil", signed.Content)
	}
	if signed.Certificates != nil || signed.RawCertificates != nil {
		t.Error("certificates should be nil when the certificate set is absent")
	}
	if got := signed.SignerCertificate(&signed.SignerInfos[0]); got != nil {
		t.Errorf("SignerCertificate() = %v, want nil", got)
	}
}

func TestDecodeSignedDataOtherCertificateFormats(t *testing.T) {
	leaf := testhelper.GetRSALeafCertificate().Cert
	// [1] IMPLICIT AttributeCertificateV1, kept raw only
	other := []byte{0xa1, 0x03, 0x02, 0x01, 0x01}
	fixture := testhelper.SignedData{
		Certificates: [][]byte{other, leaf.Raw},
		CRLs:         [][]byte{{0x30, 0x00}, {0x30, 0x00}},
	}
	signed, err := DecodeSignedData(testhelper.Must(fixture.ContentInfo()))
	if err != nil {
		t.Fatalf("DecodeSignedData() error = %v", err)
	}
	if got := len(signed.RawCertificates); got != 2 {
		t.Fatalf("len(RawCertificates) = %d, want 2", got)
	}
	if !bytes.Equal(signed.RawCertificates[0], other) {
		t.Errorf("RawCertificates[0] = %x, want %x", signed.RawCertificates[0], other)
	}
	if got := len(signed.Certificates); got != 1 {
		t.Fatalf("len(Certificates) = %d, want 1", got)
	}
	if signed.CRLCount != 2 {
		t.Errorf("CRLCount = %d, want 2", signed.CRLCount)
	}
}

func TestDecodeSignedDataErrors(t *testing.T) {
	dataContentInfo := testhelper.Must(testhelper.ContentInfo(oid.Data, testhelper.Must(asn1.Marshal([]byte("data")))))
	signedData := testhelper.Must(testSignedData(t).ContentInfo())

	tests := []struct {
		name    string
		data    []byte
		opts    []DecodeOption
		wantErr error
	}{
		{"nil", nil, nil, ErrMalformed},
		{"invalid BER", []byte("invalid"), nil, ErrMalformed},
		{"not a sequence", []byte{0x04, 0x01, 0x00}, nil, ErrMalformed},
		{"sequence of other content", []byte{0x30, 0x03, 0x04, 0x01, 0x00}, nil, ErrMalformed},
		{"unexpected content type", dataContentInfo, nil, ErrUnexpectedContentType},
		{"truncated", signedData[:len(signedData)-10], nil, ErrMalformed},
		{"too large", signedData, []DecodeOption{WithMaxSize(len(signedData) - 1)}, ErrTooLarge},
		{"too large garbage", []byte("invalid input"), []DecodeOption{WithMaxSize(4)}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSignedData(tt.data, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeSignedData() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unexpected content type is not malformed", func(t *testing.T) {
		_, err := DecodeSignedData(dataContentInfo)
		if errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeSignedData() error = %v, should not be malformed", err)
		}
	})

	t.Run("size limit not reached", func(t *testing.T) {
		if _, err := DecodeSignedData(signedData, WithMaxSize(len(signedData))); err != nil {
			t.Errorf("DecodeSignedData() error = %v", err)
		}
	})
}
