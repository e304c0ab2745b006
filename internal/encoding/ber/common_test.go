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

package ber

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   []byte
	}{
		{"length less than 128", 127, []byte{127}},
		{"length equal to 128", 128, []byte{0x81, 128}},
		{"length greater than 255", 300, []byte{0x82, 0x01, 0x2c}},
		{"length of three octets", 0x012345, []byte{0x83, 0x01, 0x23, 0x45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := encodeLength(buf, tt.length); err != nil {
				t.Fatalf("encodeLength() error = %v", err)
			}
			if got := buf.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("encodeLength() = %v, want %v", got, tt.want)
			}
			if got := encodedLengthSize(tt.length); got != len(tt.want) {
				t.Errorf("encodedLengthSize() = %v, want %v", got, len(tt.want))
			}
		})
	}
}

// errorWriter fails every write after the first n bytes.
type errorWriter struct {
	n int
}

func (w *errorWriter) Write(p []byte) (int, error) {
	if w.n < len(p) {
		return 0, errors.New("write error")
	}
	w.n -= len(p)
	return len(p), nil
}

func (w *errorWriter) WriteByte(c byte) error {
	if w.n < 1 {
		return errors.New("write error")
	}
	w.n--
	return nil
}

func TestEncodeMetadataFailed(t *testing.T) {
	long := &primitive{identifier: []byte{0x04}, content: make([]byte, 200)}
	str := newConstructed([]byte{tagConstructedOctetString}, false)
	str.members = []value{long}
	str.finish()
	seq := newConstructed([]byte{0x30}, false)
	seq.members = []value{long}
	seq.finish()

	for name, v := range map[string]value{
		"primitive":    long,
		"octet string": str,
		"sequence":     seq,
	} {
		for n := 0; n < 2; n++ {
			if err := v.EncodeMetadata(&errorWriter{n: n}); err == nil {
				t.Errorf("%s: EncodeMetadata() with %d writable bytes error = nil, want error", name, n)
			}
		}
		buf := &bytes.Buffer{}
		if err := v.EncodeMetadata(buf); err != nil {
			t.Fatalf("%s: EncodeMetadata() error = %v", name, err)
		}
		if got := buf.Len() + len(v.Content()); name != "sequence" && got != v.EncodedLen() {
			t.Errorf("%s: encoded %d bytes, EncodedLen() = %d", name, got, v.EncodedLen())
		}
	}
}
