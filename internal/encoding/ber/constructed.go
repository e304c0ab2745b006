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

// constructed represents a value in constructed.
//
// A constructed OCTET STRING is encoded in DER as a primitive OCTET STRING
// holding the concatenation of its segments.
type constructed struct {
	identifier []byte
	length     int // length of this constructed value's members in bytes when encoded in DER
	members    []value
	rawContent []byte // the raw content of BER not decoded yet
	indefinite bool   // the BER encoding uses the indefinite form of length

	octetString bool
	content     []byte // concatenated segments of a constructed OCTET STRING
}

func newConstructed(identifier []byte, indefinite bool) *constructed {
	return &constructed{
		identifier:  identifier,
		indefinite:  indefinite,
		octetString: len(identifier) == 1 && identifier[0] == tagConstructedOctetString,
	}
}

// finish is called once all members are decoded.
func (v *constructed) finish() {
	if v.octetString {
		content := []byte{}
		for _, m := range v.members {
			content = append(content, m.Content()...)
		}
		v.content = content
		v.length = len(content)
		return
	}
	for _, m := range v.members {
		v.length += m.EncodedLen()
	}
}

// EncodeMetadata encodes the identifier and length octets of constructed
// to the value writer in DER.
func (v *constructed) EncodeMetadata(w Writer) error {
	if v.octetString {
		if err := w.WriteByte(tagOctetString); err != nil {
			return err
		}
		return encodeLength(w, v.length)
	}
	if _, err := w.Write(v.identifier); err != nil {
		return err
	}
	return encodeLength(w, v.length)
}

// EncodedLen returns the length in bytes of the constructed when encoded
// in DER.
func (v *constructed) EncodedLen() int {
	if v.octetString {
		return 1 + encodedLengthSize(v.length) + v.length
	}
	return len(v.identifier) + encodedLengthSize(v.length) + v.length
}

// Content returns the flattened content of a constructed OCTET STRING, or
// nil for other constructed values.
func (v *constructed) Content() []byte {
	return v.content
}
