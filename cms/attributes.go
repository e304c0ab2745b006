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
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Attribute is a decoded attribute with the exact encoding of each value.
//
// Reference: RFC 5652 5.3 SignerInfo
//
//	Attribute ::= SEQUENCE {
//	  attrType    OBJECT IDENTIFIER,
//	  attrValues  SET OF AttributeValue }
type Attribute struct {
	// Type is the attribute type.
	Type asn1.ObjectIdentifier

	// OID is Type in dotted notation.
	OID string

	// Values holds the encoded AttributeValue elements in encoding order.
	// For sets taken from a decoded SignedData these are the DER bytes of
	// the converted envelope, so values of a BER envelope are normalized.
	Values [][]byte
}

// AttributeTable is an ordered collection of attributes keyed by OID.
// Values of repeated attributes with the same type are merged in encoding
// order. An AttributeTable is read-only after decoding.
type AttributeTable struct {
	attrs []Attribute
	index map[string]int
}

// DecodeAttributes decodes a signed or unsigned attribute set. The input
// is either the [0] / [1] IMPLICIT tagged set taken from a SignerInfo, or a
// universal SET OF Attribute.
//
// A nil input means the set is absent, and a nil table is returned without
// error. Value bytes are kept exactly as they appear in raw; the raw sets of
// a SignerInfo returned by DecodeSignedData are already in DER.
func DecodeAttributes(raw []byte) (*AttributeTable, error) {
	if raw == nil {
		return nil, nil
	}

	input := cryptobyte.String(raw)
	var set cryptobyte.String
	var tag cryptobyte_asn1.Tag
	if !input.ReadAnyASN1(&set, &tag) {
		return nil, malformed(nil, "invalid attribute set encoding")
	}
	if !input.Empty() {
		return nil, malformed(nil, "trailing data after attribute set")
	}
	switch tag {
	case cryptobyte_asn1.SET,
		cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(),
		cryptobyte_asn1.Tag(1).ContextSpecific().Constructed():
	default:
		return nil, malformed(nil, "unexpected attribute set tag 0x%x", uint8(tag))
	}

	table := &AttributeTable{
		index: make(map[string]int),
	}
	for i := 0; !set.Empty(); i++ {
		var attr cryptobyte.String
		if !set.ReadASN1(&attr, cryptobyte_asn1.SEQUENCE) {
			return nil, malformed(nil, "attribute %d is not a SEQUENCE", i)
		}
		var attrType asn1.ObjectIdentifier
		if !attr.ReadASN1ObjectIdentifier(&attrType) {
			return nil, malformed(nil, "attribute %d has an invalid type", i)
		}
		var values cryptobyte.String
		if !attr.ReadASN1(&values, cryptobyte_asn1.SET) || !attr.Empty() {
			return nil, malformed(nil, "attribute %s has invalid values", attrType)
		}

		var decoded [][]byte
		for !values.Empty() {
			var value cryptobyte.String
			if !values.ReadAnyASN1Element(&value, nil) {
				return nil, malformed(nil, "attribute %s has an invalid value", attrType)
			}
			decoded = append(decoded, []byte(value))
		}
		table.add(attrType, decoded)
	}
	return table, nil
}

func (t *AttributeTable) add(attrType asn1.ObjectIdentifier, values [][]byte) {
	key := attrType.String()
	if i, ok := t.index[key]; ok {
		t.attrs[i].Values = append(t.attrs[i].Values, values...)
		return
	}
	if values == nil {
		values = [][]byte{}
	}
	t.index[key] = len(t.attrs)
	t.attrs = append(t.attrs, Attribute{
		Type:   attrType,
		OID:    key,
		Values: values,
	})
}

// Get returns the encoded values of the attribute with the dotted OID, or
// nil if the attribute is absent.
func (t *AttributeTable) Get(oid string) [][]byte {
	if t == nil {
		return nil
	}
	i, ok := t.index[oid]
	if !ok {
		return nil
	}
	return t.attrs[i].Values
}

// Has reports whether the attribute with the dotted OID is present.
func (t *AttributeTable) Has(oid string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[oid]
	return ok
}

// OIDs returns the dotted OIDs of the attributes in encoding order.
func (t *AttributeTable) OIDs() []string {
	if t == nil {
		return nil
	}
	oids := make([]string, len(t.attrs))
	for i, attr := range t.attrs {
		oids[i] = attr.OID
	}
	return oids
}

// Len returns the number of distinct attribute types.
func (t *AttributeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.attrs)
}

// Attributes returns the attributes in encoding order.
func (t *AttributeTable) Attributes() []Attribute {
	if t == nil {
		return nil
	}
	return t.attrs
}

// Encode encodes the table as a SET OF Attribute. Attributes and values are
// written in table order and each value is written unchanged.
func (t *AttributeTable) Encode() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
		for _, attr := range t.Attributes() {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(attr.Type)
				b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
					for _, value := range attr.Values {
						b.AddBytes(value)
					}
				})
			})
		}
	})
	encoded, err := b.Bytes()
	if err != nil {
		return nil, malformed(err, "failed to encode attribute set")
	}
	return encoded, nil
}
