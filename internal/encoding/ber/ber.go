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

// Package ber decodes BER-encoded ASN.1 data structures and encodes in DER.
// Note:
//   - DER is a subset of BER.
//   - Both definite and indefinite lengths are accepted.
//   - Constructed OCTET STRINGs are flattened into a single primitive value.
//   - Zero octets after the outermost value are ignored, as they are left
//     behind by fixed-size signature placeholders.
//   - The length of the encoded data must fit the memory space of the int type
//     (4 bytes).
//
// Reference:
// - http://luca.ntop.org/Teaching/Appunti/asn1.html
// - ISO/IEC 8825-1:2021
package ber

import (
	"bytes"
	"encoding/asn1"
	"fmt"
)

// Common errors
var (
	ErrEmpty                = asn1.SyntaxError{Msg: "decoding BER: input is empty"}
	ErrTrailingData         = asn1.SyntaxError{Msg: "decoding BER: non-zero trailing data"}
	ErrMissingEndOfContents = asn1.SyntaxError{Msg: "decoding BER: indefinite length value without end-of-contents octets"}
)

const (
	tagOctetString            = 0x04
	tagConstructedOctetString = 0x24
)

// value is the interface for an ASN.1 value node.
type value interface {
	// EncodeMetadata encodes the identifier and length in DER to the buffer.
	EncodeMetadata(Writer) error

	// EncodedLen returns the length in bytes of the data when encoding in DER.
	EncodedLen() int

	// Content returns the content of the value.
	// For primitive values and flattened strings, it returns the content
	// octets.
	// For other constructed values, it returns nil because the content is
	// the data of all members.
	Content() []byte
}

// ConvertToDER converts BER-encoded ASN.1 data structures to DER-encoded.
func ConvertToDER(ber []byte) ([]byte, error) {
	if len(ber) == 0 {
		return nil, ErrEmpty
	}

	flatValues, err := decode(ber)
	if err != nil {
		return nil, err
	}

	// get the total length from the root value and allocate a buffer
	buf := bytes.NewBuffer(make([]byte, 0, flatValues[0].EncodedLen()))
	for _, v := range flatValues {
		if err = v.EncodeMetadata(buf); err != nil {
			return nil, err
		}

		if content := v.Content(); content != nil {
			if _, err = buf.Write(content); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// decode decodes BER-encoded ASN.1 data structures.
// To get the DER of `r`, encode the values
// in the returned slice in order.
//
// Parameters:
// r - The input byte slice.
//
// Return:
// []value - The returned value, which is the flat slice of ASN.1 values,
// contains the nodes from a depth-first traversal.
// error - An error that can occur during the decoding process.
//
// Reference: ISO/IEC 8825-1: 8.1.1.3
func decode(r []byte) ([]value, error) {
	// prepare the first value
	identifier, contentLen, indefinite, r, err := decodeMetadata(r)
	if err != nil {
		return nil, err
	}

	// primitive value
	if isPrimitive(identifier) {
		if indefinite {
			return nil, asn1.StructuralError{Msg: "decoding BER: primitive value with indefinite length"}
		}
		if err := checkPadding(r[contentLen:]); err != nil {
			return nil, err
		}
		return []value{&primitive{
			identifier: identifier,
			content:    r[:contentLen],
		}}, nil
	}

	// constructed value
	root := newConstructed(identifier, indefinite)
	var trailing []byte
	if indefinite {
		root.rawContent = r
	} else {
		root.rawContent = r[:contentLen]
		trailing = r[contentLen:]
	}
	flatValues := []value{root}

	// start depth-first decoding with stack
	stack := []*constructed{root}
	for len(stack) > 0 {
		// top
		node := stack[len(stack)-1]

		if node.indefinite {
			if len(node.rawContent) == 0 {
				return nil, ErrMissingEndOfContents
			}
			if isEndOfContents(node.rawContent) {
				// the octets after the end-of-contents marker belong to
				// the enclosing value
				rest := node.rawContent[2:]
				node.finish()
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					trailing = rest
				} else {
					stack[len(stack)-1].rawContent = rest
				}
				continue
			}
		} else if len(node.rawContent) == 0 {
			// the constructed value is fully decoded
			node.finish()
			stack = stack[:len(stack)-1]
			continue
		}

		// decode the next member of the constructed value
		memberIdentifier, memberLen, memberIndefinite, remaining, err := decodeMetadata(node.rawContent)
		if err != nil {
			return nil, err
		}
		if node.octetString && !isOctetStringSegment(memberIdentifier) {
			return nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER: constructed OCTET STRING contains a member with identifier %x", memberIdentifier)}
		}

		var member value
		if isPrimitive(memberIdentifier) {
			if memberIndefinite {
				return nil, asn1.StructuralError{Msg: "decoding BER: primitive value with indefinite length"}
			}
			member = &primitive{
				identifier: memberIdentifier,
				content:    remaining[:memberLen],
			}
			node.rawContent = remaining[memberLen:]
		} else {
			child := newConstructed(memberIdentifier, memberIndefinite)
			if memberIndefinite {
				// the extent of the child is only known once its
				// end-of-contents octets are found
				child.rawContent = remaining
				node.rawContent = nil
			} else {
				child.rawContent = remaining[:memberLen]
				node.rawContent = remaining[memberLen:]
			}
			member = child

			// add a new constructed node to the stack
			stack = append(stack, child)
		}
		node.members = append(node.members, member)

		// segments of a constructed OCTET STRING are emitted as part of
		// the flattened string, not as values of their own
		if !node.octetString {
			flatValues = append(flatValues, member)
		}
	}

	if err := checkPadding(trailing); err != nil {
		return nil, err
	}
	return flatValues, nil
}

// decodeMetadata decodes the metadata of a BER-encoded ASN.1 value.
//
// Parameters:
// r - The input byte slice.
//
// Return:
// []byte - The identifier octets.
// int - The length octets value. Zero for the indefinite form.
// bool - Whether the indefinite form of length is used.
// []byte - The subsequent octets after the length octets.
// error - An error that can occur during the decoding process.
//
// Reference: ISO/IEC 8825-1: 8.1.1.3
func decodeMetadata(r []byte) ([]byte, int, bool, []byte, error) {
	// structure of an encoding (primitive or constructed)
	// +----------------+----------------+----------------+
	// | identifier     | length         | content        |
	// +----------------+----------------+----------------+
	identifier, r, err := decodeIdentifier(r)
	if err != nil {
		return nil, 0, false, nil, err
	}

	contentLen, indefinite, r, err := decodeLength(r)
	if err != nil {
		return nil, 0, false, nil, err
	}

	return identifier, contentLen, indefinite, r, nil
}

// decodeIdentifier decodes identifier octets.
//
// Parameters:
// r - The input byte slice from which the identifier octets are to be decoded.
//
// Returns:
// []byte - The identifier octets decoded from the input byte slice.
// []byte - The remaining part of the input byte slice after the identifier octets.
// error - An error that can occur during the decoding process.
//
// Reference: ISO/IEC 8825-1: 8.1.2
func decodeIdentifier(r []byte) ([]byte, []byte, error) {
	if len(r) < 1 {
		return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: identifier octets is empty"}
	}
	if r[0] == 0 {
		// universal tag 0 is reserved for end-of-contents octets
		return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: unexpected end-of-contents octets"}
	}
	offset := 0
	b := r[offset]
	offset++

	// high-tag-number form
	// Reference: ISO/IEC 8825-1: 8.1.2.4
	if b&0x1f == 0x1f {
		for offset < len(r) && r[offset]&0x80 == 0x80 {
			offset++
		}
		if offset >= len(r) {
			return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: high-tag-number form with early EOF"}
		}
		offset++
	}

	if offset >= len(r) {
		return nil, nil, asn1.SyntaxError{Msg: "decoding BER identifier octets: early EOF due to missing length and content octets"}
	}
	return r[:offset], r[offset:], nil
}

// decodeLength decodes length octets.
//
// Parameters:
// r - The input byte slice from which the length octets are to be decoded.
//
// Returns:
// int - The length decoded from the input byte slice.
// bool - Whether the indefinite form is used.
// []byte - The remaining part of the input byte slice after the length octets.
// error - An error that can occur during the decoding process.
//
// Reference: ISO/IEC 8825-1: 8.1.3
func decodeLength(r []byte) (int, bool, []byte, error) {
	if len(r) < 1 {
		return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: length octets is empty"}
	}
	offset := 0
	b := r[offset]
	offset++

	if b < 0x80 {
		// short form
		// Reference: ISO/IEC 8825-1: 8.1.3.4
		contentLen := int(b)
		subsequentOctets := r[offset:]
		if contentLen > len(subsequentOctets) {
			return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: short form length octets value should be less or equal to the subsequent octets length"}
		}
		return contentLen, false, subsequentOctets, nil
	} else if b == 0x80 {
		// indefinite form
		// Reference: ISO/IEC 8825-1: 8.1.3.6
		return 0, true, r[offset:], nil
	}

	// long form
	// Reference: ISO/IEC 8825-1: 8.1.3.5
	n := int(b & 0x7f)
	if n > 4 {
		// length must fit the memory space of the int type (4 bytes).
		return 0, false, nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER length octets: length of encoded data (%d bytes) cannot exceed 4 bytes", n)}
	}
	if offset+n >= len(r) {
		return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: long form length octets with early EOF"}
	}
	var length uint64
	for i := 0; i < n; i++ {
		length = (length << 8) | uint64(r[offset])
		offset++
	}

	// length must fit the memory space of the int32.
	if (length >> 31) > 0 {
		return 0, false, nil, asn1.StructuralError{Msg: fmt.Sprintf("decoding BER length octets: length %d does not fit the memory space of int32", length)}
	}

	contentLen := int(length)
	subsequentOctets := r[offset:]
	if contentLen > len(subsequentOctets) {
		return 0, false, nil, asn1.SyntaxError{Msg: "decoding BER length octets: long form length octets value should be less or equal to the subsequent octets length"}
	}
	return contentLen, false, subsequentOctets, nil
}

// isPrimitive returns true if the first identifier octet is marked
// as primitive.
// Reference: ISO/IEC 8825-1: 8.1.2.5
func isPrimitive(identifier []byte) bool {
	return identifier[0]&0x20 == 0
}

// isEndOfContents reports whether r starts with end-of-contents octets.
// Reference: ISO/IEC 8825-1: 8.1.5
func isEndOfContents(r []byte) bool {
	return len(r) >= 2 && r[0] == 0 && r[1] == 0
}

// isOctetStringSegment reports whether the identifier is a valid segment of
// a constructed OCTET STRING.
// Reference: ISO/IEC 8825-1: 8.7.3.2
func isOctetStringSegment(identifier []byte) bool {
	return len(identifier) == 1 &&
		(identifier[0] == tagOctetString || identifier[0] == tagConstructedOctetString)
}

// checkPadding verifies that the octets following the outermost value are
// all zero.
func checkPadding(trailing []byte) error {
	for _, b := range trailing {
		if b != 0 {
			return ErrTrailingData
		}
	}
	return nil
}
