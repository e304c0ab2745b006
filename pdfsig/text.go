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
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	utf16BOM = []byte{0xfe, 0xff}
	utf8BOM  = []byte{0xef, 0xbb, 0xbf}
)

// pdfDocEncoding maps the PDFDocEncoding code points that differ from
// ISO-8859-1.
//
// Reference: ISO 32000-1 Annex D.2
var pdfDocEncoding = map[byte]rune{
	0x18: '\u02d8', 0x19: '\u02c7', 0x1a: '\u02c6', 0x1b: '\u02d9',
	0x1c: '\u02dd', 0x1d: '\u02db', 0x1e: '\u02da', 0x1f: '\u02dc',
	0x80: '\u2022', 0x81: '\u2020', 0x82: '\u2021', 0x83: '\u2026',
	0x84: '\u2014', 0x85: '\u2013', 0x86: '\u0192', 0x87: '\u2044',
	0x88: '\u2039', 0x89: '\u203a', 0x8a: '\u2212', 0x8b: '\u2030',
	0x8c: '\u201e', 0x8d: '\u201c', 0x8e: '\u201d', 0x8f: '\u2018',
	0x90: '\u2019', 0x91: '\u201a', 0x92: '\u2122', 0x93: '\ufb01',
	0x94: '\ufb02', 0x95: '\u0141', 0x96: '\u0152', 0x97: '\u0160',
	0x98: '\u0178', 0x99: '\u017d', 0x9a: '\u0131', 0x9b: '\u0142',
	0x9c: '\u0153', 0x9d: '\u0161', 0x9e: '\u017e', 0x9f: utf8.RuneError,
	0xa0: '\u20ac', 0xad: utf8.RuneError,
}

// textString decodes a PDF text string. Values that are not strings
// decode to the empty string.
//
// Reference: ISO 32000-1 7.9.2.2 Text String Type
func textString(v any) string {
	s, ok := v.(pdfString)
	if !ok {
		return ""
	}
	b := s.value
	switch {
	case bytes.HasPrefix(b, utf16BOM):
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(decoded)
		}
	case bytes.HasPrefix(b, utf8BOM):
		return string(b[len(utf8BOM):])
	}

	runes := make([]rune, 0, len(b))
	for _, c := range b {
		if r, ok := pdfDocEncoding[c]; ok {
			runes = append(runes, r)
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
