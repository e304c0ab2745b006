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

// Package pdfsig extracts signature dictionaries from PDF documents.
//
// The document is scanned for indirect objects rather than parsed through
// its cross-reference table, so that damaged files and incremental updates
// are handled alike. Objects inside compressed object streams are not
// examined; signature dictionaries are never stored there because their
// /Contents must be addressable by byte offset.
package pdfsig

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/notaryproject/sigscope/inspect"
)

// ErrNotPDF is returned when the input has no PDF header.
var ErrNotPDF = errors.New("pdfsig: input is not a PDF document")

// headerWindow is how far into the file the header is searched for.
const headerWindow = 1024

var pdfHeader = []byte("%PDF-")

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	return bytes.Contains(window, pdfHeader)
}

// Extract returns the signatures of a PDF document in document order.
// Malformed objects are skipped, so an error is returned only when data is
// not a PDF document.
func Extract(data []byte) ([]inspect.Signature, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	// later definitions of an object number replace earlier ones, as in
	// incremental updates
	objects := make(map[int64]indirectObject)
	for _, obj := range scanObjects(data) {
		objects[obj.number] = obj
	}
	resolve := func(v any) any {
		if ref, ok := v.(reference); ok {
			return objects[ref.number].value
		}
		return v
	}

	var sigDicts []*dictionary
	seen := make(map[*dictionary]bool)
	fieldNames := make(map[*dictionary]string)
	for _, obj := range objects {
		walk(obj.value, 0, func(d *dictionary) {
			if isSignatureDictionary(d) && !seen[d] {
				seen[d] = true
				sigDicts = append(sigDicts, d)
			}
			if d.name("FT") != "Sig" && d.get("T") == nil {
				return
			}
			if sig, ok := resolve(d.get("V")).(*dictionary); ok && isSignatureDictionary(sig) {
				fieldNames[sig] = qualifiedName(d, resolve)
			}
		})
	}
	sort.Slice(sigDicts, func(i, j int) bool {
		return sigDicts[i].offset < sigDicts[j].offset
	})

	signatures := make([]inspect.Signature, 0, len(sigDicts))
	for _, d := range sigDicts {
		sig := inspect.Signature{
			Metadata: inspect.Metadata{
				Name:        textString(resolve(d.get("Name"))),
				Reason:      textString(resolve(d.get("Reason"))),
				Location:    textString(resolve(d.get("Location"))),
				ContactInfo: textString(resolve(d.get("ContactInfo"))),
				Filter:      d.name("Filter"),
				SubFilter:   d.name("SubFilter"),
				FieldName:   fieldNames[d],
			},
		}
		if contents, ok := resolve(d.get("Contents")).(pdfString); ok {
			sig.Contents = contents.value
		}
		if m := textString(resolve(d.get("M"))); m != "" {
			if t, err := ParseDate(m); err == nil {
				sig.Metadata.SigningTime = &t
			}
		}
		if byteRange, ok := resolve(d.get("ByteRange")).(array); ok {
			for _, v := range byteRange {
				if n, ok := resolve(v).(int64); ok {
					sig.Metadata.ByteRange = append(sig.Metadata.ByteRange, n)
				}
			}
		}
		signatures = append(signatures, sig)
	}
	return signatures, nil
}

// isSignatureDictionary reports whether d is a signature or document
// timestamp dictionary.
//
// Reference: ISO 32000-1 12.8.1 Table 252
func isSignatureDictionary(d *dictionary) bool {
	if _, ok := d.get("ByteRange").(array); !ok {
		return false
	}
	switch d.get("Contents").(type) {
	case pdfString, reference:
	default:
		return false
	}
	switch d.name("Type") {
	case "", "Sig", "DocTimeStamp":
		return true
	}
	return false
}

// walk calls fn for every dictionary in v.
func walk(v any, depth int, fn func(*dictionary)) {
	if depth > maxNesting {
		return
	}
	switch v := v.(type) {
	case *dictionary:
		fn(v)
		for _, entry := range v.entries {
			walk(entry, depth+1, fn)
		}
	case array:
		for _, item := range v {
			walk(item, depth+1, fn)
		}
	}
}

// qualifiedName returns the fully qualified name of a form field.
//
// Reference: ISO 32000-1 12.7.3.2 Field Names
func qualifiedName(field *dictionary, resolve func(any) any) string {
	var parts []string
	visited := make(map[*dictionary]bool)
	for d := field; d != nil && !visited[d]; {
		visited[d] = true
		if t := textString(resolve(d.get("T"))); t != "" {
			parts = append(parts, t)
		}
		d, _ = resolve(d.get("Parent")).(*dictionary)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// ParseDate parses a PDF date string such as "D:20240101120000+01'00'".
//
// Reference: ISO 32000-1 7.9.4 Dates
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if s == "" {
		return time.Time{}, errors.New("invalid PDF date: empty date")
	}

	// Remove quotes from timezone and minutes following Z
	s = strings.ReplaceAll(s, "'", "")
	if i := strings.IndexByte(s, 'Z'); i >= 0 {
		s = s[:i+1]
	}

	formats := []string{
		"20060102150405Z0700",
		"20060102150405Z07",
		"20060102150405",
		"200601021504Z0700",
		"200601021504",
		"2006010215",
		"20060102",
		"200601",
		"2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unable to parse PDF date: " + s)
}
