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

// Package render writes inspection reports as JSON, YAML, CBOR or text.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/oid"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ErrUnsupportedFormat is returned for an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat parses a format name, ignoring case.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatCBOR:
		return "application/cbor"
	}
	return "text/plain; charset=utf-8"
}

// Options configures rendering.
type Options struct {
	// Registry names object identifiers. The default registry is used if
	// nil.
	Registry *oid.Registry

	// Values includes the hex encoded attribute values.
	Values bool

	// Color enables ANSI colors in the text format.
	Color bool
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Render writes the report to w in the given format.
func Render(w io.Writer, report *inspect.Report, format Format, opts Options) error {
	if report == nil {
		report = &inspect.Report{Entries: []inspect.Entry{}}
	}
	registry := opts.Registry
	if registry == nil {
		registry = oid.Default()
	}
	views := &viewBuilder{registry: registry, values: opts.Values}

	switch format {
	case FormatText:
		return writeText(w, views.document(report), opts.Color)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views.document(report))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views.document(report)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return err
		}
		return em.NewEncoder(w).Encode(views.document(report))
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
}
