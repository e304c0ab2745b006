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
	"errors"
	"fmt"
	"strconv"
)

const maxNesting = 64

// PDF object model. Integers are int64, reals are float64, booleans are
// bool and null is nil.
type (
	name    string
	keyword string

	pdfString struct {
		value []byte
		hex   bool
	}

	reference struct {
		number     int64
		generation int64
	}

	dictionary struct {
		offset  int
		entries map[string]any
	}

	array []any
)

func (d *dictionary) get(key string) any {
	if d == nil {
		return nil
	}
	return d.entries[key]
}

func (d *dictionary) name(key string) string {
	n, _ := d.get(key).(name)
	return string(n)
}

// indirectObject is an "N G obj ... endobj" definition.
type indirectObject struct {
	number int64
	offset int
	value  any
}

// parser reads PDF objects from the lexer.
type parser struct {
	lex *lexer
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxNesting {
		return nil, errors.New("objects nested too deeply")
	}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenEOF:
		return nil, errUnexpectedEOF
	case tokenInteger:
		return p.integerOrReference(tok)
	case tokenReal:
		return strconv.ParseFloat(tok.text, 64)
	case tokenName:
		return name(tok.text), nil
	case tokenString:
		return pdfString{value: tok.value, hex: tok.hex}, nil
	case tokenKeyword:
		switch tok.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return keyword(tok.text), nil
	case tokenArrayStart:
		return p.array(depth)
	case tokenDictStart:
		return p.dictionary(tok.offset, depth)
	}
	return nil, fmt.Errorf("unexpected token at offset %d", tok.offset)
}

// integerOrReference reads "N G R" as a reference and a lone N as an
// integer.
func (p *parser) integerOrReference(first token) (any, error) {
	pos := p.lex.pos
	second, err := p.lex.next()
	if err == nil && second.kind == tokenInteger {
		third, err := p.lex.next()
		if err == nil && third.kind == tokenKeyword && third.text == "R" {
			return reference{number: first.number, generation: second.number}, nil
		}
	}
	p.lex.pos = pos
	return first.number, nil
}

func (p *parser) array(depth int) (any, error) {
	var arr array
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenEOF:
			return nil, errUnexpectedEOF
		case tokenArrayEnd:
			_, _ = p.lex.next()
			return arr, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func (p *parser) dictionary(offset, depth int) (any, error) {
	dict := &dictionary{
		offset:  offset,
		entries: make(map[string]any),
	}
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenEOF:
			return nil, errUnexpectedEOF
		case tokenDictEnd:
			return dict, nil
		case tokenName:
		default:
			return nil, fmt.Errorf("dictionary key at offset %d is not a name", tok.offset)
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		dict.entries[tok.text] = v
	}
}

var endstream = []byte("endstream")

// skipStream moves past the data of a stream following its dictionary.
func (p *parser) skipStream(dict *dictionary) {
	data, pos := p.lex.data, p.lex.pos
	// the keyword is followed by CRLF or LF
	if pos < len(data) && data[pos] == '\r' {
		pos++
	}
	if pos < len(data) && data[pos] == '\n' {
		pos++
	}
	if length, ok := dict.get("Length").(int64); ok && length >= 0 && int64(pos)+length <= int64(len(data)) {
		end := pos + int(length)
		rest := data[end:]
		trimmed := bytes.TrimLeft(rest, "\x00\t\n\f\r ")
		if bytes.HasPrefix(trimmed, endstream) {
			p.lex.pos = end + (len(rest) - len(trimmed)) + len(endstream)
			return
		}
	}
	if i := bytes.Index(data[pos:], endstream); i >= 0 {
		p.lex.pos = pos + i + len(endstream)
		return
	}
	p.lex.pos = len(data)
}

// scanObjects returns the indirect objects of the file in file order.
// Objects that fail to parse are skipped.
func scanObjects(data []byte) []indirectObject {
	lex := &lexer{data: data}
	p := &parser{lex: lex}
	var objects []indirectObject
	var prev, prevPrev token
	for {
		tok, err := lex.next()
		if err != nil {
			// the lexer resumes after the opening delimiter
			prev, prevPrev = token{}, token{}
			continue
		}
		if tok.kind == tokenEOF {
			return objects
		}
		if tok.kind == tokenKeyword && tok.text == "obj" &&
			prevPrev.kind == tokenInteger && prev.kind == tokenInteger {
			resume := lex.pos
			v, err := p.value(0)
			if err != nil {
				lex.pos = resume
			} else {
				objects = append(objects, indirectObject{
					number: prevPrev.number,
					offset: prevPrev.offset,
					value:  v,
				})
				if next, err := lex.peek(); err == nil && next.kind == tokenKeyword && next.text == "stream" {
					_, _ = lex.next()
					dict, _ := v.(*dictionary)
					p.skipStream(dict)
				}
			}
			prev, prevPrev = token{}, token{}
			continue
		}
		prevPrev, prev = prev, tok
	}
}
