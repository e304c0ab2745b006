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
	"encoding/hex"
	"errors"
	"strconv"
)

var errUnexpectedEOF = errors.New("unexpected end of data")

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenInteger
	tokenReal
	tokenName
	tokenString
	tokenKeyword
	tokenDictStart
	tokenDictEnd
	tokenArrayStart
	tokenArrayEnd
)

type token struct {
	kind   tokenKind
	offset int
	text   string // name, keyword and number text
	value  []byte // decoded string bytes
	hex    bool
	number int64
}

// lexer splits PDF data into tokens.
//
// Reference: ISO 32000-1 7.2 Lexical Conventions
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	switch c {
	case 0x00, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

// skipSpace skips whitespace and comments.
func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhitespace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// next returns the next token. Unbalanced or stray delimiters are skipped.
func (l *lexer) next() (token, error) {
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return token{kind: tokenEOF, offset: l.pos}, nil
		}
		start := l.pos
		c := l.data[l.pos]
		switch c {
		case '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokenDictStart, offset: start}, nil
			}
			return l.restoreOnError(start, l.hexString)
		case '>':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
				l.pos += 2
				return token{kind: tokenDictEnd, offset: start}, nil
			}
			l.pos++
		case '[':
			l.pos++
			return token{kind: tokenArrayStart, offset: start}, nil
		case ']':
			l.pos++
			return token{kind: tokenArrayEnd, offset: start}, nil
		case '(':
			return l.restoreOnError(start, l.literalString)
		case '/':
			return l.name(), nil
		case ')', '{', '}':
			l.pos++
		default:
			for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
				l.pos++
			}
			return classify(string(l.data[start:l.pos]), start), nil
		}
	}
}

// restoreOnError runs read and moves past the opening delimiter if read
// fails.
func (l *lexer) restoreOnError(start int, read func() (token, error)) (token, error) {
	tok, err := read()
	if err != nil {
		l.pos = start + 1
	}
	return tok, err
}

// peek returns the next token without consuming it.
func (l *lexer) peek() (token, error) {
	pos := l.pos
	tok, err := l.next()
	l.pos = pos
	return tok, err
}

func classify(text string, offset int) token {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return token{kind: tokenInteger, offset: offset, text: text, number: n}
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return token{kind: tokenReal, offset: offset, text: text}
	}
	return token{kind: tokenKeyword, offset: offset, text: text}
}

func (l *lexer) name() token {
	start := l.pos
	l.pos++ // '/'
	var buf []byte
	for l.pos < len(l.data) && isRegular(l.data[l.pos]) {
		c := l.data[l.pos]
		if c == '#' && l.pos+2 < len(l.data) {
			if b, err := hex.DecodeString(string(l.data[l.pos+1 : l.pos+3])); err == nil {
				buf = append(buf, b[0])
				l.pos += 3
				continue
			}
		}
		buf = append(buf, c)
		l.pos++
	}
	return token{kind: tokenName, offset: start, text: string(buf)}
}

func (l *lexer) hexString() (token, error) {
	start := l.pos
	l.pos++ // '<'
	end := bytes.IndexByte(l.data[l.pos:], '>')
	if end < 0 {
		return token{}, errUnexpectedEOF
	}
	digits := make([]byte, 0, end)
	for _, c := range l.data[l.pos : l.pos+end] {
		if !isWhitespace(c) {
			digits = append(digits, c)
		}
	}
	l.pos += end + 1
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	value := make([]byte, len(digits)/2)
	if _, err := hex.Decode(value, digits); err != nil {
		return token{}, err
	}
	return token{kind: tokenString, offset: start, value: value, hex: true}, nil
}

func (l *lexer) literalString() (token, error) {
	start := l.pos
	l.pos++ // '('
	var buf []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return token{kind: tokenString, offset: start, value: buf}, nil
			}
		case '\r':
			// end-of-line markers read as a single line feed
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			c = '\n'
		case '\\':
			if l.pos >= len(l.data) {
				return token{}, errUnexpectedEOF
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
				continue
			case '\n':
				continue
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					c = byte(v)
				} else {
					c = e
				}
			}
		}
		buf = append(buf, c)
	}
	return token{}, errUnexpectedEOF
}
