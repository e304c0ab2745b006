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

import "fmt"

// Kind classifies decoding failures.
type Kind int

// Kinds of decoding failures.
const (
	// KindMalformed indicates the input is not a parsable CMS structure.
	KindMalformed Kind = iota + 1

	// KindUnexpectedContentType indicates a well-formed ContentInfo that does
	// not carry signed-data.
	KindUnexpectedContentType

	// KindTimestampMalformed indicates the signature-timestamp-token
	// attribute value could not be decoded to a TSTInfo.
	KindTimestampMalformed

	// KindTooLarge indicates the input exceeds the configured size limit.
	KindTooLarge
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnexpectedContentType:
		return "unexpected content type"
	case KindTimestampMalformed:
		return "timestamp malformed"
	case KindTooLarge:
		return "too large"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel errors for matching with errors.Is. Any DecodeError matches the
// sentinel of its kind.
var (
	ErrMalformed             = DecodeError{Kind: KindMalformed}
	ErrUnexpectedContentType = DecodeError{Kind: KindUnexpectedContentType}
	ErrTimestampMalformed    = DecodeError{Kind: KindTimestampMalformed}
	ErrTooLarge              = DecodeError{Kind: KindTooLarge}
)

// DecodeError is returned when a CMS structure or a timestamp token cannot
// be decoded.
type DecodeError struct {
	Kind    Kind
	Message string
	Detail  error
}

// Error returns error message.
func (e DecodeError) Error() string {
	msg := "cms: " + e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e DecodeError) Unwrap() error {
	return e.Detail
}

// Is reports whether target is a DecodeError of the same kind. A target
// with a message only matches errors with the same message.
func (e DecodeError) Is(target error) bool {
	t, ok := target.(DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func malformed(detail error, format string, args ...any) DecodeError {
	return DecodeError{
		Kind:    KindMalformed,
		Message: fmt.Sprintf(format, args...),
		Detail:  detail,
	}
}
