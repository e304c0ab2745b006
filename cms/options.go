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

// DecodeOption configures DecodeSignedData.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	maxSize int
}

// WithMaxSize rejects inputs larger than n bytes with ErrTooLarge before any
// decoding work is done. A non-positive n means no limit.
func WithMaxSize(n int) DecodeOption {
	return func(o *decodeOptions) {
		o.maxSize = n
	}
}

func newDecodeOptions(opts []DecodeOption) decodeOptions {
	var o decodeOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// CheckSize returns ErrTooLarge when data exceeds the limit given by
// WithMaxSize.
func CheckSize(data []byte, opts ...DecodeOption) error {
	o := newDecodeOptions(opts)
	if o.maxSize > 0 && len(data) > o.maxSize {
		return DecodeError{
			Kind:    KindTooLarge,
			Message: fmt.Sprintf("input of %d bytes exceeds the limit of %d bytes", len(data), o.maxSize),
		}
	}
	return nil
}
