/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package propagation

import (
	nethttp "net/http"
	"net/url"
	"strings"
)

// DefaultHeaderPrefix prefixes every header written by HeaderPropagator
const DefaultHeaderPrefix = "X-Rpc-"

// HeaderPropagator moves envelope fields in and out of HTTP style headers.
//
// Header names are case insensitive while field names are not, so every field
// name is written lower cased with any other byte percent escaped. Values are
// path escaped so they never carry line breaks. Extract reverses both steps,
// which preserves field names and values exactly.
//
// HeaderPropagator is stateless and safe for concurrent use.
type HeaderPropagator struct {
	prefix string
}

// NewHeaderPropagator creates a HeaderPropagator using DefaultHeaderPrefix
func NewHeaderPropagator() *HeaderPropagator {
	return &HeaderPropagator{prefix: DefaultHeaderPrefix}
}

// Inject writes fields into headers
func (p *HeaderPropagator) Inject(fields Fields, headers nethttp.Header) {
	for name, value := range fields {
		headers.Set(p.prefix+escapeName(name), url.PathEscape(value))
	}
}

// Extract reads the fields carried by headers. Headers that do not belong to
// the propagator or fail to unescape are skipped.
func (p *HeaderPropagator) Extract(headers nethttp.Header) Fields {
	fields := make(Fields)
	canonical := nethttp.CanonicalHeaderKey(p.prefix)
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}

		encoded, ok := cutPrefixFold(key, canonical)
		if !ok || encoded == "" {
			continue
		}

		name, err := url.PathUnescape(strings.ToLower(encoded))
		if err != nil {
			continue
		}

		value, err := url.PathUnescape(values[0])
		if err != nil {
			continue
		}
		fields[name] = value
	}
	return fields
}

// escapeName keeps lower case letters, digits and the separators used by
// field names, and percent escapes every other byte
func escapeName(name string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '.', ch == '_', ch == '-':
			sb.WriteByte(ch)
		default:
			sb.WriteByte('%')
			sb.WriteByte(hex[ch>>4])
			sb.WriteByte(hex[ch&0x0F])
		}
	}
	return sb.String()
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
