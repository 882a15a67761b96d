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

// Package propagation carries invocation baggage across a call boundary.
//
// Baggage travels as a flat block of metadata fields attached to the request
// and reply envelopes. Every field name is built from a fixed prefix naming the
// baggage half followed by the baggage key, which keeps the block independent
// of any particular transport.
package propagation

import (
	"maps"
	"strings"
)

const (
	// RequestBaggagePrefix prefixes the request baggage fields
	RequestBaggagePrefix = "rpc_req_baggage."
	// RequestBaggageForcePrefix prefixes the forced request baggage fields
	RequestBaggageForcePrefix = "rpc_req_baggage_force."
	// ResponseBaggagePrefix prefixes the response baggage fields
	ResponseBaggagePrefix = "rpc_resp_baggage."
	// ResponseBaggageForcePrefix prefixes the forced response baggage fields
	ResponseBaggageForcePrefix = "rpc_resp_baggage_force."

	// CallIDField holds the call identifier of a request
	CallIDField = "rpc_call_id"
	// AppNameField holds the application name of the caller
	AppNameField = "rpc_app"
)

// Fields is the metadata block of an envelope. Field order is irrelevant and
// field presence is significant.
type Fields map[string]string

// Get returns the value of a field and whether it is set
func (f Fields) Get(name string) (string, bool) {
	value, ok := f[name]
	return value, ok
}

// Set sets the value of a field
func (f Fields) Set(name, value string) {
	f[name] = value
}

// Clone returns a copy of the fields. Cloning a nil block returns an empty one.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	maps.Copy(out, f)
	return out
}

// Merge copies the entries of other into f. Entries of other win.
func (f Fields) Merge(other Fields) {
	maps.Copy(f, other)
}

// WithPrefix returns the fields whose name starts with prefix, keyed by the
// remainder of the name
func (f Fields) WithPrefix(prefix string) map[string]string {
	out := make(map[string]string)
	for name, value := range f {
		if key, ok := strings.CutPrefix(name, prefix); ok && key != "" {
			out[key] = value
		}
	}
	return out
}

// ReturnFields returns the response baggage fields of the block
func (f Fields) ReturnFields() Fields {
	out := make(Fields)
	for name, value := range f {
		if strings.HasPrefix(name, ResponseBaggagePrefix) || strings.HasPrefix(name, ResponseBaggageForcePrefix) {
			out[name] = value
		}
	}
	return out
}

// ForcedOnly returns the forced response baggage fields of the block
func (f Fields) ForcedOnly() Fields {
	out := make(Fields)
	for name, value := range f {
		if strings.HasPrefix(name, ResponseBaggageForcePrefix) {
			out[name] = value
		}
	}
	return out
}
