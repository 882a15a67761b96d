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

// Package baggage holds the storage of call scoped metadata.
//
// A Store is split into a request side, written by a caller and visible to
// every hop downstream of the call, and a response side, written by callees
// and read by the caller once the call completes. Each side has a plain and a
// forced variant. Forced entries propagate even along failure paths where
// plain entries are dropped.
package baggage

import "sort"

// Store groups the four baggage halves of one invocation context.
// Store is not safe for concurrent use.
type Store struct {
	request       *Half
	requestForce  *Half
	response      *Half
	responseForce *Half
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		request:       NewHalf(),
		requestForce:  NewHalf(),
		response:      NewHalf(),
		responseForce: NewHalf(),
	}
}

// Request returns the request baggage half
func (s *Store) Request() *Half {
	return s.request
}

// RequestForce returns the forced request baggage half
func (s *Store) RequestForce() *Half {
	return s.requestForce
}

// Response returns the response baggage half
func (s *Store) Response() *Half {
	return s.response
}

// ResponseForce returns the forced response baggage half
func (s *Store) ResponseForce() *Half {
	return s.responseForce
}

// IsEmpty reports whether all halves are empty
func (s *Store) IsEmpty() bool {
	return s.request.IsEmpty() &&
		s.requestForce.IsEmpty() &&
		s.response.IsEmpty() &&
		s.responseForce.IsEmpty()
}

// Clone returns a deep copy of the store
func (s *Store) Clone() *Store {
	return &Store{
		request:       s.request.Clone(),
		requestForce:  s.requestForce.Clone(),
		response:      s.response.Clone(),
		responseForce: s.responseForce.Clone(),
	}
}

// Clear empties every half
func (s *Store) Clear() {
	s.request.Clear()
	s.requestForce.Clear()
	s.response.Clear()
	s.responseForce.Clear()
}

func sortedKeys(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
