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

// Package transport defines the contracts between the invocation core and the
// layer moving envelopes between processes, and provides an in-process
// implementation.
//
// Transports treat the envelope fields as a mapping: field order is
// irrelevant and field presence is preserved exactly. Every failure returned
// by a transport is an *errors.FrameworkError.
package transport

import (
	"context"

	"github.com/tochemey/goinvoke/message"
)

// Transport sends requests to one target
type Transport interface {
	// Send delivers req and waits for the reply until ctx is done.
	// A reply carrying an application exception is not an error.
	Send(ctx context.Context, req *message.Request) (*message.Response, error)
	// Close releases the resources held by the transport
	Close() error
}

// Dialer creates transports to targets
type Dialer interface {
	// Dial returns a transport to target
	Dial(target string) (Transport, error)
	// Close releases every transport created by the dialer
	Close() error
}

// Router serves inbound requests on the provider side
type Router interface {
	Route(ctx context.Context, req *message.Request) (*message.Response, error)
}

// RouterFunc adapts a function to the Router interface
type RouterFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

// Route implements Router
func (f RouterFunc) Route(ctx context.Context, req *message.Request) (*message.Response, error) {
	return f(ctx, req)
}

// Listener accepts inbound requests and hands them to a router
type Listener interface {
	// Serve starts handing inbound requests to router. It returns once the
	// listener accepts requests.
	Serve(router Router) error
	// Address returns the target consumers dial to reach the listener
	Address() string
	// Close stops accepting requests
	Close(ctx context.Context) error
}
