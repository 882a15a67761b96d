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

// Package provider bridges inbound calls to service implementations.
//
// For every inbound call the ProxyInvoker decodes the request baggage into a
// fresh invocation context, attaches it to the execution unit handling the
// call, runs the implementation and detaches the context again, whatever the
// implementation did. The response baggage the implementation produced is
// projected into the reply according to how the call ended.
package provider

import (
	"context"

	"google.golang.org/protobuf/proto"
)

// Handler is a service implementation.
//
// An error returned by Handle is an application exception: the business
// method ran and raised. ctx carries the execution unit of the call, so the
// implementation reads its invocation context through invocation.Current.
type Handler interface {
	Handle(ctx context.Context, method string, payload proto.Message) (proto.Message, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, method string, payload proto.Message) (proto.Message, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, method string, payload proto.Message) (proto.Message, error) {
	return f(ctx, method, payload)
}

// Service binds an implementation to the key it is exported under
type Service struct {
	// Name is the exported service key
	Name string
	// Handler is the implementation
	Handler Handler
	// Methods restricts the methods that can be invoked. Empty means any method.
	Methods []string
}
