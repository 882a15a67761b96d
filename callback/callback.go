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

// Package callback delivers the outcome of asynchronous calls.
//
// A callback style call returns to its issuer as soon as the request is handed
// to the transport. Its outcome is later delivered on a dispatch execution
// unit to exactly one of the three methods of a ResponseCallback. Before the
// method runs, a newly constructed invocation context is attached to the
// dispatch unit and the response baggage of the call is merged into it, so a
// handler reads its context through invocation.Current and never observes the
// context of the issuing unit.
package callback

import (
	"context"

	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
)

// ResponseCallback receives the outcome of a callback style call. Exactly one
// method is called exactly once per call.
type ResponseCallback interface {
	// OnAppResponse is called with the business result of the call
	OnAppResponse(ctx context.Context, appResponse proto.Message, method string, req *message.Request)
	// OnAppException is called when the callee raised a business failure
	OnAppException(ctx context.Context, err *gerrors.AppError, method string, req *message.Request)
	// OnFrameworkException is called when the call failed to complete a business
	// round trip: transport failure, timeout, serialization failure, invoker
	// fault, cancellation or shutdown
	OnFrameworkException(ctx context.Context, err *gerrors.FrameworkError, method string, req *message.Request)
}

// Funcs adapts plain functions to ResponseCallback. Nil functions are no-ops.
type Funcs struct {
	AppResponse      func(ctx context.Context, appResponse proto.Message, method string, req *message.Request)
	AppException     func(ctx context.Context, err *gerrors.AppError, method string, req *message.Request)
	FrameworkFailure func(ctx context.Context, err *gerrors.FrameworkError, method string, req *message.Request)
}

var _ ResponseCallback = Funcs{}

// OnAppResponse implements ResponseCallback
func (f Funcs) OnAppResponse(ctx context.Context, appResponse proto.Message, method string, req *message.Request) {
	if f.AppResponse != nil {
		f.AppResponse(ctx, appResponse, method, req)
	}
}

// OnAppException implements ResponseCallback
func (f Funcs) OnAppException(ctx context.Context, err *gerrors.AppError, method string, req *message.Request) {
	if f.AppException != nil {
		f.AppException(ctx, err, method, req)
	}
}

// OnFrameworkException implements ResponseCallback
func (f Funcs) OnFrameworkException(ctx context.Context, err *gerrors.FrameworkError, method string, req *message.Request) {
	if f.FrameworkFailure != nil {
		f.FrameworkFailure(ctx, err, method, req)
	}
}
