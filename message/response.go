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

package message

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/propagation"
)

// Response is the reply envelope of a call that completed a business round
// trip. An application exception is a valid reply carrying AppError.
// Framework failures are never replies: transports return them as
// *errors.FrameworkError.
type Response struct {
	// Payload is the packed business result, nil for void methods
	Payload *anypb.Any
	// AppError is set when the callee raised a business failure
	AppError *gerrors.AppError
	// Fields carries the response baggage
	Fields propagation.Fields
}

// NewResponse creates a value carrying reply
func NewResponse(result proto.Message, fields propagation.Fields) (*Response, error) {
	payload, err := Pack(result)
	if err != nil {
		return nil, err
	}
	return &Response{Payload: payload, Fields: fields}, nil
}

// NewAppExceptionResponse creates a reply carrying a business failure
func NewAppExceptionResponse(appErr *gerrors.AppError, fields propagation.Fields) *Response {
	return &Response{AppError: appErr, Fields: fields}
}

// IsAppException reports whether the reply carries a business failure
func (r *Response) IsAppException() bool {
	return r.AppError != nil
}

// Outcome classifies the reply for baggage propagation
func (r *Response) Outcome() propagation.Outcome {
	if r.IsAppException() {
		return propagation.OutcomeAppException
	}
	return propagation.OutcomeValue
}

// Unpack returns the business result of the reply
func (r *Response) Unpack() (proto.Message, error) {
	return Unpack(r.Payload)
}

// Clone returns a deep copy of the reply
func (r *Response) Clone() *Response {
	clone := *r
	if r.Payload != nil {
		clone.Payload = proto.Clone(r.Payload).(*anypb.Any)
	}
	if r.AppError != nil {
		appErr := *r.AppError
		clone.AppError = &appErr
	}
	clone.Fields = r.Fields.Clone()
	return &clone
}
