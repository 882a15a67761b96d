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
	"strconv"
	"time"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/propagation"
)

// Envelope metadata fields. Transports that carry the payload in a body move
// everything else through these fields.
const (
	ServiceField      = "rpc_service"
	MethodField       = "rpc_method"
	InvokeTypeField   = "rpc_invoke_type"
	DeadlineField     = "rpc_deadline"
	AppErrorField     = "rpc_app_error"
	AppErrorTypeField = "rpc_app_error_type"
	ErrorKindField    = "rpc_error_kind"
	ErrorField        = "rpc_error"
)

// Header flattens the request metadata into a single block of fields
func (r *Request) Header() propagation.Fields {
	header := r.Fields.Clone()
	header[propagation.CallIDField] = r.CallID
	header[ServiceField] = r.Service
	header[MethodField] = r.Method
	header[InvokeTypeField] = string(r.InvokeType)
	if !r.Deadline.IsZero() {
		header[DeadlineField] = strconv.FormatInt(r.Deadline.UnixNano(), 10)
	}
	return header
}

// RequestFromHeader rebuilds a request from a block built by Request.Header
func RequestFromHeader(header propagation.Fields) (*Request, error) {
	req := &Request{
		CallID:     header[propagation.CallIDField],
		Service:    header[ServiceField],
		Method:     header[MethodField],
		InvokeType: InvokeType(header[InvokeTypeField]),
		Fields:     make(propagation.Fields, len(header)),
	}

	for name, value := range header {
		switch name {
		case ServiceField, MethodField, InvokeTypeField, DeadlineField:
		default:
			req.Fields[name] = value
		}
	}

	if raw, ok := header[DeadlineField]; ok {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, gerrors.NewFrameworkError(gerrors.KindSerialization, req.Method, err)
		}
		req.Deadline = time.Unix(0, nanos)
	}

	if !req.InvokeType.IsValid() {
		req.InvokeType = InvokeSync
	}
	return req, nil
}

// Header flattens the reply metadata into a single block of fields
func (r *Response) Header() propagation.Fields {
	header := r.Fields.Clone()
	if r.AppError != nil {
		header[AppErrorField] = r.AppError.Message
		if r.AppError.Type != "" {
			header[AppErrorTypeField] = r.AppError.Type
		}
	}
	return header
}

// ApplyHeader restores the reply metadata from a block built by Response.Header
func (r *Response) ApplyHeader(method string, header propagation.Fields) {
	r.Fields = make(propagation.Fields, len(header))
	for name, value := range header {
		switch name {
		case AppErrorField, AppErrorTypeField:
		default:
			r.Fields[name] = value
		}
	}

	if msg, ok := header[AppErrorField]; ok {
		r.AppError = &gerrors.AppError{
			Method:  method,
			Message: msg,
			Type:    header[AppErrorTypeField],
		}
	}
}

// FrameworkErrorHeader flattens a framework failure and its out-of-band
// fields into a single block
func FrameworkErrorHeader(err *gerrors.FrameworkError) propagation.Fields {
	header := propagation.Fields(err.Fields).Clone()
	header[ErrorKindField] = err.Kind.String()
	if err.Cause != nil {
		header[ErrorField] = err.Cause.Error()
	}
	return header
}

// FrameworkErrorFromHeader rebuilds a framework failure from a block built by
// FrameworkErrorHeader. It returns false when the block carries no failure.
func FrameworkErrorFromHeader(method string, header propagation.Fields) (*gerrors.FrameworkError, bool) {
	kind, ok := header[ErrorKindField]
	if !ok {
		return nil, false
	}

	var cause error
	if msg, ok := header[ErrorField]; ok {
		cause = remoteError(msg)
	}

	return gerrors.NewFrameworkError(gerrors.ParseKind(kind), method, cause).
		WithFields(header.ForcedOnly()), true
}

// remoteError is the cause of a failure raised on the remote side
type remoteError string

func (e remoteError) Error() string {
	return string(e)
}
