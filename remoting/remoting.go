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

// Package remoting carries envelopes between processes over connect, served
// as HTTP/2 cleartext.
//
// Every call is a unary exchange on a single procedure. The packed payload is
// the message body while the envelope metadata and the baggage travel as
// headers. Framework failures raised by the provider come back as connect
// errors whose metadata rebuilds the failure on the consumer side, forced
// baggage included.
package remoting

import (
	"errors"
	"strings"

	"connectrpc.com/connect"
	"go.akshayshah.org/connectproto"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/compression"
	internalhttp "github.com/tochemey/goinvoke/internal/http"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
)

// Procedure is the connect procedure serving every invocation
const Procedure = "/goinvoke.v1.InvokeService/Invoke"

const (
	defaultMaxReadFrameSize = uint32(internalhttp.DefaultMaxReadFrameSize)
	defaultCompression      = compression.Zstd
)

// codecOption is the wire codec shared by clients and handlers
func codecOption() connect.Option {
	return connectproto.WithBinary(
		proto.MarshalOptions{},
		proto.UnmarshalOptions{DiscardUnknown: true},
	)
}

// body returns the message body carrying payload. connect requires a message,
// so an absent payload travels as an empty Any.
func body(payload *anypb.Any) *anypb.Any {
	if payload == nil {
		return &anypb.Any{}
	}
	return payload
}

// payloadOf reverses body
func payloadOf(body *anypb.Any) *anypb.Any {
	if body == nil || body.GetTypeUrl() == "" {
		return nil
	}
	return body
}

// toConnectError encodes a framework failure into a connect error
func toConnectError(propagator *propagation.HeaderPropagator, ferr *gerrors.FrameworkError) *connect.Error {
	var code connect.Code
	switch ferr.Kind {
	case gerrors.KindRouting:
		code = connect.CodeNotFound
	case gerrors.KindSerialization:
		code = connect.CodeInvalidArgument
	case gerrors.KindTimeout:
		code = connect.CodeDeadlineExceeded
	case gerrors.KindCanceled:
		code = connect.CodeCanceled
	case gerrors.KindShutdown:
		code = connect.CodeUnavailable
	case gerrors.KindInvoker:
		code = connect.CodeInternal
	default:
		code = connect.CodeUnknown
	}

	cerr := connect.NewError(code, ferr)
	propagator.Inject(message.FrameworkErrorHeader(ferr), cerr.Meta())
	return cerr
}

// fromConnectError decodes the failure of a call. Failures raised by the
// provider keep their kind; anything else is a transport failure.
func fromConnectError(propagator *propagation.HeaderPropagator, method string, err error) *gerrors.FrameworkError {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return gerrors.AsFrameworkError(err, gerrors.KindTransport, method)
	}

	if ferr, ok := message.FrameworkErrorFromHeader(method, propagator.Extract(cerr.Meta())); ok {
		return ferr
	}

	switch cerr.Code() {
	case connect.CodeDeadlineExceeded:
		return gerrors.NewFrameworkError(gerrors.KindTimeout, method, err)
	case connect.CodeCanceled:
		return gerrors.NewFrameworkError(gerrors.KindCanceled, method, err)
	default:
		return gerrors.NewFrameworkError(gerrors.KindTransport, method, err)
	}
}

// endpoint turns a target into the base URL of a listener
func endpoint(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return strings.TrimSuffix(target, "/")
	}
	return "http://" + target
}
