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

// Package message defines the request and reply envelopes exchanged between
// consumers and providers.
//
// Payloads are opaque protocol buffer messages packed into anypb.Any so that
// transports never need to know the concrete business types. Baggage and call
// metadata travel beside the payload as propagation.Fields.
package message

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/propagation"
)

// InvokeType is the invocation style of a call
type InvokeType string

const (
	// InvokeSync blocks the caller until the reply or the deadline
	InvokeSync InvokeType = "sync"
	// InvokeCallback returns immediately and delivers the outcome to a response callback
	InvokeCallback InvokeType = "callback"
	// InvokeOneway fires and forgets
	InvokeOneway InvokeType = "oneway"
	// InvokeFuture returns a future resolved by the callback dispatcher
	InvokeFuture InvokeType = "future"
)

// IsValid reports whether the invoke type is known
func (t InvokeType) IsValid() bool {
	switch t {
	case InvokeSync, InvokeCallback, InvokeOneway, InvokeFuture:
		return true
	default:
		return false
	}
}

// Request is the envelope of an outbound call
type Request struct {
	// CallID uniquely identifies the call
	CallID string
	// Service is the exported service key targeted by the call
	Service string
	// Method is the method being invoked
	Method string
	// InvokeType is the invocation style of the call
	InvokeType InvokeType
	// Payload is the packed business argument
	Payload *anypb.Any
	// Fields carries the baggage and call metadata
	Fields propagation.Fields
	// Deadline is the instant after which the caller stops waiting, zero when unset
	Deadline time.Time
}

// NewRequest creates a request with a fresh call ID. A nil argument is packed
// as an empty payload.
func NewRequest(service, method string, invokeType InvokeType, arg proto.Message) (*Request, error) {
	payload, err := Pack(arg)
	if err != nil {
		return nil, err
	}

	callID := uuid.NewString()
	return &Request{
		CallID:     callID,
		Service:    service,
		Method:     method,
		InvokeType: invokeType,
		Payload:    payload,
		Fields:     propagation.Fields{propagation.CallIDField: callID},
	}, nil
}

// Unpack returns the business argument of the request
func (r *Request) Unpack() (proto.Message, error) {
	return Unpack(r.Payload)
}

// Timeout returns the time left before the deadline and whether a deadline is set
func (r *Request) Timeout() (time.Duration, bool) {
	if r.Deadline.IsZero() {
		return 0, false
	}
	return time.Until(r.Deadline), true
}

// Clone returns a deep copy of the request. Transports clone requests when the
// caller and the callee share a process, so neither side observes the other's
// writes.
func (r *Request) Clone() *Request {
	clone := *r
	if r.Payload != nil {
		clone.Payload = proto.Clone(r.Payload).(*anypb.Any)
	}
	clone.Fields = r.Fields.Clone()
	return &clone
}

// Pack packs a business message into an anypb.Any. A nil message packs to nil.
func Pack(msg proto.Message) (*anypb.Any, error) {
	if msg == nil {
		return nil, nil
	}
	if packed, ok := msg.(*anypb.Any); ok {
		return packed, nil
	}
	packed, err := anypb.New(msg)
	if err != nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindSerialization, "", err)
	}
	return packed, nil
}

// Unpack unpacks an anypb.Any using the global type registry. A nil or empty
// payload unpacks to nil.
func Unpack(payload *anypb.Any) (proto.Message, error) {
	if payload == nil || payload.GetTypeUrl() == "" {
		return nil, nil
	}
	msg, err := payload.UnmarshalNew()
	if err != nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindSerialization, "", err)
	}
	return msg, nil
}
