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

// Package nats carries envelopes between processes over NATS request/reply.
//
// A listener subscribes to a subject and a target is the subject of the
// listener to reach. The message data is the packed payload while the
// envelope metadata and the baggage travel as NATS headers. A reply carrying
// a framework failure has no data and describes the failure in its headers.
package nats

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
)

const (
	// DefaultRequestTimeout bounds the requests sent without a deadline
	DefaultRequestTimeout = 3 * time.Second
	// DefaultQueueGroup is the queue group of listeners
	DefaultQueueGroup = "goinvoke"
)

// connect dials the NATS server at url, retrying the initial connection
func connect(url string, cfg *config) (*nats.Conn, error) {
	opts := nats.GetDefaultOptions()
	opts.Url = url
	opts.Name = cfg.name
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	var conn *nats.Conn
	retrier := retry.NewRetrier(cfg.maxRetries, 100*time.Millisecond, opts.ReconnectWait)
	err := retrier.Run(func() error {
		var err error
		conn, err = opts.Connect()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats (%s): %w", url, err)
	}
	return conn, nil
}

// encode returns the message data carrying payload
func encode(payload *anypb.Any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	return proto.Marshal(payload)
}

// decode reverses encode
func decode(data []byte) (*anypb.Any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	payload := new(anypb.Any)
	if err := proto.Unmarshal(data, payload); err != nil {
		return nil, err
	}
	if payload.GetTypeUrl() == "" {
		return nil, nil
	}
	return payload, nil
}

// headerOf returns the headers of msg, creating them when absent
func headerOf(msg *nats.Msg) nethttp.Header {
	if msg.Header == nil {
		msg.Header = nats.Header{}
	}
	return nethttp.Header(msg.Header)
}

// requestOf rebuilds the request carried by msg
func requestOf(propagator *propagation.HeaderPropagator, msg *nats.Msg) (*message.Request, error) {
	req, err := message.RequestFromHeader(propagator.Extract(headerOf(msg)))
	if err != nil {
		return nil, err
	}
	payload, err := decode(msg.Data)
	if err != nil {
		return req, gerrors.NewFrameworkError(gerrors.KindSerialization, req.Method, err)
	}
	req.Payload = payload
	return req, nil
}

// failureOf maps a request failure to a framework failure
func failureOf(ctx context.Context, method string, err error) *gerrors.FrameworkError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return gerrors.NewFrameworkError(gerrors.KindTimeout, method, err)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return gerrors.NewFrameworkError(gerrors.KindCanceled, method, err)
	default:
		return gerrors.NewFrameworkError(gerrors.KindTransport, method, err)
	}
}
