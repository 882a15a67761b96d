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

package remoting

import (
	"context"
	"errors"
	nethttp "net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/compression"
	internalhttp "github.com/tochemey/goinvoke/internal/http"
	"github.com/tochemey/goinvoke/internal/xsync"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/transport"
)

// Dialer creates transports to remoting listeners. Every transport shares the
// HTTP/2 client of the dialer, so calls to the same target are multiplexed
// over one connection.
type Dialer struct {
	client     *nethttp.Client
	config     *config
	propagator *propagation.HeaderPropagator
	transports *xsync.Map[string, *Transport]
}

var _ transport.Dialer = (*Dialer)(nil)

// NewDialer creates a Dialer
func NewDialer(opts ...Option) (*Dialer, error) {
	cfg := newConfig(opts...)
	if err := compression.Validate(cfg.compression); err != nil {
		return nil, gerrors.NewErrInvalidConfig(err)
	}

	return &Dialer{
		client:     internalhttp.NewClient(cfg.maxReadFrameSize),
		config:     cfg,
		propagator: propagation.NewHeaderPropagator(),
		transports: xsync.NewMap[string, *Transport](),
	}, nil
}

// Dial returns the transport to the listener at target, a host:port pair or
// a base URL
func (d *Dialer) Dial(target string) (transport.Transport, error) {
	if target == "" {
		return nil, gerrors.NewFrameworkError(gerrors.KindTransport, "", errors.New("empty target"))
	}

	t, _ := d.transports.GetOrSet(target, func() *Transport {
		return d.newTransport(target)
	})
	return t, nil
}

// Close releases the idle connections of the dialer
func (d *Dialer) Close() error {
	d.transports.Reset()
	d.client.CloseIdleConnections()
	return nil
}

func (d *Dialer) newTransport(target string) *Transport {
	opts := []connect.ClientOption{
		codecOption(),
		connect.WithSendMaxBytes(int(d.config.maxReadFrameSize)), // nolint
		connect.WithReadMaxBytes(int(d.config.maxReadFrameSize)), // nolint
	}
	for _, opt := range compression.Options() {
		opts = append(opts, opt)
	}
	if name := d.config.compression; name != "" && name != compression.None {
		opts = append(opts, connect.WithSendCompression(name))
	}

	return &Transport{
		target:     target,
		client:     connect.NewClient[anypb.Any, anypb.Any](d.client, endpoint(target)+Procedure, opts...),
		propagator: d.propagator,
		logger:     d.config.logger,
	}
}

// Transport sends requests to one remoting listener
type Transport struct {
	target     string
	client     *connect.Client[anypb.Any, anypb.Any]
	propagator *propagation.HeaderPropagator
	logger     log.Logger
}

var _ transport.Transport = (*Transport)(nil)

// Send delivers req and waits for the reply until ctx is done
func (t *Transport) Send(ctx context.Context, req *message.Request) (*message.Response, error) {
	request := connect.NewRequest(body(req.Payload))
	t.propagator.Inject(req.Header(), request.Header())

	response, err := t.client.CallUnary(ctx, request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			t.logger.Debugf("call (%s) to target (%s) abandoned: %v", req.CallID, t.target, ctxErr)
			kind := gerrors.KindCanceled
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				kind = gerrors.KindTimeout
			}
			return nil, gerrors.NewFrameworkError(kind, req.Method, ctxErr)
		}
		return nil, fromConnectError(t.propagator, req.Method, err)
	}

	resp := &message.Response{Payload: payloadOf(response.Msg)}
	resp.ApplyHeader(req.Method, t.propagator.Extract(response.Header()))
	return resp, nil
}

// Close is a no-op: the connections belong to the dialer
func (t *Transport) Close() error {
	return nil
}
