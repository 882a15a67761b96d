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

package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/transport"
)

// Dialer creates transports to the listeners of a NATS server. Every
// transport shares the connection of the dialer.
type Dialer struct {
	conn       *nats.Conn
	config     *config
	propagator *propagation.HeaderPropagator
}

var _ transport.Dialer = (*Dialer)(nil)

// NewDialer connects to the NATS server at url
func NewDialer(url string, opts ...Option) (*Dialer, error) {
	cfg := newConfig(opts...)
	conn, err := connect(url, cfg)
	if err != nil {
		return nil, err
	}
	return &Dialer{conn: conn, config: cfg, propagator: propagation.NewHeaderPropagator()}, nil
}

// Dial returns the transport to the listener subscribed to the target subject
func (d *Dialer) Dial(target string) (transport.Transport, error) {
	if target == "" {
		return nil, gerrors.NewFrameworkError(gerrors.KindTransport, "", errors.New("empty target"))
	}
	return &Transport{dialer: d, subject: target}, nil
}

// Close closes the connection of the dialer
func (d *Dialer) Close() error {
	d.conn.Close()
	return nil
}

// Transport sends requests to one subject
type Transport struct {
	dialer  *Dialer
	subject string
}

var _ transport.Transport = (*Transport)(nil)

// Send delivers req and waits for the reply until ctx is done
func (t *Transport) Send(ctx context.Context, req *message.Request) (*message.Response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.dialer.config.requestTimeout)
		defer cancel()
	}

	data, err := encode(req.Payload)
	if err != nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindSerialization, req.Method, err)
	}

	msg := nats.NewMsg(t.subject)
	msg.Data = data
	t.dialer.propagator.Inject(req.Header(), headerOf(msg))

	reply, err := t.dialer.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		t.dialer.config.logger.Debugf("call (%s) to subject (%s) failed: %v", req.CallID, t.subject, err)
		return nil, failureOf(ctx, req.Method, err)
	}

	header := t.dialer.propagator.Extract(headerOf(reply))
	if ferr, ok := message.FrameworkErrorFromHeader(req.Method, header); ok {
		return nil, ferr
	}

	payload, err := decode(reply.Data)
	if err != nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindSerialization, req.Method, err).
			WithFields(header.ForcedOnly())
	}

	resp := &message.Response{Payload: payload}
	resp.ApplyHeader(req.Method, header)
	return resp, nil
}

// Close is a no-op: the connection belongs to the dialer
func (t *Transport) Close() error {
	return nil
}
