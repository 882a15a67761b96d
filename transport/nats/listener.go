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
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/transport"
)

// Listener serves the requests published on a subject
type Listener struct {
	url        string
	subject    string
	config     *config
	propagator *propagation.HeaderPropagator

	mu           sync.Mutex
	conn         *nats.Conn
	subscription *nats.Subscription
	inflight     sync.WaitGroup
}

var _ transport.Listener = (*Listener)(nil)

// NewListener creates a Listener of subject on the NATS server at url
func NewListener(url, subject string, opts ...Option) (*Listener, error) {
	if subject == "" {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("nats subject is required"))
	}
	return &Listener{
		url:        url,
		subject:    subject,
		config:     newConfig(opts...),
		propagator: propagation.NewHeaderPropagator(),
	}, nil
}

// Serve connects to the server and hands the requests of the subject to router
func (l *Listener) Serve(router transport.Router) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return fmt.Errorf("listener (%s) already serving", l.subject)
	}

	conn, err := connect(l.url, l.config)
	if err != nil {
		return err
	}

	handler := func(msg *nats.Msg) {
		l.inflight.Add(1)
		// requests of a subscription are handed over one at a time
		go func() {
			defer l.inflight.Done()
			l.serve(router, msg)
		}()
	}

	subscription, err := conn.QueueSubscribe(l.subject, l.config.queueGroup, handler)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe to (%s): %w", l.subject, err)
	}

	// the subscription must be registered before a request can target it
	if err := conn.Flush(); err != nil {
		conn.Close()
		return err
	}

	l.conn = conn
	l.subscription = subscription
	l.config.logger.Infof("nats listener serving subject (%s)", l.subject)
	return nil
}

// Address returns the subject of the listener
func (l *Listener) Address() string {
	return l.subject
}

// Close stops the subscription and waits for the in-flight requests until ctx is done
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	conn, subscription := l.conn, l.subscription
	l.conn, l.subscription = nil, nil
	l.mu.Unlock()

	if conn == nil {
		return nil
	}

	if err := subscription.Unsubscribe(); err != nil {
		l.config.logger.Warnf("failed to unsubscribe from (%s): %v", l.subject, err)
	}

	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}

	conn.Close()
	return nil
}

// serve routes one request and publishes its reply
func (l *Listener) serve(router transport.Router, msg *nats.Msg) {
	reply := nats.NewMsg(msg.Reply)

	req, err := l.requestOf(msg)
	if err == nil {
		var resp *message.Response
		if resp, err = router.Route(context.Background(), req); err == nil {
			reply.Data, err = encode(resp.Payload)
			if err == nil {
				l.propagator.Inject(resp.Header(), headerOf(reply))
			}
		}
	}

	if err != nil {
		method := ""
		if req != nil {
			method = req.Method
		}
		reply.Data = nil
		reply.Header = nats.Header{}
		ferr := gerrors.AsFrameworkError(err, gerrors.KindInvoker, method)
		l.propagator.Inject(message.FrameworkErrorHeader(ferr), headerOf(reply))
	}

	if err := msg.RespondMsg(reply); err != nil {
		l.config.logger.Errorf("failed to reply on subject (%s): %v", l.subject, err)
	}
}

func (l *Listener) requestOf(msg *nats.Msg) (*message.Request, error) {
	req, err := requestOf(l.propagator, msg)
	if err != nil {
		return req, gerrors.AsFrameworkError(err, gerrors.KindSerialization, "")
	}
	return req, nil
}
