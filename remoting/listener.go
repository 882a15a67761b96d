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
	"fmt"
	"net"
	nethttp "net/http"
	"sync"

	"connectrpc.com/connect"
	"go.uber.org/atomic"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/compression"
	internalhttp "github.com/tochemey/goinvoke/internal/http"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/transport"
)

// Listener serves remoting calls on a TCP address
type Listener struct {
	address    string
	config     *config
	propagator *propagation.HeaderPropagator

	mu       sync.RWMutex
	listener net.Listener
	server   *nethttp.Server
	router   transport.Router
	serving  *atomic.Bool
	done     chan struct{}
}

var _ transport.Listener = (*Listener)(nil)

// NewListener creates a Listener bound to address once served. A zero port
// binds a free one.
func NewListener(address string, opts ...Option) (*Listener, error) {
	cfg := newConfig(opts...)
	if err := compression.Validate(cfg.compression); err != nil {
		return nil, gerrors.NewErrInvalidConfig(err)
	}

	return &Listener{
		address:    address,
		config:     cfg,
		propagator: propagation.NewHeaderPropagator(),
		serving:    atomic.NewBool(false),
	}, nil
}

// Serve binds the address and hands inbound calls to router
func (l *Listener) Serve(router transport.Router) error {
	if !l.serving.CompareAndSwap(false, true) {
		return fmt.Errorf("listener (%s) already serving", l.address)
	}

	listener, err := net.Listen("tcp", l.address)
	if err != nil {
		l.serving.Store(false)
		return fmt.Errorf("failed to bind (%s): %w", l.address, err)
	}

	opts := []connect.HandlerOption{
		codecOption(),
		connect.WithReadMaxBytes(int(l.config.maxReadFrameSize)), // nolint
		connect.WithRecover(func(_ context.Context, spec connect.Spec, _ nethttp.Header, recovered any) error {
			l.config.logger.Errorf("remoting panic in %s: %v", spec.Procedure, recovered)
			return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
		}),
	}
	for _, opt := range compression.Options() {
		opts = append(opts, opt)
	}

	mux := nethttp.NewServeMux()
	mux.Handle(Procedure, connect.NewUnaryHandler(Procedure, l.handle, opts...))

	server := internalhttp.NewServer(listener.Addr().String(), mux, l.config.maxReadFrameSize)
	done := make(chan struct{})

	l.mu.Lock()
	l.listener = listener
	l.server = server
	l.router = router
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			l.config.logger.Errorf("remoting listener (%s) stopped: %v", listener.Addr(), err)
		}
	}()

	l.config.logger.Infof("remoting listener serving on (%s)", listener.Addr())
	return nil
}

// Address returns the bound address while serving, the configured one otherwise
func (l *Listener) Address() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.listener != nil {
		return l.listener.Addr().String()
	}
	return l.address
}

// Close stops accepting calls and waits for the in-flight ones until ctx is done
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	server, done := l.server, l.done
	l.server, l.listener, l.router = nil, nil, nil
	l.mu.Unlock()

	if server == nil {
		return nil
	}

	err := server.Shutdown(ctx)
	if err == nil {
		<-done
	}
	l.serving.Store(false)
	return err
}

func (l *Listener) getRouter() transport.Router {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.router
}

// handle serves one inbound call
func (l *Listener) handle(ctx context.Context, request *connect.Request[anypb.Any]) (*connect.Response[anypb.Any], error) {
	req, err := message.RequestFromHeader(l.propagator.Extract(request.Header()))
	if err != nil {
		return nil, toConnectError(l.propagator, gerrors.AsFrameworkError(err, gerrors.KindSerialization, ""))
	}
	req.Payload = payloadOf(request.Msg)

	router := l.getRouter()
	if router == nil {
		return nil, toConnectError(l.propagator,
			gerrors.NewFrameworkError(gerrors.KindTransport, req.Method, errors.New("not serving")))
	}

	// the provider outlives a caller that stopped waiting
	resp, err := router.Route(context.WithoutCancel(ctx), req)
	if err != nil {
		return nil, toConnectError(l.propagator, gerrors.AsFrameworkError(err, gerrors.KindInvoker, req.Method))
	}

	response := connect.NewResponse(body(resp.Payload))
	l.propagator.Inject(resp.Header(), response.Header())
	return response, nil
}
