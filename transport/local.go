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

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/xsync"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
)

var (
	errConnectionRefused = errors.New("connection refused")
	errListenerClosed    = errors.New("listener closed")
)

// Fault alters the outcome of a call routed by the local network. It runs on
// the provider side after routing, so the provider has already run.
type Fault func(ctx context.Context, req *message.Request, resp *message.Response, err error) (*message.Response, error)

// DropReply turns a reply into a framework failure of the given kind. Only the
// forced response baggage of the dropped reply is kept, as if the reply was
// lost after the callee flushed its forced baggage out-of-band.
func DropReply(kind gerrors.Kind) Fault {
	return func(_ context.Context, req *message.Request, resp *message.Response, err error) (*message.Response, error) {
		if err != nil {
			return nil, err
		}
		return nil, gerrors.NewFrameworkError(kind, req.Method, errors.New("reply dropped")).
			WithFields(resp.Fields.ForcedOnly())
	}
}

// Delay holds the outcome back for d, or until ctx is done
func Delay(d time.Duration) Fault {
	return func(ctx context.Context, _ *message.Request, resp *message.Response, err error) (*message.Response, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return resp, err
	}
}

// Network is an in-process network. Listeners bind to names and transports
// dial those names. Requests and replies are cloned across the boundary and
// every inbound call runs on its own goroutine, exactly as if caller and
// callee were separate processes.
type Network struct {
	listeners *xsync.Map[string, *LocalListener]
	faults    *xsync.Map[string, []Fault]
	logger    log.Logger
	inflight  sync.WaitGroup
}

var _ Dialer = (*Network)(nil)

// NewNetwork creates an in-process network
func NewNetwork(logger log.Logger) *Network {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Network{
		listeners: xsync.NewMap[string, *LocalListener](),
		faults:    xsync.NewMap[string, []Fault](),
		logger:    logger,
	}
}

// Listen binds a listener to address
func (n *Network) Listen(address string) (*LocalListener, error) {
	listener := &LocalListener{network: n, address: address, closed: atomic.NewBool(false)}
	if _, loaded := n.listeners.GetOrSet(address, func() *LocalListener { return listener }); loaded {
		return nil, fmt.Errorf("address (%s) already in use", address)
	}
	return listener, nil
}

// Dial returns a transport to the listener bound to target. The listener does
// not need to exist yet.
func (n *Network) Dial(target string) (Transport, error) {
	if target == "" {
		return nil, gerrors.NewFrameworkError(gerrors.KindTransport, "", errors.New("empty target"))
	}
	return &localTransport{network: n, target: target}, nil
}

// InjectFault appends a fault applied to every call routed to target
func (n *Network) InjectFault(target string, fault Fault) {
	faults, _ := n.faults.Get(target)
	n.faults.Set(target, append(append([]Fault(nil), faults...), fault))
}

// ClearFaults removes the faults of target
func (n *Network) ClearFaults(target string) {
	n.faults.Delete(target)
}

// Close waits for the in-flight provider goroutines to return
func (n *Network) Close() error {
	n.inflight.Wait()
	return nil
}

// LocalListener is a Listener of the in-process network
type LocalListener struct {
	network *Network
	address string
	mu      sync.RWMutex
	router  Router
	closed  *atomic.Bool
}

var _ Listener = (*LocalListener)(nil)

// Serve starts handing inbound requests to router
func (l *LocalListener) Serve(router Router) error {
	if l.closed.Load() {
		return errListenerClosed
	}
	l.mu.Lock()
	l.router = router
	l.mu.Unlock()
	return nil
}

// Address returns the name the listener is bound to
func (l *LocalListener) Address() string {
	return l.address
}

// Close unbinds the listener
func (l *LocalListener) Close(context.Context) error {
	if l.closed.CompareAndSwap(false, true) {
		l.network.listeners.Delete(l.address)
	}
	return nil
}

func (l *LocalListener) getRouter() Router {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.router
}

type localTransport struct {
	network *Network
	target  string
}

type outcome struct {
	resp *message.Response
	err  error
}

// Send routes a clone of req to the target listener on a new goroutine
func (t *localTransport) Send(ctx context.Context, req *message.Request) (*message.Response, error) {
	listener, ok := t.network.listeners.Get(t.target)
	if !ok || listener.closed.Load() {
		return nil, gerrors.NewFrameworkError(gerrors.KindTransport, req.Method,
			fmt.Errorf("(target=%s) %w", t.target, errConnectionRefused))
	}

	router := listener.getRouter()
	if router == nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindTransport, req.Method,
			fmt.Errorf("(target=%s) not serving", t.target))
	}

	inbound := req.Clone()
	faults, _ := t.network.faults.Get(t.target)
	done := make(chan outcome, 1)

	t.network.inflight.Add(1)
	go func() {
		defer t.network.inflight.Done()
		// the provider shares nothing with the caller but the request and
		// outlives a caller that stopped waiting
		resp, err := router.Route(context.Background(), inbound)
		for _, fault := range faults {
			resp, err = fault(ctx, inbound, resp, err)
		}
		if resp != nil {
			resp = resp.Clone()
		}
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, gerrors.AsFrameworkError(out.err, gerrors.KindTransport, req.Method)
		}
		return out.resp, nil
	case <-ctx.Done():
		t.network.logger.Debugf("call (%s) to target (%s) abandoned: %v", req.CallID, t.target, ctx.Err())
		kind := gerrors.KindCanceled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = gerrors.KindTimeout
		}
		return nil, gerrors.NewFrameworkError(kind, req.Method, ctx.Err())
	}
}

// Close is a no-op: local transports hold no resources
func (t *localTransport) Close() error {
	return nil
}
