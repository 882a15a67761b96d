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

package provider

import (
	"context"
	"fmt"
	"runtime/debug"

	mapset "github.com/deckarep/golang-set/v2"
	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
)

// Invoker serves inbound calls
type Invoker interface {
	Invoke(ctx context.Context, req *message.Request) (*message.Response, error)
}

// ProxyInvoker is the Invoker bridging inbound calls to a Service.
//
// Invoke never leaks an invocation context: the context decoded for a call is
// detached from the handling unit before Invoke returns, even when the
// implementation panics.
type ProxyInvoker struct {
	service *Service
	methods mapset.Set[string]
	codec   *propagation.Codec
	binder  *invocation.Binder
	logger  log.Logger
	filters []Filter
	invoke  InvokeFunc
	proxy   *Proxy
}

var _ Invoker = (*ProxyInvoker)(nil)

// NewProxyInvoker creates a ProxyInvoker for service
func NewProxyInvoker(service *Service, opts ...Option) (*ProxyInvoker, error) {
	if service == nil || service.Handler == nil {
		return nil, fmt.Errorf("provider: service handler is required")
	}

	invoker := &ProxyInvoker{
		service: service,
		methods: mapset.NewSet(service.Methods...),
		codec:   propagation.NewCodec(),
		binder:  invocation.DefaultBinder(),
		logger:  log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(invoker)
	}

	invoker.invoke = chain(invoker.target, invoker.filters...)
	invoker.proxy = &Proxy{invoker: invoker}
	return invoker, nil
}

// Service returns the service served by the invoker
func (p *ProxyInvoker) Service() *Service {
	return p.service
}

// Proxy returns the dispatch proxy routing through the invoker filter chain
func (p *ProxyInvoker) Proxy() *Proxy {
	return p.proxy
}

// Invoke serves one inbound call.
//
// The handling unit is the serving unit marked on ctx by the transport,
// otherwise a unit created for the call. A unit inherited from the caller is
// never used. An error
// returned by the implementation yields a reply carrying an application
// exception. Any other failure is returned as *errors.FrameworkError carrying
// the forced response baggage only.
func (p *ProxyInvoker) Invoke(ctx context.Context, req *message.Request) (*message.Response, error) {
	unit, ok := invocation.ServingUnitFromContext(ctx)
	if !ok {
		unit = p.binder.NewUnit()
		ctx = invocation.WithUnit(ctx, unit)
	}

	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	ic := p.codec.DecodeInbound(req.Fields)
	if err := unit.Attach(ic); err != nil {
		return nil, gerrors.NewFrameworkError(gerrors.KindInvoker, req.Method, err)
	}
	defer unit.Detach()

	if p.methods.Cardinality() > 0 && !p.methods.Contains(req.Method) {
		return nil, p.frameworkFailure(ic, gerrors.KindRouting, req.Method,
			gerrors.NewErrMethodNotFound(p.service.Name, req.Method))
	}

	payload, err := req.Unpack()
	if err != nil {
		return nil, p.frameworkFailure(ic, gerrors.KindSerialization, req.Method, err)
	}

	result, appErr, err := p.safeInvoke(ctx, &Invocation{
		CallID:  req.CallID,
		Service: p.service.Name,
		Method:  req.Method,
		Payload: payload,
	})
	if err != nil {
		return nil, p.frameworkFailure(ic, gerrors.KindInvoker, req.Method, err)
	}

	if appErr != nil {
		return message.NewAppExceptionResponse(
			gerrors.NewAppError(req.Method, appErr),
			p.codec.EncodeReturn(ic, propagation.OutcomeAppException),
		), nil
	}

	resp, err := message.NewResponse(result, p.codec.EncodeReturn(ic, propagation.OutcomeValue))
	if err != nil {
		return nil, p.frameworkFailure(ic, gerrors.KindSerialization, req.Method, err)
	}
	return resp, nil
}

// safeInvoke runs the filter chain and turns a panic into an invoker failure
func (p *ProxyInvoker) safeInvoke(ctx context.Context, inv *Invocation) (result proto.Message, appErr error, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("service=(%s) method=(%s) panicked: %v\n%s", inv.Service, inv.Method, r, debug.Stack())
			result, appErr = nil, nil
			err = fmt.Errorf("implementation panicked: %v", r)
		}
	}()

	result, appErr = p.invoke(ctx, inv)
	return result, appErr, nil
}

// frameworkFailure builds a framework failure carrying the forced response
// baggage of ic
func (p *ProxyInvoker) frameworkFailure(ic *invocation.Context, kind gerrors.Kind, method string, cause error) error {
	frameworkErr := gerrors.AsFrameworkError(cause, kind, method)
	return frameworkErr.WithFields(p.codec.EncodeReturn(ic, propagation.OutcomeFrameworkFailure))
}

func (p *ProxyInvoker) target(ctx context.Context, inv *Invocation) (proto.Message, error) {
	return p.service.Handler.Handle(ctx, inv.Method, inv.Payload)
}
