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

// Package consumer issues calls to exported services.
//
// A Call sends the request baggage of the invocation context bound to the
// calling unit with every outbound request, and merges the response baggage of
// the reply back into that context. Handlers serving a call that issue their
// own downstream calls therefore forward the baggage of the whole chain
// upstream without any extra code:
//
//	ic, _ := invocation.Current(ctx)
//	ic.PutRequestBaggage("tenant", "acme")
//	result, err := call.Invoke(ctx, "sayHello", wrapperspb.String("hello"))
//	tenantSeen, _ := ic.GetResponseBaggage("tenant_seen")
//
// The invocation style of a method is read from its configuration: sync,
// callback, oneway or future.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/goinvoke/callback"
	"github.com/tochemey/goinvoke/config"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/errorschain"
	"github.com/tochemey/goinvoke/internal/xsync"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/telemetry"
	"github.com/tochemey/goinvoke/transport"
)

// Call is the consumer side of one service
type Call struct {
	config     *config.ConsumerConfig
	dialer     transport.Dialer
	dispatcher *callback.Dispatcher
	codec      *propagation.Codec
	logger     log.Logger
	telemetry  *telemetry.Telemetry

	ownsDispatcher bool
	transports     *xsync.Map[string, transport.Transport]
	oneways        sync.WaitGroup
}

// NewCall creates a Call sending to the service described by cfg through dialer
func NewCall(cfg *config.ConsumerConfig, dialer transport.Dialer, opts ...Option) (*Call, error) {
	if cfg == nil {
		return nil, gerrors.NewErrInvalidConfig(errors.New("consumer configuration is required"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dialer == nil {
		return nil, errors.New("consumer: dialer is required")
	}

	call := &Call{
		config:     cfg,
		dialer:     dialer,
		codec:      propagation.NewCodec(),
		logger:     log.DefaultLogger,
		telemetry:  telemetry.New(),
		transports: xsync.NewMap[string, transport.Transport](),
	}

	for _, opt := range opts {
		opt.Apply(call)
	}

	if call.dispatcher == nil {
		dispatcher, err := callback.NewDispatcher(
			callback.WithCodec(call.codec),
			callback.WithLogger(call.logger),
			callback.WithTelemetry(call.telemetry),
		)
		if err != nil {
			return nil, err
		}
		call.dispatcher = dispatcher
		call.ownsDispatcher = true
	}

	return call, nil
}

// Config returns the consumer configuration
func (c *Call) Config() *config.ConsumerConfig {
	return c.config
}

// Invoke calls method with arg using the invocation style configured for the
// method.
//
// A sync call blocks until the reply or the deadline and returns the result.
// An application exception is returned as *errors.AppError and any other
// failure as *errors.FrameworkError. Callback, oneway and future calls return
// a nil result immediately: the outcome of a callback call is delivered to
// the response callback set with SetResponseCallback or configured as
// OnReturn, and the future of a future call is read with FutureOf.
func (c *Call) Invoke(ctx context.Context, method string, arg proto.Message) (proto.Message, error) {
	switch c.config.InvokeTypeOf(method) {
	case message.InvokeCallback:
		return nil, c.InvokeCallback(ctx, method, arg, nil)
	case message.InvokeOneway:
		return nil, c.InvokeOneway(ctx, method, arg)
	case message.InvokeFuture:
		_, err := c.InvokeFuture(ctx, method, arg)
		return nil, err
	default:
		return c.InvokeSync(ctx, method, arg)
	}
}

// InvokeSync calls method with arg and waits for the reply
func (c *Call) InvokeSync(ctx context.Context, method string, arg proto.Message) (proto.Message, error) {
	ic := current(ctx)
	req, sender, err := c.prepare(ic, method, message.InvokeSync, arg)
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithDeadline(ctx, req.Deadline)
	defer cancel()

	resp, err := sender(sendCtx, req)
	if err != nil {
		frameErr := gerrors.AsFrameworkError(err, gerrors.KindTransport, method)
		c.merge(ic, propagation.Fields(frameErr.Fields), propagation.OutcomeFrameworkFailure)
		return nil, frameErr
	}

	if resp.IsAppException() {
		c.merge(ic, resp.Fields, propagation.OutcomeAppException)
		return nil, resp.AppError
	}

	result, err := resp.Unpack()
	if err != nil {
		frameErr := gerrors.AsFrameworkError(err, gerrors.KindSerialization, method).
			WithFields(resp.Fields.ForcedOnly())
		c.merge(ic, propagation.Fields(frameErr.Fields), propagation.OutcomeFrameworkFailure)
		return nil, frameErr
	}

	c.merge(ic, resp.Fields, propagation.OutcomeValue)
	return result, nil
}

// InvokeCallback calls method with arg and returns as soon as the request is
// handed to the transport. The outcome is delivered to cb on a dispatch unit.
//
// When cb is nil the response callback set on the bound invocation context is
// used, then the OnReturn of the method, then the OnReturn of the consumer.
func (c *Call) InvokeCallback(ctx context.Context, method string, arg proto.Message, cb callback.ResponseCallback) error {
	ic := current(ctx)
	if cb == nil {
		cb = c.responseCallback(ic, method)
	}
	if cb == nil {
		return gerrors.ErrUndefinedCallback
	}

	_, err := c.dispatch(ctx, ic, method, message.InvokeCallback, arg, cb)
	return err
}

// InvokeFuture calls method with arg and returns a future resolved with the
// outcome. The future is also recorded on the bound invocation context.
func (c *Call) InvokeFuture(ctx context.Context, method string, arg proto.Message) (*Future, error) {
	ic := current(ctx)
	future := newFuture()

	call, err := c.dispatch(ctx, ic, method, message.InvokeFuture, arg, future)
	if err != nil {
		return nil, err
	}

	future.call = call
	if ic != nil {
		ic.Set(futureKey, future)
	}
	return future, nil
}

// InvokeOneway sends method with arg without waiting for any reply. The reply,
// if any, is dropped and no response baggage is merged.
func (c *Call) InvokeOneway(ctx context.Context, method string, arg proto.Message) error {
	ic := current(ctx)
	req, sender, err := c.prepare(ic, method, message.InvokeOneway, arg)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), req.Deadline)
	c.oneways.Add(1)
	go func() {
		defer c.oneways.Done()
		defer cancel()
		if _, err := sender(sendCtx, req); err != nil {
			c.logger.Debugf("oneway call (%s) method (%s) failed: %v", req.CallID, method, err)
		}
	}()
	return nil
}

// Close waits for the oneway calls in flight, closes the transports opened by
// the consumer and stops the dispatcher it created
func (c *Call) Close(ctx context.Context) error {
	c.oneways.Wait()

	chain := errorschain.New(errorschain.ReturnAll())
	for _, t := range c.transports.Values() {
		chain.AddErrorFn(t.Close)
	}
	c.transports.Reset()

	if c.ownsDispatcher {
		chain.AddErrorFn(func() error { return c.dispatcher.Stop(ctx) })
	}
	return chain.Error()
}

func (c *Call) dispatch(ctx context.Context, ic *invocation.Context, method string, invokeType message.InvokeType, arg proto.Message, cb callback.ResponseCallback) (*callback.Call, error) {
	req, sender, err := c.prepare(ic, method, invokeType, arg)
	if err != nil {
		return nil, err
	}
	return c.dispatcher.Dispatch(ctx, sender, req, cb, ic)
}

// prepare builds the request of a call and the function sending it
func (c *Call) prepare(ic *invocation.Context, method string, invokeType message.InvokeType, arg proto.Message) (*message.Request, callback.SendFunc, error) {
	req, err := message.NewRequest(c.config.ServiceKey(), method, invokeType, arg)
	if err != nil {
		return nil, nil, err
	}

	req.Fields.Merge(c.codec.EncodeOutbound(ic))
	if appName := c.config.AppName(); appName != "" {
		req.Fields.Set(propagation.AppNameField, appName)
	}

	timeout := c.config.TimeoutOf(method)
	target := c.config.DirectURL
	if ic != nil {
		if override := ic.Timeout(); override > 0 {
			timeout = override
		}
		if override := ic.TargetURL(); override != "" {
			target = override
		}
	}
	req.Deadline = time.Now().Add(timeout)

	t, err := c.transport(target)
	if err != nil {
		return nil, nil, gerrors.AsFrameworkError(err, gerrors.KindTransport, method)
	}
	return req, c.traced(t), nil
}

// transport returns the transport to target, dialing it once
func (c *Call) transport(target string) (transport.Transport, error) {
	if t, ok := c.transports.Get(target); ok {
		return t, nil
	}

	t, err := c.dialer.Dial(target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial target=(%s): %w", target, err)
	}

	actual, loaded := c.transports.GetOrSet(target, func() transport.Transport { return t })
	if loaded {
		_ = t.Close()
	}
	return actual, nil
}

// traced wraps the transport send into a client span
func (c *Call) traced(t transport.Transport) callback.SendFunc {
	tracer := c.telemetry.Tracer()
	return func(ctx context.Context, req *message.Request) (*message.Response, error) {
		ctx, span := tracer.Start(ctx, req.Service+"/"+req.Method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("rpc.service", req.Service),
				attribute.String("rpc.method", req.Method),
				attribute.String("rpc.call_id", req.CallID),
				attribute.String("rpc.invoke_type", string(req.InvokeType)),
			))
		defer span.End()

		resp, err := t.Send(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return resp, err
	}
}

// responseCallback resolves the response callback of a callback style call
func (c *Call) responseCallback(ic *invocation.Context, method string) callback.ResponseCallback {
	if cb, ok := takeResponseCallback(ic); ok {
		return cb
	}
	return c.config.OnReturnOf(method)
}

func (c *Call) merge(ic *invocation.Context, fields propagation.Fields, outcome propagation.Outcome) {
	if ic != nil {
		c.codec.MergeReturn(ic, fields, outcome)
	}
}

// current returns the invocation context bound to the unit carried by ctx.
// A caller running outside any unit sends no baggage.
func current(ctx context.Context) *invocation.Context {
	ic, err := invocation.Current(ctx)
	if err != nil {
		return nil
	}
	return ic
}
