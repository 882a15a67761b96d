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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/telemetry"
)

// greeter writes response baggage then behaves according to the method
var greeter = HandlerFunc(func(ctx context.Context, method string, payload proto.Message) (proto.Message, error) {
	ic, err := invocation.Current(ctx)
	if err != nil {
		return nil, err
	}

	if value, ok := ic.GetRequestBaggage("reqB"); ok {
		ic.PutResponseBaggage("respB", value+"-seen")
	}
	ic.PutResponseBaggageForce("respB_force", "b2aaaff")

	switch method {
	case "raise":
		return nil, errors.New("business failure")
	case "panic":
		panic("boom")
	case "unpackable":
		// invalid UTF-8 fails to marshal
		return wrapperspb.String("\xff"), nil
	default:
		name := payload.(*wrapperspb.StringValue).GetValue()
		return wrapperspb.String("hello " + name), nil
	}
})

func newRequest(t *testing.T, method string) *message.Request {
	req, err := message.NewRequest("greeter", method, message.InvokeSync, wrapperspb.String("world"))
	require.NoError(t, err)
	req.Fields[propagation.RequestBaggagePrefix+"reqB"] = "a2bbb"
	return req
}

func newInvoker(t *testing.T, binder *invocation.Binder, opts ...Option) *ProxyInvoker {
	opts = append([]Option{WithBinder(binder), WithLogger(log.DiscardLogger)}, opts...)
	invoker, err := NewProxyInvoker(&Service{Name: "greeter", Handler: greeter}, opts...)
	require.NoError(t, err)
	return invoker
}

func TestProxyInvoker(t *testing.T) {
	ctx := context.Background()

	t.Run("Value reply carries all response baggage", func(t *testing.T) {
		binder := invocation.NewBinder()
		invoker := newInvoker(t, binder)

		resp, err := invoker.Invoke(ctx, newRequest(t, "sayHello"))
		require.NoError(t, err)
		assert.False(t, resp.IsAppException())

		result, err := resp.Unpack()
		require.NoError(t, err)
		assert.True(t, proto.Equal(wrapperspb.String("hello world"), result))
		assert.Equal(t, propagation.Fields{
			"rpc_resp_baggage.respB":             "a2bbb-seen",
			"rpc_resp_baggage_force.respB_force": "b2aaaff",
		}, resp.Fields)
		assert.Zero(t, binder.Len())
	})
	t.Run("Application exception keeps normal and forced baggage", func(t *testing.T) {
		binder := invocation.NewBinder()
		invoker := newInvoker(t, binder)

		resp, err := invoker.Invoke(ctx, newRequest(t, "raise"))
		require.NoError(t, err)
		require.True(t, resp.IsAppException())
		assert.Equal(t, "business failure", resp.AppError.Message)
		assert.Equal(t, "raise", resp.AppError.Method)
		assert.Equal(t, propagation.OutcomeAppException, resp.Outcome())
		assert.Len(t, resp.Fields, 2)
		assert.Zero(t, binder.Len())
	})
	t.Run("Panic is a framework failure with forced baggage only", func(t *testing.T) {
		binder := invocation.NewBinder()
		invoker := newInvoker(t, binder)

		resp, err := invoker.Invoke(ctx, newRequest(t, "panic"))
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, gerrors.ErrInvoker)

		var frameworkErr *gerrors.FrameworkError
		require.ErrorAs(t, err, &frameworkErr)
		assert.Equal(t, map[string]string{"rpc_resp_baggage_force.respB_force": "b2aaaff"}, frameworkErr.Fields)
		assert.Zero(t, binder.Len())
	})
	t.Run("Unpackable result is a serialization failure", func(t *testing.T) {
		invoker := newInvoker(t, invocation.NewBinder())
		_, err := invoker.Invoke(ctx, newRequest(t, "unpackable"))
		require.ErrorIs(t, err, gerrors.ErrSerialization)

		var frameworkErr *gerrors.FrameworkError
		require.ErrorAs(t, err, &frameworkErr)
		assert.Equal(t, "unpackable", frameworkErr.Method)
		assert.Contains(t, frameworkErr.Fields, "rpc_resp_baggage_force.respB_force")
	})
	t.Run("Unknown payload type is a serialization failure", func(t *testing.T) {
		invoker := newInvoker(t, invocation.NewBinder())
		req := newRequest(t, "sayHello")
		req.Payload = &anypb.Any{TypeUrl: "type.googleapis.com/unknown.Type"}

		_, err := invoker.Invoke(ctx, req)
		require.ErrorIs(t, err, gerrors.ErrSerialization)
	})
	t.Run("Unknown method is a routing failure", func(t *testing.T) {
		invoker, err := NewProxyInvoker(&Service{Name: "greeter", Handler: greeter, Methods: []string{"sayHello"}},
			WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		_, err = invoker.Invoke(ctx, newRequest(t, "sayBye"))
		require.ErrorIs(t, err, gerrors.ErrRouting)
		require.ErrorIs(t, err, gerrors.ErrMethodNotFound)
	})
	t.Run("Pooled unit is reused and left clean", func(t *testing.T) {
		binder := invocation.NewBinder()
		invoker := newInvoker(t, binder)
		unit := binder.NewUnit()
		stale := unit.Current()
		stale.PutRequestBaggage("reqB", "stale")

		resp, err := invoker.Invoke(invocation.WithServingUnit(ctx, unit), newRequest(t, "sayHello"))
		require.NoError(t, err)
		assert.Equal(t, "a2bbb-seen", resp.Fields["rpc_resp_baggage.respB"])

		_, bound := unit.Peek()
		assert.False(t, bound)
	})
	t.Run("Caller unit is never borrowed", func(t *testing.T) {
		binder := invocation.NewBinder()
		unit := binder.NewUnit()
		callerCtx := unit.Current()
		callerCtx.PutRequestBaggage("reqB", "caller")

		var handlerUnit string
		invoker, err := NewProxyInvoker(&Service{
			Name: "greeter",
			Handler: HandlerFunc(func(ctx context.Context, _ string, _ proto.Message) (proto.Message, error) {
				served, ok := invocation.UnitFromContext(ctx)
				require.True(t, ok)
				handlerUnit = served.ID()
				return wrapperspb.String("ok"), nil
			}),
		}, WithBinder(binder), WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		_, err = invoker.Invoke(invocation.WithUnit(ctx, unit), newRequest(t, "sayHello"))
		require.NoError(t, err)
		assert.NotEqual(t, unit.ID(), handlerUnit)

		current, bound := unit.Peek()
		require.True(t, bound)
		assert.Same(t, callerCtx, current)
		got, _ := current.GetRequestBaggage("reqB")
		assert.Equal(t, "caller", got)
	})
	t.Run("Consecutive calls never share a context", func(t *testing.T) {
		binder := invocation.NewBinder()
		invoker := newInvoker(t, binder)

		first, err := invoker.Invoke(ctx, newRequest(t, "sayHello"))
		require.NoError(t, err)
		assert.Contains(t, first.Fields, "rpc_resp_baggage.respB")

		// no request baggage this time, so no normal response baggage
		req, err := message.NewRequest("greeter", "sayHello", message.InvokeSync, wrapperspb.String("world"))
		require.NoError(t, err)
		second, err := invoker.Invoke(ctx, req)
		require.NoError(t, err)
		assert.NotContains(t, second.Fields, "rpc_resp_baggage.respB")
	})
	t.Run("Invalid service", func(t *testing.T) {
		_, err := NewProxyInvoker(nil)
		require.Error(t, err)
		_, err = NewProxyInvoker(&Service{Name: "empty"})
		require.Error(t, err)
	})
}

func TestFilters(t *testing.T) {
	ctx := context.Background()
	var order []string
	record := func(name string) Filter {
		return func(next InvokeFunc) InvokeFunc {
			return func(ctx context.Context, inv *Invocation) (proto.Message, error) {
				order = append(order, name)
				return next(ctx, inv)
			}
		}
	}

	invoker := newInvoker(t, invocation.NewBinder(),
		WithFilters(record("outer"), record("inner"), LoggingFilter(log.DiscardLogger)))

	_, err := invoker.Invoke(ctx, newRequest(t, "sayHello"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)

	// the proxy runs the same chain
	unit := invocation.NewBinder().NewUnit()
	result, err := invoker.Proxy().Invoke(invocation.WithUnit(ctx, unit), "sayHello", wrapperspb.String("proxy"))
	require.NoError(t, err)
	assert.True(t, proto.Equal(wrapperspb.String("hello proxy"), result))
	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)
	assert.Equal(t, "greeter", invoker.Proxy().Service())
}

func TestTelemetryFilter(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
	})

	filter, err := TelemetryFilter(telemetry.New(
		telemetry.WithTracerProvider(tracerProvider),
		telemetry.WithMeterProvider(meterProvider),
	))
	require.NoError(t, err)

	invoker := newInvoker(t, invocation.NewBinder(), WithFilters(filter))
	_, err = invoker.Invoke(ctx, newRequest(t, "sayHello"))
	require.NoError(t, err)
	_, err = invoker.Invoke(ctx, newRequest(t, "raise"))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "greeter/sayHello", spans[0].Name())
	assert.Len(t, spans[1].Events(), 1)
}
