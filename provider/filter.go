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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/goinvoke/internal/metric"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/telemetry"
)

// Invocation describes the call flowing through the filter chain
type Invocation struct {
	CallID  string
	Service string
	Method  string
	Payload proto.Message
}

// InvokeFunc invokes the target of an invocation
type InvokeFunc func(ctx context.Context, inv *Invocation) (proto.Message, error)

// Filter decorates an InvokeFunc. Filters run in the order they are given,
// the first filter being the outermost.
type Filter func(next InvokeFunc) InvokeFunc

func chain(target InvokeFunc, filters ...Filter) InvokeFunc {
	next := target
	for i := len(filters) - 1; i >= 0; i-- {
		next = filters[i](next)
	}
	return next
}

// LoggingFilter logs every invocation at debug level and every application
// exception at warn level
func LoggingFilter(logger log.Logger) Filter {
	return func(next InvokeFunc) InvokeFunc {
		return func(ctx context.Context, inv *Invocation) (proto.Message, error) {
			start := time.Now()
			result, err := next(ctx, inv)
			if err != nil {
				logger.Warnf("service=(%s) method=(%s) call=(%s) raised: %v", inv.Service, inv.Method, inv.CallID, err)
				return result, err
			}
			if logger.Enabled(log.DebugLevel) {
				logger.Debugf("service=(%s) method=(%s) call=(%s) served in %s", inv.Service, inv.Method, inv.CallID, time.Since(start))
			}
			return result, nil
		}
	}
}

// TelemetryFilter records a span and the invocation metrics of every invocation
func TelemetryFilter(tel *telemetry.Telemetry) (Filter, error) {
	invocationMetric, err := metric.NewInvocationMetric(tel.Meter())
	if err != nil {
		return nil, err
	}

	tracer := tel.Tracer()
	return func(next InvokeFunc) InvokeFunc {
		return func(ctx context.Context, inv *Invocation) (proto.Message, error) {
			ctx, span := tracer.Start(ctx, inv.Service+"/"+inv.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("rpc.service", inv.Service),
					attribute.String("rpc.method", inv.Method),
					attribute.String("rpc.call_id", inv.CallID),
				))
			defer span.End()

			start := time.Now()
			result, err := next(ctx, inv)
			outcome := "value"
			if err != nil {
				outcome = "app_exception"
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			invocationMetric.Record(ctx, inv.Service, inv.Method, outcome, time.Since(start))
			return result, err
		}
	}, nil
}
