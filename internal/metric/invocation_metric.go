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

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InvocationMetric defines the provider side invocation instrumentation
type InvocationMetric struct {
	// Specifies the total number of inbound invocations
	count metric.Int64Counter
	// Specifies the invocation processing duration
	// This is expressed in milliseconds
	duration metric.Float64Histogram
}

// NewInvocationMetric creates an instance of InvocationMetric
func NewInvocationMetric(meter metric.Meter) (*InvocationMetric, error) {
	invocationMetric := new(InvocationMetric)
	var err error

	if invocationMetric.count, err = meter.Int64Counter(
		"invocation_count",
		metric.WithDescription("Total number of inbound invocations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create count instrument, %w", err)
	}

	if invocationMetric.duration, err = meter.Float64Histogram(
		"invocation_duration",
		metric.WithDescription("The latency of inbound invocations in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration instrument, %w", err)
	}

	return invocationMetric, nil
}

// Record records one inbound invocation
func (x *InvocationMetric) Record(ctx context.Context, service, method, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("method", method),
		attribute.String(outcomeKey, outcome),
	)
	x.count.Add(ctx, 1, attrs)
	x.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
