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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const outcomeKey = "outcome"

// CallbackMetric defines the callback dispatch instrumentation
type CallbackMetric struct {
	// Specifies the total number of outcomes delivered to response callbacks
	delivered metric.Int64Counter
	// Specifies the total number of replies discarded after the deadline
	lateReplies metric.Int64Counter
	// Specifies the number of callback calls awaiting their outcome
	inflight metric.Int64UpDownCounter
}

// NewCallbackMetric creates an instance of CallbackMetric
func NewCallbackMetric(meter metric.Meter) (*CallbackMetric, error) {
	callbackMetric := new(CallbackMetric)
	var err error

	if callbackMetric.delivered, err = meter.Int64Counter(
		"callback_delivered",
		metric.WithDescription("Total number of outcomes delivered to response callbacks"),
	); err != nil {
		return nil, fmt.Errorf("failed to create delivered instrument, %w", err)
	}

	if callbackMetric.lateReplies, err = meter.Int64Counter(
		"callback_late_replies",
		metric.WithDescription("Total number of replies discarded because they arrived after the deadline"),
	); err != nil {
		return nil, fmt.Errorf("failed to create lateReplies instrument, %w", err)
	}

	if callbackMetric.inflight, err = meter.Int64UpDownCounter(
		"callback_inflight",
		metric.WithDescription("Number of callback calls awaiting their outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inflight instrument, %w", err)
	}

	return callbackMetric, nil
}

// Delivered records one delivered outcome
func (x *CallbackMetric) Delivered(ctx context.Context, outcome string) {
	x.delivered.Add(ctx, 1, metric.WithAttributes(attribute.String(outcomeKey, outcome)))
}

// LateReply records one discarded late reply
func (x *CallbackMetric) LateReply(ctx context.Context) {
	x.lateReplies.Add(ctx, 1)
}

// Issued records a call entering the awaiting state
func (x *CallbackMetric) Issued(ctx context.Context) {
	x.inflight.Add(ctx, 1)
}

// Settled records a call leaving the awaiting state
func (x *CallbackMetric) Settled(ctx context.Context) {
	x.inflight.Add(ctx, -1)
}
