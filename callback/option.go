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

package callback

import (
	"time"

	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/telemetry"
)

// Option is the interface that applies a Dispatcher option.
type Option interface {
	// Apply sets the Option value of a Dispatcher.
	Apply(dispatcher *Dispatcher)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(dispatcher *Dispatcher)

// Apply applies the Dispatcher's option
func (f OptionFunc) Apply(dispatcher *Dispatcher) {
	f(dispatcher)
}

// WithCodec sets the baggage codec used to merge response baggage
func WithCodec(codec *propagation.Codec) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.codec = codec
	})
}

// WithBinder sets the binding table of the dispatch units
func WithBinder(binder *invocation.Binder) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.binder = binder
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.logger = logger
	})
}

// WithTelemetry sets the telemetry used to record dispatch metrics
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.telemetry = tel
	})
}

// WithShards sets the number of shards of the dispatch worker pool
func WithShards(shards int) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		dispatcher.shards = shards
	})
}

// WithPassivateAfter sets how long an idle dispatch unit lives
func WithPassivateAfter(d time.Duration) Option {
	return OptionFunc(func(dispatcher *Dispatcher) {
		if d > 0 {
			dispatcher.passivateAfter = d
		}
	})
}
