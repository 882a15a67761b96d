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

package consumer

import (
	"github.com/tochemey/goinvoke/callback"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/telemetry"
)

// Option is the interface that applies a Call option.
type Option interface {
	// Apply sets the Option value of a Call.
	Apply(call *Call)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(call *Call)

// Apply applies the Call's option
func (f OptionFunc) Apply(call *Call) {
	f(call)
}

// WithDispatcher sets the dispatcher delivering callback and future outcomes.
// A dispatcher set with this option is shared and not stopped by Close.
func WithDispatcher(dispatcher *callback.Dispatcher) Option {
	return OptionFunc(func(call *Call) {
		call.dispatcher = dispatcher
	})
}

// WithCodec sets the baggage codec
func WithCodec(codec *propagation.Codec) Option {
	return OptionFunc(func(call *Call) {
		call.codec = codec
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(call *Call) {
		call.logger = logger
	})
}

// WithTelemetry sets the telemetry recording client spans
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return OptionFunc(func(call *Call) {
		call.telemetry = tel
	})
}
