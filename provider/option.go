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
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/propagation"
)

// Option is the interface that applies a ProxyInvoker option.
type Option interface {
	// Apply sets the Option value of a ProxyInvoker.
	Apply(invoker *ProxyInvoker)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(invoker *ProxyInvoker)

// Apply applies the ProxyInvoker's option
func (f OptionFunc) Apply(invoker *ProxyInvoker) {
	f(invoker)
}

// WithCodec sets the baggage codec
func WithCodec(codec *propagation.Codec) Option {
	return OptionFunc(func(invoker *ProxyInvoker) {
		invoker.codec = codec
	})
}

// WithBinder sets the binding table used to create handling units
func WithBinder(binder *invocation.Binder) Option {
	return OptionFunc(func(invoker *ProxyInvoker) {
		invoker.binder = binder
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(invoker *ProxyInvoker) {
		invoker.logger = logger
	})
}

// WithFilters appends filters to the invoker chain
func WithFilters(filters ...Filter) Option {
	return OptionFunc(func(invoker *ProxyInvoker) {
		invoker.filters = append(invoker.filters, filters...)
	})
}
