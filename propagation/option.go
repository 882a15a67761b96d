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

package propagation

import "github.com/tochemey/goinvoke/log"

// Option is the interface that applies a Codec option.
type Option interface {
	// Apply sets the Option value of a Codec.
	Apply(codec *Codec)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(codec *Codec)

// Apply applies the Codec's option
func (f OptionFunc) Apply(codec *Codec) {
	f(codec)
}

// WithMaxFields caps the number of baggage fields per half. Entries beyond the
// cap are dropped and logged.
func WithMaxFields(count int) Option {
	return OptionFunc(func(codec *Codec) {
		if count > 0 {
			codec.maxFields = count
		}
	})
}

// WithMaxValueSize caps the size of a baggage value in bytes
func WithMaxValueSize(size int) Option {
	return OptionFunc(func(codec *Codec) {
		if size > 0 {
			codec.maxValueSize = size
		}
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(codec *Codec) {
		codec.logger = logger
	})
}
