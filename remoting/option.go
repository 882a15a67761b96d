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

package remoting

import (
	"github.com/tochemey/goinvoke/log"
)

// Option configures a Dialer or a Listener
type Option interface {
	// Apply sets the Option value of a config.
	Apply(cfg *config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*config)

// Apply applies the option
func (f OptionFunc) Apply(c *config) {
	f(c)
}

type config struct {
	maxReadFrameSize uint32
	compression      string
	logger           log.Logger
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		maxReadFrameSize: defaultMaxReadFrameSize,
		compression:      defaultCompression,
		logger:           log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// WithMaxReadFrameSize sets both the maximum frame size to send and receive
func WithMaxReadFrameSize(size uint32) Option {
	return OptionFunc(func(c *config) {
		if size > 0 {
			c.maxReadFrameSize = size
		}
	})
}

// WithCompression sets the content coding used to send messages. Every
// endpoint accepts every supported coding whatever this setting.
func WithCompression(name string) Option {
	return OptionFunc(func(c *config) {
		c.compression = name
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
