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

package nats

import (
	"time"

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
	logger         log.Logger
	requestTimeout time.Duration
	queueGroup     string
	maxRetries     int
	name           string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:         log.DefaultLogger,
		requestTimeout: DefaultRequestTimeout,
		queueGroup:     DefaultQueueGroup,
		maxRetries:     5,
		name:           "goinvoke",
	}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithRequestTimeout bounds the requests sent without a deadline
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *config) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	})
}

// WithQueueGroup sets the queue group listeners of the same subject share.
// Each request is served by a single member of the group.
func WithQueueGroup(group string) Option {
	return OptionFunc(func(c *config) {
		c.queueGroup = group
	})
}

// WithMaxRetries sets how many times the initial connection is attempted
func WithMaxRetries(retries int) Option {
	return OptionFunc(func(c *config) {
		if retries > 0 {
			c.maxRetries = retries
		}
	})
}

// WithConnectionName sets the name the connection advertises to the server
func WithConnectionName(name string) Option {
	return OptionFunc(func(c *config) {
		c.name = name
	})
}
