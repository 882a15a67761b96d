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

package server

import (
	"github.com/tochemey/goinvoke/bootstrap"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/provider"
	"github.com/tochemey/goinvoke/telemetry"
	"github.com/tochemey/goinvoke/transport"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(server *Server)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(server *Server)

// Apply applies the option
func (f OptionFunc) Apply(server *Server) {
	f(server)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(server *Server) {
		if logger != nil {
			server.logger = logger
		}
	})
}

// WithRegistry sets the bootstrap strategies of the server
func WithRegistry(registry *bootstrap.Registry) Option {
	return OptionFunc(func(server *Server) {
		server.registry = registry
	})
}

// WithListeners sets the listeners of the server in place of the one built
// from its configuration
func WithListeners(listeners ...transport.Listener) Option {
	return OptionFunc(func(server *Server) {
		server.listeners = append(server.listeners, listeners...)
	})
}

// WithNetwork sets the in-process network the local transport listens on
func WithNetwork(network *transport.Network) Option {
	return OptionFunc(func(server *Server) {
		server.network = network
	})
}

// WithCodec sets the propagation codec of the exported services
func WithCodec(codec *propagation.Codec) Option {
	return OptionFunc(func(server *Server) {
		server.codec = codec
	})
}

// WithBinder sets the binding table inbound calls attach their context to
func WithBinder(binder *invocation.Binder) Option {
	return OptionFunc(func(server *Server) {
		server.binder = binder
	})
}

// WithTelemetry records a span and the latency of every inbound call
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return OptionFunc(func(server *Server) {
		server.telemetry = tel
	})
}

// WithFilters appends filters to the invokers of the exported services
func WithFilters(filters ...provider.Filter) Option {
	return OptionFunc(func(server *Server) {
		server.filters = append(server.filters, filters...)
	})
}
