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

package config

import (
	"time"

	"github.com/tochemey/goinvoke/callback"
	"github.com/tochemey/goinvoke/message"
)

// ConsumerOption is the interface that applies a ConsumerConfig option.
type ConsumerOption interface {
	// Apply sets the Option value of a ConsumerConfig.
	Apply(config *ConsumerConfig)
}

var _ ConsumerOption = ConsumerOptionFunc(nil)

// ConsumerOptionFunc implements the ConsumerOption interface.
type ConsumerOptionFunc func(config *ConsumerConfig)

// Apply applies the ConsumerConfig's option
func (f ConsumerOptionFunc) Apply(config *ConsumerConfig) {
	f(config)
}

// WithApplication sets the application of the consumer
func WithApplication(application *ApplicationConfig) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.Application = application
	})
}

// WithUniqueID sets the unique ID of the consumed service
func WithUniqueID(uniqueID string) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.UniqueID = uniqueID
	})
}

// WithProtocol sets the protocol tag of the consumed service
func WithProtocol(protocol string) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.Protocol = protocol
	})
}

// WithDirectURL sets the target the consumer sends to
func WithDirectURL(url string) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.DirectURL = url
	})
}

// WithInvokeType sets the default invocation style
func WithInvokeType(invokeType message.InvokeType) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.InvokeType = invokeType
	})
}

// WithTimeout sets the default call timeout
func WithTimeout(timeout time.Duration) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.Timeout = timeout
	})
}

// WithOnReturn sets the default response callback
func WithOnReturn(cb callback.ResponseCallback) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		config.OnReturn = cb
	})
}

// WithMethods adds per-method configurations
func WithMethods(methods ...*MethodConfig) ConsumerOption {
	return ConsumerOptionFunc(func(config *ConsumerConfig) {
		for _, method := range methods {
			if method != nil {
				config.Methods[method.Name] = method
			}
		}
	})
}

// ProviderOption is the interface that applies a ProviderConfig option.
type ProviderOption interface {
	// Apply sets the Option value of a ProviderConfig.
	Apply(config *ProviderConfig)
}

var _ ProviderOption = ProviderOptionFunc(nil)

// ProviderOptionFunc implements the ProviderOption interface.
type ProviderOptionFunc func(config *ProviderConfig)

// Apply applies the ProviderConfig's option
func (f ProviderOptionFunc) Apply(config *ProviderConfig) {
	f(config)
}

// WithProviderApplication sets the application of the provider
func WithProviderApplication(application *ApplicationConfig) ProviderOption {
	return ProviderOptionFunc(func(config *ProviderConfig) {
		config.Application = application
	})
}

// WithProviderUniqueID sets the unique ID of the exported service
func WithProviderUniqueID(uniqueID string) ProviderOption {
	return ProviderOptionFunc(func(config *ProviderConfig) {
		config.UniqueID = uniqueID
	})
}

// WithProviderProtocol sets the protocol tag the service is exported with
func WithProviderProtocol(protocol string) ProviderOption {
	return ProviderOptionFunc(func(config *ProviderConfig) {
		config.Protocol = protocol
	})
}

// WithExportedMethods restricts the methods the service exposes
func WithExportedMethods(methods ...string) ProviderOption {
	return ProviderOptionFunc(func(config *ProviderConfig) {
		config.Methods = append(config.Methods, methods...)
	})
}

// WithStub sets the protocol stub paired with the implementation
func WithStub(stub any) ProviderOption {
	return ProviderOptionFunc(func(config *ProviderConfig) {
		config.Stub = stub
	})
}
