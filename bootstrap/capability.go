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

// Package bootstrap pairs service implementations with the invocation pipeline
// when they are exported.
//
// Every protocol tag resolves to a Strategy. At export time the strategy may
// install the dispatch proxy of the provider invoker into the implementation,
// and derives the externally advertised service name from the protocol stub,
// falling back to the interface identifier.
package bootstrap

import (
	"reflect"

	"github.com/tochemey/goinvoke/provider"
)

// rebindHook is the name of the method of Rebindable
const rebindHook = "SetProxiedImpl"

// Capability tells whether an implementation can receive a dispatch proxy
type Capability int

const (
	// Unsupported implementations are plain services exported as they are
	Unsupported Capability = iota
	// Supported implementations expose the rebinding hook
	Supported
	// Malformed implementations cannot be exported: nil, or a rebinding hook
	// whose signature does not match Rebindable
	Malformed
)

// String returns the capability name
func (c Capability) String() string {
	switch c {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Rebindable is implemented by protocol stubs that accept the dispatch proxy
// generated by the framework in place of their protocol native one
type Rebindable interface {
	SetProxiedImpl(proxy *provider.Proxy) error
}

// ServiceNamer is implemented by protocol stubs that advertise their service name
type ServiceNamer interface {
	ServiceName() string
}

// NameResolver is implemented by protocol stubs whose service name lookup can fail
type NameResolver interface {
	ResolveServiceName() (string, error)
}

// Probe returns the capability of impl
func Probe(impl any) Capability {
	if impl == nil {
		return Malformed
	}

	value := reflect.ValueOf(impl)
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if value.IsNil() {
			return Malformed
		}
	}

	if _, ok := impl.(Rebindable); ok {
		return Supported
	}

	// a hook with the wrong signature means the stub and the implementation are not paired
	if _, ok := value.Type().MethodByName(rebindHook); ok {
		return Malformed
	}
	return Unsupported
}
