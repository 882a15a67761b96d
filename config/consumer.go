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

// Package config holds the configuration of applications, servers, exported
// providers and consumers.
//
// Configurations are built with functional options and validated before use.
// Server configurations can also be read from GOINVOKE_* environment
// variables.
package config

import (
	"time"

	"github.com/tochemey/goinvoke/callback"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/validation"
	"github.com/tochemey/goinvoke/message"
)

const (
	// DefaultProtocol is the protocol tag used when none is configured
	DefaultProtocol = "bolt"
	// DefaultTimeout is the call timeout used when none is configured
	DefaultTimeout = 3 * time.Second
)

// ConsumerConfig configures the consumer side of a service
type ConsumerConfig struct {
	// Application is the application the consumer belongs to
	Application *ApplicationConfig
	// InterfaceID identifies the consumed service
	InterfaceID string
	// UniqueID distinguishes several exports of the same interface
	UniqueID string
	// Protocol is the protocol tag of the consumed service
	Protocol string
	// DirectURL is the target the consumer sends to, unless a call overrides it
	DirectURL string
	// InvokeType is the invocation style of methods without their own configuration
	InvokeType message.InvokeType
	// Timeout is the call timeout of methods without their own configuration
	Timeout time.Duration
	// OnReturn is the response callback of callback style calls that name none
	OnReturn callback.ResponseCallback
	// Methods holds per-method configuration keyed by method name
	Methods map[string]*MethodConfig
}

// NewConsumerConfig creates a ConsumerConfig for the given interface
func NewConsumerConfig(interfaceID string, opts ...ConsumerOption) *ConsumerConfig {
	config := &ConsumerConfig{
		Application: NewApplicationConfig(""),
		InterfaceID: interfaceID,
		Protocol:    DefaultProtocol,
		InvokeType:  message.InvokeSync,
		Timeout:     DefaultTimeout,
		Methods:     make(map[string]*MethodConfig),
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Validate checks the configuration
func (c *ConsumerConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("InterfaceID", c.InterfaceID)).
		AddValidator(validation.NewEmptyStringValidator("DirectURL", c.DirectURL)).
		AddAssertion(c.InvokeType.IsValid(), "the [InvokeType] is invalid").
		AddAssertion(c.Timeout > 0, "the [Timeout] must be positive")

	for name, method := range c.Methods {
		chain.AddAssertion(method != nil && method.Name == name, "method configuration ("+name+") is malformed")
		if method != nil && method.InvokeType != "" {
			chain.AddAssertion(method.InvokeType.IsValid(), "the [InvokeType] of method ("+name+") is invalid")
		}
	}

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}

// ServiceKey returns the key of the consumed service
func (c *ConsumerConfig) ServiceKey() string {
	return ServiceKey(c.InterfaceID, c.UniqueID)
}

// InvokeTypeOf returns the invocation style of method
func (c *ConsumerConfig) InvokeTypeOf(method string) message.InvokeType {
	if m, ok := c.Methods[method]; ok && m.InvokeType != "" {
		return m.InvokeType
	}
	return c.InvokeType
}

// TimeoutOf returns the call timeout of method
func (c *ConsumerConfig) TimeoutOf(method string) time.Duration {
	if m, ok := c.Methods[method]; ok && m.Timeout > 0 {
		return m.Timeout
	}
	return c.Timeout
}

// OnReturnOf returns the default response callback of method
func (c *ConsumerConfig) OnReturnOf(method string) callback.ResponseCallback {
	if m, ok := c.Methods[method]; ok && m.OnReturn != nil {
		return m.OnReturn
	}
	return c.OnReturn
}

// AppName returns the application name, empty when unset
func (c *ConsumerConfig) AppName() string {
	if c.Application == nil {
		return ""
	}
	return c.Application.AppName
}

// MethodConfig configures one consumed method. Zero values inherit the
// consumer configuration.
type MethodConfig struct {
	// Name is the method name
	Name string
	// InvokeType is the invocation style of the method
	InvokeType message.InvokeType
	// Timeout is the call timeout of the method
	Timeout time.Duration
	// OnReturn is the response callback used when a callback style call names none
	OnReturn callback.ResponseCallback
}

// NewMethodConfig creates a MethodConfig
func NewMethodConfig(name string, invokeType message.InvokeType) *MethodConfig {
	return &MethodConfig{Name: name, InvokeType: invokeType}
}

// WithTimeout sets the call timeout of the method
func (m *MethodConfig) WithTimeout(timeout time.Duration) *MethodConfig {
	m.Timeout = timeout
	return m
}

// WithOnReturn sets the default response callback of the method
func (m *MethodConfig) WithOnReturn(cb callback.ResponseCallback) *MethodConfig {
	m.OnReturn = cb
	return m
}
