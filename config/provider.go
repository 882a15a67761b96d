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
	"errors"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/validation"
)

// protocolPattern matches the protocol tags a bootstrap registry accepts
const protocolPattern = "^[a-z][a-z0-9]*$"

var errInvalidProtocol = errors.New("the [Protocol] must be a lower case tag")

// ApplicationConfig describes the application hosting consumers and providers
type ApplicationConfig struct {
	// AppName is logged and sent with every outbound call
	AppName string
}

// NewApplicationConfig creates an ApplicationConfig
func NewApplicationConfig(appName string) *ApplicationConfig {
	return &ApplicationConfig{AppName: appName}
}

// ProviderConfig configures the export of one service implementation
type ProviderConfig struct {
	// Application is the application the provider belongs to
	Application *ApplicationConfig
	// InterfaceID identifies the exported service
	InterfaceID string
	// UniqueID distinguishes several exports of the same interface
	UniqueID string
	// Protocol is the protocol tag the service is exported with
	Protocol string
	// Ref is the service implementation. It must implement provider.Handler.
	Ref any
	// Stub is the protocol stub paired with Ref, used to resolve the exported name
	Stub any
	// Methods restricts the exposed methods. Empty exposes every method.
	Methods []string
}

// NewProviderConfig creates a ProviderConfig exporting ref under interfaceID
func NewProviderConfig(interfaceID string, ref any, opts ...ProviderOption) *ProviderConfig {
	config := &ProviderConfig{
		Application: NewApplicationConfig(""),
		InterfaceID: interfaceID,
		Protocol:    DefaultProtocol,
		Ref:         ref,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Validate checks the configuration
func (c *ProviderConfig) Validate() error {
	err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("InterfaceID", c.InterfaceID)).
		AddValidator(validation.NewEmptyStringValidator("Protocol", c.Protocol)).
		AddValidator(validation.NewPatternValidator(protocolPattern, c.Protocol, errInvalidProtocol)).
		AddAssertion(c.Ref != nil, "the [Ref] is required").
		Validate()
	if err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}

// ServiceKey returns the key the service is exported under
func (c *ProviderConfig) ServiceKey() string {
	return ServiceKey(c.InterfaceID, c.UniqueID)
}

// AppName returns the application name, empty when unset
func (c *ProviderConfig) AppName() string {
	if c.Application == nil {
		return ""
	}
	return c.Application.AppName
}

// ServiceKey builds the key of an exported service: the interface ID alone, or
// <interfaceID>:<uniqueID> when a unique ID is set
func ServiceKey(interfaceID, uniqueID string) string {
	if uniqueID == "" {
		return interfaceID
	}
	return interfaceID + ":" + uniqueID
}
