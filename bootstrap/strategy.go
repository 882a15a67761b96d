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

package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/provider"
)

// Protocol tags of the built-in strategies
const (
	ProtocolBolt   = "bolt"
	ProtocolTriple = "tri"
)

// Strategy binds implementations of one protocol to the invocation pipeline
type Strategy interface {
	// Protocol returns the protocol tag of the strategy
	Protocol() string
	// PreProcessTarget prepares impl before it is exported with proxy.
	// A *errors.BootstrapError aborts the export.
	PreProcessTarget(impl any, proxy *provider.Proxy) error
	// ResolveExportedName returns the advertised name of the service paired
	// with stub. It never fails: defaultInterfaceID is returned when the stub
	// does not provide a name.
	ResolveExportedName(stub any, defaultInterfaceID string) string
}

// DefaultStrategy exports implementations as they are under their interface ID
type DefaultStrategy struct{}

var _ Strategy = DefaultStrategy{}

// Protocol implements Strategy
func (DefaultStrategy) Protocol() string {
	return ProtocolBolt
}

// PreProcessTarget implements Strategy
func (DefaultStrategy) PreProcessTarget(impl any, _ *provider.Proxy) error {
	if impl == nil {
		return &gerrors.BootstrapError{Protocol: ProtocolBolt, Target: "<nil>", Cause: errors.New("implementation is required")}
	}
	return nil
}

// ResolveExportedName implements Strategy
func (DefaultStrategy) ResolveExportedName(_ any, defaultInterfaceID string) string {
	return defaultInterfaceID
}

// TripleStrategy installs the dispatch proxy into rebindable implementations
// and reads the service name from the protocol stub
type TripleStrategy struct {
	logger log.Logger
}

var _ Strategy = (*TripleStrategy)(nil)

// NewTripleStrategy creates a TripleStrategy
func NewTripleStrategy(logger log.Logger) *TripleStrategy {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &TripleStrategy{logger: logger}
}

// Protocol implements Strategy
func (s *TripleStrategy) Protocol() string {
	return ProtocolTriple
}

// PreProcessTarget installs proxy into impl when impl is Rebindable. Plain
// implementations are exported as they are.
func (s *TripleStrategy) PreProcessTarget(impl any, proxy *provider.Proxy) (err error) {
	target := fmt.Sprintf("%T", impl)
	switch Probe(impl) {
	case Unsupported:
		s.logger.Infof("%s does not expose %s, exported as a plain service", target, rebindHook)
		return nil
	case Malformed:
		return &gerrors.BootstrapError{
			Protocol: ProtocolTriple,
			Target:   target,
			Cause:    fmt.Errorf("%s is missing or does not accept *provider.Proxy", rebindHook),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &gerrors.BootstrapError{Protocol: ProtocolTriple, Target: target, Cause: fmt.Errorf("%s panicked: %v", rebindHook, r)}
		}
	}()

	if hookErr := impl.(Rebindable).SetProxiedImpl(proxy); hookErr != nil {
		return &gerrors.BootstrapError{Protocol: ProtocolTriple, Target: target, Cause: hookErr}
	}
	return nil
}

// ResolveExportedName reads the service name of stub. Any failure silently
// falls back to defaultInterfaceID.
func (s *TripleStrategy) ResolveExportedName(stub any, defaultInterfaceID string) (name string) {
	defer func() {
		if r := recover(); r != nil {
			name = defaultInterfaceID
		}
	}()

	switch x := stub.(type) {
	case ServiceNamer:
		name = x.ServiceName()
	case NameResolver:
		resolved, err := x.ResolveServiceName()
		if err != nil {
			return defaultInterfaceID
		}
		name = resolved
	}

	if strings.TrimSpace(name) == "" {
		return defaultInterfaceID
	}
	return name
}
