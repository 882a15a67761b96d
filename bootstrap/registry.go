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
	"slices"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/log"
)

// Registry maps protocol tags to strategies. It is read-only once built, so
// lookups take no lock.
type Registry struct {
	strategies map[string]Strategy
	protocols  []string
}

// NewRegistry creates a Registry. A later strategy replaces an earlier one
// with the same protocol tag.
func NewRegistry(strategies ...Strategy) *Registry {
	registry := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, strategy := range strategies {
		if strategy == nil {
			continue
		}
		registry.strategies[strategy.Protocol()] = strategy
	}

	for protocol := range registry.strategies {
		registry.protocols = append(registry.protocols, protocol)
	}
	slices.Sort(registry.protocols)
	return registry
}

// DefaultRegistry creates a Registry holding the built-in strategies
func DefaultRegistry(logger log.Logger) *Registry {
	return NewRegistry(DefaultStrategy{}, NewTripleStrategy(logger))
}

// Lookup returns the strategy of protocol
func (r *Registry) Lookup(protocol string) (Strategy, error) {
	strategy, ok := r.strategies[protocol]
	if !ok {
		return nil, gerrors.NewErrProtocolNotSupported(protocol)
	}
	return strategy, nil
}

// Protocols returns the sorted protocol tags of the registry
func (r *Registry) Protocols() []string {
	return slices.Clone(r.protocols)
}
