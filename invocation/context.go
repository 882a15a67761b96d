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

// Package invocation provides the invocation context: the per call container of
// baggage and call scoped state, and the binding table that associates at most
// one context with each execution unit.
//
// Execution units are explicit in Go. A Unit is created from a Binder and is
// carried through a call by the context.Context handed to provider handlers
// and callback handlers:
//
//	unit := invocation.DefaultBinder().NewUnit()
//	ctx := invocation.WithUnit(context.Background(), unit)
//	ic, _ := invocation.Current(ctx)
//	ic.PutRequestBaggage("tenant", "acme")
package invocation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/goinvoke/baggage"
)

// Context is the invocation context of one logical call.
//
// A Context is bound to at most one execution unit at a time. Its baggage
// operations are guarded by a mutex because the callback dispatcher merges the
// response baggage of asynchronous calls into the issuing context from a
// dispatch unit while the issuer may still run.
type Context struct {
	id    string
	mu    sync.RWMutex
	store *baggage.Store

	values    map[string]any
	timeout   time.Duration
	targetURL string

	// owner is the ID of the unit the context is bound to, empty when unbound
	owner *atomic.String
}

// New creates an empty, unbound invocation context
func New() *Context {
	return &Context{
		id:     uuid.NewString(),
		store:  baggage.NewStore(),
		values: make(map[string]any),
		owner:  atomic.NewString(""),
	}
}

// ID returns the unique identifier of the context instance
func (x *Context) ID() string {
	return x.id
}

// BoundTo returns the ID of the unit the context is bound to, and false when unbound
func (x *Context) BoundTo() (string, bool) {
	owner := x.owner.Load()
	return owner, owner != ""
}

// PutRequestBaggage sets a request baggage entry. Request baggage is visible to
// every hop downstream of the next calls issued with this context.
func (x *Context) PutRequestBaggage(key, value string) {
	x.mu.Lock()
	x.store.Request().Put(key, value)
	x.mu.Unlock()
}

// GetRequestBaggage returns a request baggage entry and whether it is set
func (x *Context) GetRequestBaggage(key string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.Request().Get(key)
}

// RemoveRequestBaggage removes a request baggage entry
func (x *Context) RemoveRequestBaggage(key string) {
	x.mu.Lock()
	x.store.Request().Remove(key)
	x.mu.Unlock()
}

// AllRequestBaggage returns a copy of the request baggage
func (x *Context) AllRequestBaggage() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.Request().All()
}

// PutRequestBaggageForce sets a forced request baggage entry
func (x *Context) PutRequestBaggageForce(key, value string) {
	x.mu.Lock()
	x.store.RequestForce().Put(key, value)
	x.mu.Unlock()
}

// GetRequestBaggageForce returns a forced request baggage entry and whether it is set
func (x *Context) GetRequestBaggageForce(key string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.RequestForce().Get(key)
}

// AllRequestBaggageForce returns a copy of the forced request baggage
func (x *Context) AllRequestBaggageForce() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.RequestForce().All()
}

// PutResponseBaggage sets a response baggage entry. It is sent back to the
// caller only when the call completes a business round trip.
func (x *Context) PutResponseBaggage(key, value string) {
	x.mu.Lock()
	x.store.Response().Put(key, value)
	x.mu.Unlock()
}

// GetResponseBaggage returns a response baggage entry and whether it is set
func (x *Context) GetResponseBaggage(key string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.Response().Get(key)
}

// RemoveResponseBaggage removes a response baggage entry
func (x *Context) RemoveResponseBaggage(key string) {
	x.mu.Lock()
	x.store.Response().Remove(key)
	x.mu.Unlock()
}

// AllResponseBaggage returns a copy of the response baggage
func (x *Context) AllResponseBaggage() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.Response().All()
}

// PutResponseBaggageForce sets a forced response baggage entry. It is sent back
// to the caller even when the call ends with a framework failure.
func (x *Context) PutResponseBaggageForce(key, value string) {
	x.mu.Lock()
	x.store.ResponseForce().Put(key, value)
	x.mu.Unlock()
}

// GetResponseBaggageForce returns a forced response baggage entry and whether it is set
func (x *Context) GetResponseBaggageForce(key string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.ResponseForce().Get(key)
}

// AllResponseBaggageForce returns a copy of the forced response baggage
func (x *Context) AllResponseBaggageForce() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.store.ResponseForce().All()
}

// ReadBaggage runs fn with read access to the baggage store
func (x *Context) ReadBaggage(fn func(store *baggage.Store)) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	fn(x.store)
}

// WriteBaggage runs fn with write access to the baggage store
func (x *Context) WriteBaggage(fn func(store *baggage.Store)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	fn(x.store)
}

// Set stores a call scoped value
func (x *Context) Set(key string, value any) {
	x.mu.Lock()
	x.values[key] = value
	x.mu.Unlock()
}

// Get returns a call scoped value and whether it is set
func (x *Context) Get(key string) (any, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	value, ok := x.values[key]
	return value, ok
}

// Delete removes a call scoped value
func (x *Context) Delete(key string) {
	x.mu.Lock()
	delete(x.values, key)
	x.mu.Unlock()
}

// SetTimeout overrides the timeout of the next calls issued with this context.
// A zero duration clears the override.
func (x *Context) SetTimeout(timeout time.Duration) {
	x.mu.Lock()
	x.timeout = timeout
	x.mu.Unlock()
}

// Timeout returns the timeout override, zero when unset
func (x *Context) Timeout() time.Duration {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.timeout
}

// SetTargetURL overrides the target of the next calls issued with this context
func (x *Context) SetTargetURL(url string) {
	x.mu.Lock()
	x.targetURL = url
	x.mu.Unlock()
}

// TargetURL returns the target override, empty when unset
func (x *Context) TargetURL() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.targetURL
}
