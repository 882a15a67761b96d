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

package invocation

import (
	"context"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/xsync"
)

var defaultBinder = NewBinder()

// DefaultBinder returns the process wide binding table
func DefaultBinder() *Binder {
	return defaultBinder
}

// Binder is the binding table associating execution units with the invocation
// context currently bound to them. It is safe for concurrent use by distinct units.
type Binder struct {
	bindings *xsync.Map[string, *Context]
}

// NewBinder creates an empty binding table
func NewBinder() *Binder {
	return &Binder{bindings: xsync.NewMap[string, *Context]()}
}

// NewUnit creates an execution unit bound to this table
func (b *Binder) NewUnit() *Unit {
	return &Unit{id: uuid.NewString(), binder: b}
}

// Current returns the context bound to unit, binding a new empty context on first access
func (b *Binder) Current(unit *Unit) *Context {
	ctx, _ := b.bindings.GetOrSet(unit.id, func() *Context {
		created := New()
		created.owner.Store(unit.id)
		return created
	})
	return ctx
}

// Peek returns the context bound to unit without creating one
func (b *Binder) Peek(unit *Unit) (*Context, bool) {
	return b.bindings.Get(unit.id)
}

// Attach binds ctx to unit, replacing and unbinding any previous binding.
// It fails with ErrContextAlreadyBound when ctx is bound to another unit.
func (b *Binder) Attach(unit *Unit, ctx *Context) error {
	if !ctx.owner.CompareAndSwap("", unit.id) && ctx.owner.Load() != unit.id {
		return gerrors.ErrContextAlreadyBound
	}

	previous, ok := b.bindings.Get(unit.id)
	b.bindings.Set(unit.id, ctx)
	if ok && previous != ctx {
		previous.owner.CompareAndSwap(unit.id, "")
	}
	return nil
}

// Detach unbinds and discards the context bound to unit. References obtained
// before keep their last state but are never returned again for this unit.
func (b *Binder) Detach(unit *Unit) {
	if ctx, ok := b.bindings.LoadAndDelete(unit.id); ok {
		ctx.owner.CompareAndSwap(unit.id, "")
	}
}

// Len returns the number of units with a bound context
func (b *Binder) Len() int {
	return b.bindings.Len()
}

// Unit is an execution unit: a worker, goroutine or task to which at most one
// invocation context is bound at a time. A Unit must not be used by two
// goroutines at once.
type Unit struct {
	id     string
	binder *Binder
}

// ID returns the unit identifier
func (u *Unit) ID() string {
	return u.id
}

// Binder returns the binding table of the unit
func (u *Unit) Binder() *Binder {
	return u.binder
}

// Current returns the context bound to the unit, creating it on first access
func (u *Unit) Current() *Context {
	return u.binder.Current(u)
}

// Peek returns the bound context without creating one
func (u *Unit) Peek() (*Context, bool) {
	return u.binder.Peek(u)
}

// Attach binds ctx to the unit
func (u *Unit) Attach(ctx *Context) error {
	return u.binder.Attach(u, ctx)
}

// Detach unbinds the context bound to the unit
func (u *Unit) Detach() {
	u.binder.Detach(u)
}

// Remove is an alias of Detach
func (u *Unit) Remove() {
	u.binder.Detach(u)
}

type unitKey struct{}

// WithUnit returns a go context carrying unit
func WithUnit(ctx context.Context, unit *Unit) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// UnitFromContext returns the unit carried by ctx
func UnitFromContext(ctx context.Context) (*Unit, bool) {
	unit, ok := ctx.Value(unitKey{}).(*Unit)
	return unit, ok && unit != nil
}

type servingUnitKey struct{}

// WithServingUnit returns a go context carrying unit as the unit a transport
// runs an inbound call on. Providers reuse a serving unit instead of creating
// one. A unit set later with WithUnit supersedes the mark.
func WithServingUnit(ctx context.Context, unit *Unit) context.Context {
	return context.WithValue(WithUnit(ctx, unit), servingUnitKey{}, unit)
}

// ServingUnitFromContext returns the serving unit carried by ctx. A unit
// inherited from a caller is never a serving unit.
func ServingUnitFromContext(ctx context.Context) (*Unit, bool) {
	serving, ok := ctx.Value(servingUnitKey{}).(*Unit)
	if !ok || serving == nil {
		return nil, false
	}
	if unit, ok := UnitFromContext(ctx); !ok || unit != serving {
		return nil, false
	}
	return serving, true
}

// Current returns the invocation context bound to the unit carried by ctx,
// creating it on first access. It fails with ErrNoExecutionUnit when ctx
// carries no unit.
func Current(ctx context.Context) (*Context, error) {
	unit, ok := UnitFromContext(ctx)
	if !ok {
		return nil, gerrors.ErrNoExecutionUnit
	}
	return unit.Current(), nil
}

// Remove detaches the invocation context bound to the unit carried by ctx
func Remove(ctx context.Context) error {
	unit, ok := UnitFromContext(ctx)
	if !ok {
		return gerrors.ErrNoExecutionUnit
	}
	unit.Detach()
	return nil
}
