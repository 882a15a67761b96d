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

package propagation

import (
	"slices"

	"github.com/tochemey/goinvoke/baggage"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
)

const (
	// DefaultMaxFields is the default number of baggage fields a block may carry
	DefaultMaxFields = 256
	// DefaultMaxValueSize is the default size in bytes of a baggage value
	DefaultMaxValueSize = 8 * 1024
)

// Outcome classifies how a call ended. It decides which response baggage
// flows back to the caller.
type Outcome int

const (
	// OutcomeValue is a value carrying return
	OutcomeValue Outcome = iota
	// OutcomeAppException is a business failure raised by the callee
	OutcomeAppException
	// OutcomeFrameworkFailure is a transport, timeout, serialization or invoker failure
	OutcomeFrameworkFailure
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeValue:
		return "value"
	case OutcomeAppException:
		return "app_exception"
	case OutcomeFrameworkFailure:
		return "framework_failure"
	default:
		return "unknown"
	}
}

// carriesNormal reports whether normal response baggage flows for the outcome.
// A business method that raised still completed a round trip.
func (o Outcome) carriesNormal() bool {
	return o == OutcomeValue || o == OutcomeAppException
}

// Codec projects invocation context baggage into envelope fields and back.
// A Codec is stateless and safe for concurrent use.
type Codec struct {
	maxFields    int
	maxValueSize int
	logger       log.Logger
}

// NewCodec creates a Codec
func NewCodec(opts ...Option) *Codec {
	codec := &Codec{
		maxFields:    DefaultMaxFields,
		maxValueSize: DefaultMaxValueSize,
		logger:       log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(codec)
	}
	return codec
}

// EncodeOutbound projects the request baggage of ctx into the fields of an
// outgoing request. A nil context encodes to an empty block.
func (c *Codec) EncodeOutbound(ctx *invocation.Context) Fields {
	fields := make(Fields)
	if ctx == nil {
		return fields
	}

	ctx.ReadBaggage(func(store *baggage.Store) {
		c.project(fields, RequestBaggagePrefix, store.Request())
		c.project(fields, RequestBaggageForcePrefix, store.RequestForce())
	})
	return fields
}

// DecodeInbound builds a fresh context from the fields of an inbound request.
// Absent fields decode to empty halves.
func (c *Codec) DecodeInbound(fields Fields) *invocation.Context {
	ctx := invocation.New()
	ctx.WriteBaggage(func(store *baggage.Store) {
		c.fill(store.Request(), fields, RequestBaggagePrefix)
		c.fill(store.RequestForce(), fields, RequestBaggageForcePrefix)
	})
	return ctx
}

// EncodeReturn projects the response baggage of ctx into the fields of a
// reply. Forced baggage is always projected while normal baggage is projected
// only when the outcome completed a business round trip.
func (c *Codec) EncodeReturn(ctx *invocation.Context, outcome Outcome) Fields {
	fields := make(Fields)
	if ctx == nil {
		return fields
	}

	ctx.ReadBaggage(func(store *baggage.Store) {
		if outcome.carriesNormal() {
			c.project(fields, ResponseBaggagePrefix, store.Response())
		}
		c.project(fields, ResponseBaggageForcePrefix, store.ResponseForce())
	})
	return fields
}

// MergeReturn merges the response baggage carried by fields into the caller
// context. Forced baggage is always merged and normal baggage only when the
// outcome completed a business round trip.
func (c *Codec) MergeReturn(ctx *invocation.Context, fields Fields, outcome Outcome) {
	if ctx == nil || len(fields) == 0 {
		return
	}

	ctx.WriteBaggage(func(store *baggage.Store) {
		if outcome.carriesNormal() {
			c.fill(store.Response(), fields, ResponseBaggagePrefix)
		}
		c.fill(store.ResponseForce(), fields, ResponseBaggageForcePrefix)
	})
}

func (c *Codec) project(fields Fields, prefix string, half *baggage.Half) {
	count := 0
	half.Range(func(key, value string) bool {
		if c.admit(key, value, count) {
			fields[prefix+key] = value
			count++
		}
		return true
	})
}

func (c *Codec) fill(half *baggage.Half, fields Fields, prefix string) {
	entries := fields.WithPrefix(prefix)
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := entries[key]
		if !c.admit(key, value, half.Len()) {
			continue
		}
		half.Put(key, value)
	}
}

// admit reports whether an entry fits the configured limits
func (c *Codec) admit(key, value string, count int) bool {
	if count >= c.maxFields {
		c.logger.Warnf("baggage entry (%s) dropped: more than %d fields", key, c.maxFields)
		return false
	}
	if len(value) > c.maxValueSize {
		c.logger.Warnf("baggage entry (%s) dropped: value of %d bytes exceeds %d", key, len(value), c.maxValueSize)
		return false
	}
	return true
}
