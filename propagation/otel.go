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
	"context"

	otelbaggage "go.opentelemetry.io/otel/baggage"

	"github.com/tochemey/goinvoke/invocation"
)

// ToOTelBaggage maps the request baggage of ctx to W3C baggage members.
// Entries that are not valid members are skipped.
func ToOTelBaggage(ctx *invocation.Context) (otelbaggage.Baggage, error) {
	if ctx == nil {
		return otelbaggage.Baggage{}, nil
	}

	entries := ctx.AllRequestBaggage()
	members := make([]otelbaggage.Member, 0, len(entries))
	for key, value := range entries {
		member, err := otelbaggage.NewMemberRaw(key, value)
		if err != nil {
			continue
		}
		members = append(members, member)
	}
	return otelbaggage.New(members...)
}

// FromOTelBaggage copies the members of bag into the request baggage of ctx.
// Existing entries with the same key are overwritten.
func FromOTelBaggage(bag otelbaggage.Baggage, ctx *invocation.Context) {
	if ctx == nil {
		return
	}
	for _, member := range bag.Members() {
		ctx.PutRequestBaggage(member.Key(), member.Value())
	}
}

// ContextWithOTelBaggage returns a go context carrying the request baggage of
// ic as W3C baggage, so otel propagators pick it up.
func ContextWithOTelBaggage(ctx context.Context, ic *invocation.Context) (context.Context, error) {
	bag, err := ToOTelBaggage(ic)
	if err != nil {
		return ctx, err
	}
	return otelbaggage.ContextWithBaggage(ctx, bag), nil
}
