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

package consumer

import (
	"github.com/tochemey/goinvoke/callback"
	"github.com/tochemey/goinvoke/invocation"
)

const (
	responseCallbackKey = "goinvoke.consumer.response_callback"
	futureKey           = "goinvoke.consumer.future"
)

// SetResponseCallback sets the response callback of the next callback style
// call issued while ic is bound. It is consumed by that call.
func SetResponseCallback(ic *invocation.Context, cb callback.ResponseCallback) {
	if ic == nil {
		return
	}
	if cb == nil {
		ic.Delete(responseCallbackKey)
		return
	}
	ic.Set(responseCallbackKey, cb)
}

// ResponseCallbackOf returns the response callback set on ic
func ResponseCallbackOf(ic *invocation.Context) (callback.ResponseCallback, bool) {
	if ic == nil {
		return nil, false
	}
	value, ok := ic.Get(responseCallbackKey)
	if !ok {
		return nil, false
	}
	cb, ok := value.(callback.ResponseCallback)
	return cb, ok
}

// FutureOf returns the future of the last future style call issued while ic
// was bound
func FutureOf(ic *invocation.Context) (*Future, bool) {
	if ic == nil {
		return nil, false
	}
	value, ok := ic.Get(futureKey)
	if !ok {
		return nil, false
	}
	future, ok := value.(*Future)
	return future, ok
}

func takeResponseCallback(ic *invocation.Context) (callback.ResponseCallback, bool) {
	cb, ok := ResponseCallbackOf(ic)
	if ok {
		ic.Delete(responseCallbackKey)
	}
	return cb, ok
}
