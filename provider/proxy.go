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

package provider

import (
	"context"

	"google.golang.org/protobuf/proto"
)

// Proxy is the framework dispatch proxy handed to implementations that accept
// one at export time. Calls made through it run the filter chain of the
// invoker before reaching the bound implementation.
type Proxy struct {
	invoker *ProxyInvoker
}

// Service returns the exported service key the proxy dispatches to
func (x *Proxy) Service() string {
	return x.invoker.service.Name
}

// Invoke dispatches method to the bound implementation
func (x *Proxy) Invoke(ctx context.Context, method string, payload proto.Message) (proto.Message, error) {
	return x.invoker.invoke(ctx, &Invocation{
		Service: x.invoker.service.Name,
		Method:  method,
		Payload: payload,
	})
}
