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

package callback

import (
	"context"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/message"
)

// Call is a callback style call in flight
type Call struct {
	request    *message.Request
	callback   ResponseCallback
	issuer     *invocation.Context
	baseCtx    context.Context
	state      *atomic.Int32
	cancelSend context.CancelFunc
	done       chan struct{}
	dispatcher *Dispatcher
}

// ID returns the call identifier
func (c *Call) ID() string {
	return c.request.CallID
}

// Method returns the called method
func (c *Call) Method() string {
	return c.request.Method
}

// State returns the current state of the call
func (c *Call) State() State {
	return State(c.state.Load())
}

// Done returns a channel closed once the response callback has returned
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the response callback has returned or ctx is done
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel resolves a pending call with a canceled framework failure.
// It returns false when the call was already resolved.
func (c *Call) Cancel() bool {
	return c.dispatcher.resolveFailure(c, gerrors.NewFrameworkError(gerrors.KindCanceled, c.Method(), context.Canceled))
}
