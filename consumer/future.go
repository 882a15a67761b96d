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
	"context"
	"sync"

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/goinvoke/callback"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
)

// Future is the pending result of a future style call. It is resolved by the
// callback dispatcher, so the response baggage of the call is merged into the
// issuing context before the result becomes available.
type Future struct {
	completeOnce sync.Once
	done         chan struct{}
	value        proto.Message
	err          error
	call         *callback.Call
}

var _ callback.ResponseCallback = (*Future)(nil)

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Await blocks until the future is resolved or ctx is done. An application
// exception is returned as *errors.AppError and any other failure as
// *errors.FrameworkError.
func (f *Future) Await(ctx context.Context) (proto.Message, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed once the future is resolved
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel cancels the underlying call. It returns false when the call was
// already resolved.
func (f *Future) Cancel() bool {
	if f.call == nil {
		return false
	}
	return f.call.Cancel()
}

// OnAppResponse implements callback.ResponseCallback
func (f *Future) OnAppResponse(_ context.Context, appResponse proto.Message, _ string, _ *message.Request) {
	f.complete(appResponse, nil)
}

// OnAppException implements callback.ResponseCallback
func (f *Future) OnAppException(_ context.Context, err *gerrors.AppError, _ string, _ *message.Request) {
	f.complete(nil, err)
}

// OnFrameworkException implements callback.ResponseCallback
func (f *Future) OnFrameworkException(_ context.Context, err *gerrors.FrameworkError, _ string, _ *message.Request) {
	f.complete(nil, err)
}

func (f *Future) complete(value proto.Message, err error) {
	f.completeOnce.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}
