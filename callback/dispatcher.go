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
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"
	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/metric"
	"github.com/tochemey/goinvoke/internal/workerpool"
	"github.com/tochemey/goinvoke/internal/xsync"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/telemetry"
)

// SendFunc hands a request to the transport and waits for its reply until ctx
// is done
type SendFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

// resolution is the classified outcome of a call
type resolution struct {
	state    State
	value    proto.Message
	appErr   *gerrors.AppError
	frameErr *gerrors.FrameworkError
	fields   propagation.Fields
	outcome  propagation.Outcome
}

// Dispatcher issues callback style calls and delivers their outcome on
// dispatch execution units.
//
// Every call reaches exactly one delivered state, whatever the interleaving of
// its reply, its deadline, a cancellation or a shutdown. Replies arriving
// after the call was resolved are discarded.
type Dispatcher struct {
	codec          *propagation.Codec
	binder         *invocation.Binder
	logger         log.Logger
	telemetry      *telemetry.Telemetry
	shards         int
	passivateAfter time.Duration

	pool    *workerpool.WorkerPool
	metric  *metric.CallbackMetric
	pending *xsync.Map[string, *Call]

	mu        sync.RWMutex
	stopped   *atomic.Bool
	delivered sync.WaitGroup
	senders   sync.WaitGroup
}

// NewDispatcher creates and starts a Dispatcher
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	dispatcher := &Dispatcher{
		codec:          propagation.NewCodec(),
		binder:         invocation.DefaultBinder(),
		logger:         log.DefaultLogger,
		telemetry:      telemetry.New(),
		shards:         4,
		passivateAfter: time.Minute,
		pending:        xsync.NewMap[string, *Call](),
		stopped:        atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(dispatcher)
	}

	callbackMetric, err := metric.NewCallbackMetric(dispatcher.telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("callback: %w", err)
	}
	dispatcher.metric = callbackMetric

	dispatcher.pool = workerpool.New(
		workerpool.WithBinder(dispatcher.binder),
		workerpool.WithNumShards(dispatcher.shards),
		workerpool.WithPassivateAfter(dispatcher.passivateAfter),
		workerpool.WithPanicHandler(func(recovered any) {
			dispatcher.logger.Errorf("dispatch unit recovered from panic: %v", recovered)
		}),
	)
	dispatcher.pool.Start()
	return dispatcher, nil
}

// Pending returns the number of calls whose response callback has not returned yet
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

// Dispatch issues req through send and returns without waiting for the reply.
//
// The outcome is delivered to cb on a dispatch unit. issuer is the invocation
// context of the issuing unit: the response baggage of the call is merged into
// it before cb runs. It may be nil. The call deadline is the request deadline;
// a zero deadline lets the call wait until the transport gives up.
func (d *Dispatcher) Dispatch(ctx context.Context, send SendFunc, req *message.Request, cb ResponseCallback, issuer *invocation.Context) (*Call, error) {
	if cb == nil {
		return nil, gerrors.ErrUndefinedCallback
	}
	if send == nil || req == nil {
		return nil, errors.New("callback: send function and request are required")
	}

	baseCtx := context.WithoutCancel(ctx)
	var (
		sendCtx context.Context
		cancel  context.CancelFunc
	)
	if req.Deadline.IsZero() {
		sendCtx, cancel = context.WithCancel(baseCtx)
	} else {
		sendCtx, cancel = context.WithDeadline(baseCtx, req.Deadline)
	}

	call := &Call{
		request:    req,
		callback:   cb,
		issuer:     issuer,
		baseCtx:    baseCtx,
		state:      atomic.NewInt32(int32(StateIssued)),
		cancelSend: cancel,
		done:       make(chan struct{}),
		dispatcher: d,
	}

	d.mu.RLock()
	if d.stopped.Load() {
		d.mu.RUnlock()
		cancel()
		return nil, gerrors.ErrDispatcherStopped
	}
	d.pending.Set(call.ID(), call)
	d.delivered.Add(1)
	d.senders.Add(1)
	d.mu.RUnlock()

	d.metric.Issued(ctx)
	call.state.CompareAndSwap(int32(StateIssued), int32(StateAwaitingResult))

	go d.await(sendCtx, send, call)
	return call, nil
}

// Stop rejects new calls and resolves every pending call with a shutdown
// framework failure. It waits for the response callbacks to return until ctx
// is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped.CompareAndSwap(false, true) {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	for _, call := range d.pending.Values() {
		d.resolveFailure(call, gerrors.NewFrameworkError(gerrors.KindShutdown, call.Method(), gerrors.ErrDispatcherStopped))
	}

	waitDone := make(chan struct{})
	go func() {
		d.delivered.Wait()
		d.senders.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-ctx.Done():
		return fmt.Errorf("callback: dispatcher stop: %w", ctx.Err())
	}

	return d.pool.Stop(ctx)
}

// await runs the transport send of call and resolves the call from its outcome
func (d *Dispatcher) await(ctx context.Context, send SendFunc, call *Call) {
	defer d.senders.Done()

	type reply struct {
		resp *message.Response
		err  error
	}

	replies := make(chan reply, 1)
	go func() {
		resp, err := send(ctx, call.request)
		replies <- reply{resp: resp, err: err}
	}()

	select {
	case out := <-replies:
		if ctx.Err() == nil {
			if !d.settle(call, d.classify(call, out.resp, out.err)) && out.err == nil {
				d.discardLate(call)
			}
			return
		}
		d.expire(ctx, call)
		if out.err == nil {
			d.discardLate(call)
		}
	case <-ctx.Done():
		d.expire(ctx, call)
		// the transport returns once it observes ctx
		if out := <-replies; out.err == nil {
			d.discardLate(call)
		}
	}
}

// expire resolves call with a timeout when its deadline passed
func (d *Dispatcher) expire(ctx context.Context, call *Call) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		d.resolveFailure(call, gerrors.NewFrameworkError(gerrors.KindTimeout, call.Method(), ctx.Err()))
	}
}

func (d *Dispatcher) discardLate(call *Call) {
	d.logger.Debugf("late reply of call (%s) method (%s) discarded", call.ID(), call.Method())
	d.metric.LateReply(call.baseCtx)
}

// classify turns a transport outcome into a resolution
func (d *Dispatcher) classify(call *Call, resp *message.Response, err error) resolution {
	if err != nil {
		return failure(gerrors.AsFrameworkError(err, gerrors.KindTransport, call.Method()))
	}
	if resp == nil {
		return failure(gerrors.NewFrameworkError(gerrors.KindTransport, call.Method(), errors.New("empty reply")))
	}
	if resp.IsAppException() {
		return resolution{
			state:   StateDeliveredAppException,
			appErr:  resp.AppError,
			fields:  resp.Fields,
			outcome: propagation.OutcomeAppException,
		}
	}

	value, err := resp.Unpack()
	if err != nil {
		frameErr := gerrors.AsFrameworkError(err, gerrors.KindSerialization, call.Method()).
			WithFields(resp.Fields.ForcedOnly())
		return failure(frameErr)
	}

	return resolution{
		state:   StateDeliveredAppResponse,
		value:   value,
		fields:  resp.Fields,
		outcome: propagation.OutcomeValue,
	}
}

func failure(frameErr *gerrors.FrameworkError) resolution {
	return resolution{
		state:    StateDeliveredFrameworkException,
		frameErr: frameErr,
		fields:   propagation.Fields(frameErr.Fields),
		outcome:  propagation.OutcomeFrameworkFailure,
	}
}

// resolveFailure settles call with a framework failure
func (d *Dispatcher) resolveFailure(call *Call, frameErr *gerrors.FrameworkError) bool {
	return d.settle(call, failure(frameErr))
}

// settle moves call to its delivered state and schedules the response
// callback. It returns false when the call was already resolved.
func (d *Dispatcher) settle(call *Call, res resolution) bool {
	for {
		current := State(call.state.Load())
		if current.IsTerminal() {
			return false
		}
		if call.state.CompareAndSwap(int32(current), int32(res.state)) {
			break
		}
	}

	call.cancelSend()

	task := func(unit *invocation.Unit) {
		d.deliver(unit, call, res)
	}

	if err := d.submit(call, task); err != nil {
		// the pool only stops once every call is delivered, deliver inline
		unit := d.binder.NewUnit()
		task(unit)
		unit.Remove()
	}
	return true
}

// submit hands the delivery of call to the pool. Deliveries merging into the
// same issuer context go to the shard owning that context.
func (d *Dispatcher) submit(call *Call, task workerpool.Task) error {
	if call.issuer != nil {
		return d.pool.SubmitKeyed(call.issuer.ID(), task)
	}
	return d.pool.Submit(task)
}

// deliver runs the response callback of call on unit
func (d *Dispatcher) deliver(unit *invocation.Unit, call *Call, res resolution) {
	defer d.settled(call, res.state)

	dispatchCtx := invocation.New()
	if err := unit.Attach(dispatchCtx); err != nil {
		d.logger.Errorf("failed to attach dispatch context of call (%s): %v", call.ID(), err)
	}
	defer unit.Detach()

	d.codec.MergeReturn(dispatchCtx, res.fields, res.outcome)
	if call.issuer != nil {
		d.codec.MergeReturn(call.issuer, res.fields, res.outcome)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("response callback of call (%s) method (%s) panicked: %v\n%s",
				call.ID(), call.Method(), r, debug.Stack())
		}
	}()

	ctx := invocation.WithUnit(call.baseCtx, unit)
	switch res.state {
	case StateDeliveredAppResponse:
		call.callback.OnAppResponse(ctx, res.value, call.Method(), call.request)
	case StateDeliveredAppException:
		call.callback.OnAppException(ctx, res.appErr, call.Method(), call.request)
	default:
		call.callback.OnFrameworkException(ctx, res.frameErr, call.Method(), call.request)
	}
}

func (d *Dispatcher) settled(call *Call, state State) {
	d.pending.Delete(call.ID())
	d.metric.Delivered(call.baseCtx, state.outcomeLabel())
	d.metric.Settled(call.baseCtx)
	close(call.done)
	d.delivered.Done()
}
