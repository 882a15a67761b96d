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

// Package workerpool provides a sharded pool of workers used as dispatch
// execution units.
//
// Every worker owns one invocation.Unit for its whole life and detaches the
// context bound to that unit after every task, so no invocation context ever
// outlives the task that created it even though workers are reused.
package workerpool

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/tochemey/goinvoke/internal/ticker"
	"github.com/tochemey/goinvoke/invocation"
)

// Maximum number of shards supported by the worker pool
const maxShards = 128

// ErrPoolClosed is returned when submitting to a pool that is not running
var ErrPoolClosed = errors.New("worker pool is not running")

// Task is a unit of work. It receives the execution unit of the worker running it.
type Task func(unit *invocation.Unit)

// WorkerPool manages a pool of workers across multiple shards
type WorkerPool struct {
	binder         *invocation.Binder
	passivateAfter time.Duration
	numShards      int
	panicHandler   func(recovered any)

	shards         []*poolShard
	mutex          sync.RWMutex
	started        atomic.Bool
	stopped        atomic.Bool
	spawnedWorkers atomic.Int64
	workers        sync.WaitGroup
	cleanupDone    chan struct{}
	cleanupStopped chan struct{}
}

// worker is a goroutine bound to one execution unit
type worker struct {
	unit     *invocation.Unit
	work     chan Task
	shard    *poolShard
	lastUsed atomic.Int64
}

// poolShard is a subdivision of the pool owning a subset of the idle workers
type poolShard struct {
	wp      *WorkerPool
	mu      sync.Mutex
	idle    []*worker
	stopped bool
}

// New creates a new worker pool with the given options
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		binder:         invocation.DefaultBinder(),
		passivateAfter: time.Second,
		numShards:      1,
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	if wp.numShards < 1 {
		wp.numShards = 1
	} else if wp.numShards > maxShards {
		wp.numShards = maxShards
	}

	return wp
}

// SpawnedWorkers returns the current count of live workers
func (wp *WorkerPool) SpawnedWorkers() int {
	return int(wp.spawnedWorkers.Load())
}

// Start initializes the worker pool and begins the cleanup routine.
// It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() {
		return
	}

	wp.shards = make([]*poolShard, wp.numShards)
	for i := range wp.numShards {
		wp.shards[i] = &poolShard{wp: wp, idle: make([]*worker, 0, 64)}
	}

	wp.cleanupDone = make(chan struct{})
	wp.cleanupStopped = make(chan struct{})
	wp.started.Store(true)
	go wp.cleanup()
}

// Stop prevents new submissions, closes the idle workers and waits until
// every worker has exited or ctx is done. Workers busy with a task exit once
// the task returns.
func (wp *WorkerPool) Stop(ctx context.Context) error {
	wp.mutex.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mutex.Unlock()
		return nil
	}

	for _, shard := range wp.shards {
		shard.mu.Lock()
		shard.stopped = true
		for i, w := range shard.idle {
			close(w.work)
			shard.idle[i] = nil
		}
		shard.idle = shard.idle[:0]
		shard.mu.Unlock()
	}
	close(wp.cleanupDone)
	wp.mutex.Unlock()

	<-wp.cleanupStopped

	done := make(chan struct{})
	go func() {
		wp.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit hands task to a worker of a randomly selected shard
func (wp *WorkerPool) Submit(task Task) error {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return ErrPoolClosed
	}
	shard := wp.shards[rand.Uint32()%uint32(wp.numShards)]
	wp.mutex.RUnlock()

	return shard.dispatch(task)
}

// SubmitKeyed hands task to a worker of the shard owning key. Tasks sharing a
// key contend on the same shard, which keeps the idle workers of unrelated
// keys apart.
func (wp *WorkerPool) SubmitKeyed(key string, task Task) error {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return ErrPoolClosed
	}
	shard := wp.shards[xxh3.HashString(key)%uint64(wp.numShards)]
	wp.mutex.RUnlock()

	return shard.dispatch(task)
}

// dispatch reuses an idle worker or spawns a new one
func (shard *poolShard) dispatch(task Task) error {
	shard.mu.Lock()
	if shard.stopped {
		shard.mu.Unlock()
		return ErrPoolClosed
	}

	if length := len(shard.idle); length > 0 {
		w := shard.idle[length-1]
		shard.idle[length-1] = nil
		shard.idle = shard.idle[:length-1]
		shard.mu.Unlock()
		w.work <- task
		return nil
	}

	wp := shard.wp
	wp.workers.Add(1)
	shard.mu.Unlock()

	w := &worker{
		unit:  wp.binder.NewUnit(),
		work:  make(chan Task),
		shard: shard,
	}
	go w.run()
	w.work <- task
	return nil
}

// release returns the worker to the idle list. It returns false when the
// shard is stopped and the worker must exit.
func (shard *poolShard) release(w *worker) bool {
	w.lastUsed.Store(time.Now().UnixNano())
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped {
		return false
	}
	shard.idle = append(shard.idle, w)
	return true
}

func (w *worker) run() {
	wp := w.shard.wp
	wp.spawnedWorkers.Add(1)
	defer func() {
		wp.spawnedWorkers.Add(-1)
		wp.workers.Done()
	}()

	for task := range w.work {
		w.execute(task)
		if !w.shard.release(w) {
			return
		}
	}
}

// execute runs task and detaches whatever context it left on the unit
func (w *worker) execute(task Task) {
	defer w.unit.Detach()
	defer func() {
		if r := recover(); r != nil && w.shard.wp.panicHandler != nil {
			w.shard.wp.panicHandler(r)
		}
	}()
	task(w.unit)
}

// cleanup periodically closes the idle workers that haven't been used for
// longer than passivateAfter
func (wp *WorkerPool) cleanup() {
	defer close(wp.cleanupStopped)

	tick := ticker.New(wp.passivateAfter)
	tick.Start()
	defer tick.Stop()

	for {
		select {
		case <-wp.cleanupDone:
			return
		case now := <-tick.Ticks:
			cutoff := now.Add(-wp.passivateAfter).UnixNano()
			for _, shard := range wp.shards {
				shard.passivate(cutoff)
			}
		}
	}
}

// passivate closes the idle workers last used before cutoff. The idle list is
// ordered by release time so expired workers form its prefix.
func (shard *poolShard) passivate(cutoff int64) {
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped {
		return
	}

	expired := 0
	for expired < len(shard.idle) && shard.idle[expired].lastUsed.Load() < cutoff {
		close(shard.idle[expired].work)
		expired++
	}
	if expired == 0 {
		return
	}

	remaining := copy(shard.idle, shard.idle[expired:])
	for i := remaining; i < len(shard.idle); i++ {
		shard.idle[i] = nil
	}
	shard.idle = shard.idle[:remaining]
}
