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

package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/goinvoke/invocation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool(t *testing.T) {
	t.Run("With happy path", func(t *testing.T) {
		ctx := context.Background()
		pool := New(WithNumShards(256), WithPassivateAfter(10*time.Millisecond))
		require.NotNil(t, pool)

		pool.Start()
		require.Zero(t, pool.SpawnedWorkers())

		workCount := 1000
		var executed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(workCount)
		for range workCount {
			require.NoError(t, pool.Submit(func(*invocation.Unit) {
				defer wg.Done()
				time.Sleep(time.Millisecond)
				executed.Add(1)
			}))
		}
		require.NotZero(t, pool.SpawnedWorkers())

		wg.Wait()
		assert.EqualValues(t, workCount, executed.Load())

		// idle workers are passivated
		require.Eventually(t, func() bool {
			return pool.SpawnedWorkers() == 0
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, pool.Stop(ctx))
		// already stopped
		require.NoError(t, pool.Stop(ctx))
		require.ErrorIs(t, pool.Submit(func(*invocation.Unit) {}), ErrPoolClosed)
	})
	t.Run("When not started", func(t *testing.T) {
		pool := New(WithNumShards(0))
		require.NotNil(t, pool)
		require.ErrorIs(t, pool.Submit(func(*invocation.Unit) {}), ErrPoolClosed)
		require.ErrorIs(t, pool.SubmitKeyed("key", func(*invocation.Unit) {}), ErrPoolClosed)
		require.NoError(t, pool.Stop(context.Background()))
		assert.False(t, pool.stopped.Load())
	})
	t.Run("Units are detached after every task", func(t *testing.T) {
		binder := invocation.NewBinder()
		pool := New(WithBinder(binder))
		pool.Start()
		t.Cleanup(func() { _ = pool.Stop(context.Background()) })

		units := make(chan string, 2)
		for round := range 2 {
			done := make(chan struct{})
			require.NoError(t, pool.SubmitKeyed("same-key", func(unit *invocation.Unit) {
				defer close(done)
				units <- unit.ID()
				ctx := unit.Current()
				_, leaked := ctx.GetRequestBaggage("round")
				assert.False(t, leaked, "round %d observed a leaked context", round)
				ctx.PutRequestBaggage("round", "set")
			}))
			<-done
			require.Eventually(t, func() bool { return idleWorkers(pool) == 1 }, time.Second, time.Millisecond)
		}

		// a single shard and sequential tasks reuse the same worker
		first, second := <-units, <-units
		assert.Equal(t, first, second)
		require.Eventually(t, func() bool { return binder.Len() == 0 }, time.Second, time.Millisecond)
	})
	t.Run("Panicking task keeps the worker alive", func(t *testing.T) {
		var recovered atomic.Value
		pool := New(WithPanicHandler(func(r any) { recovered.Store(r) }))
		pool.Start()
		t.Cleanup(func() { _ = pool.Stop(context.Background()) })

		done := make(chan struct{})
		require.NoError(t, pool.Submit(func(*invocation.Unit) { panic("boom") }))
		require.NoError(t, pool.Submit(func(*invocation.Unit) { close(done) }))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("task after panic never ran")
		}
		require.Eventually(t, func() bool { return recovered.Load() == "boom" }, time.Second, time.Millisecond)
	})
	t.Run("Stop waits for busy workers", func(t *testing.T) {
		pool := New()
		pool.Start()

		release := make(chan struct{})
		var finished atomic.Bool
		require.NoError(t, pool.Submit(func(*invocation.Unit) {
			<-release
			finished.Store(true)
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, pool.Stop(ctx), context.DeadlineExceeded)

		close(release)
		require.Eventually(t, func() bool {
			return finished.Load() && pool.SpawnedWorkers() == 0
		}, time.Second, time.Millisecond)
	})
}

func idleWorkers(pool *WorkerPool) int {
	count := 0
	for _, shard := range pool.shards {
		shard.mu.Lock()
		count += len(shard.idle)
		shard.mu.Unlock()
	}
	return count
}
