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

package baggage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalf(t *testing.T) {
	t.Run("Absent is distinct from empty", func(t *testing.T) {
		half := NewHalf()
		_, ok := half.Get("missing")
		assert.False(t, ok)

		half.Put("empty", "")
		value, ok := half.Get("empty")
		require.True(t, ok)
		assert.Empty(t, value)
		assert.True(t, half.Has("empty"))
	})
	t.Run("Last write wins in place", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		half.Put("b", "2")
		half.Put("a", "3")

		assert.Equal(t, []string{"a", "b"}, half.Keys())
		value, _ := half.Get("a")
		assert.Equal(t, "3", value)
		assert.Equal(t, 2, half.Len())
	})
	t.Run("Empty key is ignored", func(t *testing.T) {
		half := NewHalf()
		half.Put("", "value")
		assert.True(t, half.IsEmpty())
	})
	t.Run("Remove keeps order", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		half.Put("b", "2")
		half.Put("c", "3")
		half.Remove("b")
		half.Remove("missing")

		assert.Equal(t, []string{"a", "c"}, half.Keys())
		assert.False(t, half.Has("b"))
	})
	t.Run("Removals compact and keep order", func(t *testing.T) {
		half := NewHalf()
		for i := range 100 {
			half.Put(fmt.Sprintf("k%02d", i), fmt.Sprint(i))
		}
		for i := 0; i < 100; i += 2 {
			half.Remove(fmt.Sprintf("k%02d", i))
		}
		// re-putting a removed key appends it, updating a live key does not move it
		half.Put("k00", "again")
		half.Put("k01", "updated")
		for i := 3; i < 60; i += 2 {
			half.Remove(fmt.Sprintf("k%02d", i))
		}

		assert.Equal(t, 22, half.Len())
		assert.LessOrEqual(t, len(half.keys), 2*half.Len())

		keys := half.Keys()
		require.Len(t, keys, 22)
		assert.Equal(t, "k01", keys[0])
		assert.Equal(t, "k61", keys[1])
		assert.Equal(t, "k00", keys[21])

		value, ok := half.Get("k01")
		require.True(t, ok)
		assert.Equal(t, "updated", value)

		ordered := make([]string, 0, half.Len())
		half.Range(func(key, _ string) bool {
			ordered = append(ordered, key)
			return true
		})
		assert.Equal(t, keys, ordered)
		assert.Equal(t, keys, half.Clone().Keys())
		assert.Len(t, half.All(), 22)
	})
	t.Run("Range stops early", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		half.Put("b", "2")
		var seen []string
		half.Range(func(key, _ string) bool {
			seen = append(seen, key)
			return false
		})
		assert.Equal(t, []string{"a"}, seen)
	})
	t.Run("Merge lets other win", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		half.Put("b", "2")

		other := NewHalf()
		other.Put("b", "20")
		other.Put("c", "30")

		half.Merge(other)
		half.Merge(nil)
		assert.Equal(t, map[string]string{"a": "1", "b": "20", "c": "30"}, half.All())
		assert.Equal(t, []string{"a", "b", "c"}, half.Keys())
	})
	t.Run("PutAll is deterministic", func(t *testing.T) {
		half := NewHalf()
		half.PutAll(map[string]string{"z": "1", "m": "2", "a": "3"})
		assert.Equal(t, []string{"a", "m", "z"}, half.Keys())
	})
	t.Run("Clone is deep", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		clone := half.Clone()
		clone.Put("a", "2")
		clone.Put("b", "3")

		value, _ := half.Get("a")
		assert.Equal(t, "1", value)
		assert.False(t, half.Has("b"))
	})
	t.Run("All returns a copy", func(t *testing.T) {
		half := NewHalf()
		half.Put("a", "1")
		all := half.All()
		all["a"] = "changed"
		value, _ := half.Get("a")
		assert.Equal(t, "1", value)
	})
}

func TestStore(t *testing.T) {
	store := NewStore()
	assert.True(t, store.IsEmpty())

	store.Request().Put("reqBaggageB", "a2bbb")
	store.RequestForce().Put("reqForce", "f")
	store.Response().Put("respBaggageB", "b2aaa")
	store.ResponseForce().Put("respBaggageB_force", "b2aaaff")
	assert.False(t, store.IsEmpty())

	// halves are independent
	assert.False(t, store.Request().Has("respBaggageB"))
	assert.False(t, store.Response().Has("respBaggageB_force"))

	clone := store.Clone()
	clone.Response().Put("respBaggageB", "other")
	value, _ := store.Response().Get("respBaggageB")
	assert.Equal(t, "b2aaa", value)

	store.Clear()
	assert.True(t, store.IsEmpty())
	assert.False(t, clone.IsEmpty())
}
