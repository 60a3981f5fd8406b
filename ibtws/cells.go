/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ibtws

import "sync"

// cell is a last-value-wins observable slot: readers see the most
// recently published value, or the zero value with ok=false before the
// first publish. It generalizes the defensive-copy-under-RWMutex
// pattern the teacher uses throughout tradestore.go/orderstore.go
// (store a value, hand callers a copy, never a shared pointer) down to
// a single slot instead of a map.
//
// The reader task (producer) and the caller (consumer) hold the same
// *cell, handed to both at construction time, so the reader task never
// needs a reference back to the client handle — see DESIGN.md's note on
// the cyclic-lifetime resolution.
type cell[T any] struct {
	mu    sync.RWMutex
	val   T
	valid bool
}

func newCell[T any]() *cell[T] {
	return &cell[T]{}
}

// set publishes a new value. Called only by the producer side
// (exclusively owned by the reader loop); never blocks.
func (c *cell[T]) set(v T) {
	c.mu.Lock()
	c.val = v
	c.valid = true
	c.mu.Unlock()
}

// get returns the latest value and whether one has ever been published.
func (c *cell[T]) get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val, c.valid
}

// queue is an unbounded FIFO that retains every pushed value until
// drained. It generalizes tradestore.go's ring buffer into an
// unbounded append-only list — IB's execution/commission streams are
// unbounded-but-bounded-in-practice per order, unlike tradestore's
// fixed-capacity trade history, so no eviction policy is needed here.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{}
}

// push appends a value. Called only by the producer side.
func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// drainInto copies every item accumulated so far onto the end of dst
// and returns the extended slice. Items are not removed from the
// queue, so a second call copies them again.
func (q *queue[T]) drainInto(dst []T) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append(dst, q.items...)
}

// all returns a defensive copy of every item pushed so far.
func (q *queue[T]) all() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
