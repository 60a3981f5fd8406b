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

import "testing"

func TestCellUnsetUntilFirstPublish(t *testing.T) {
	c := newCell[int]()
	if _, ok := c.get(); ok {
		t.Fatalf("expected unset cell to report ok=false")
	}
	c.set(42)
	v, ok := c.get()
	if !ok || v != 42 {
		t.Fatalf("got (%d, %v), want (42, true)", v, ok)
	}
}

func TestCellLastValueWins(t *testing.T) {
	c := newCell[string]()
	c.set("first")
	c.set("second")
	v, ok := c.get()
	if !ok || v != "second" {
		t.Fatalf("got (%q, %v), want (\"second\", true)", v, ok)
	}
}

func TestQueueAccumulatesAndAllReturnsCopy(t *testing.T) {
	q := newQueue[int]()
	q.push(1)
	q.push(2)
	q.push(3)

	all := q.all()
	if len(all) != 3 || all[0] != 1 || all[2] != 3 {
		t.Fatalf("all() = %v, want [1 2 3]", all)
	}

	// all() must return a defensive copy: mutating it must not affect
	// the queue's own backing slice.
	all[0] = 99
	again := q.all()
	if again[0] != 1 {
		t.Fatalf("queue mutated via all()'s returned slice: %v", again)
	}
}

func TestQueueDrainIntoAppends(t *testing.T) {
	q := newQueue[int]()
	q.push(10)
	q.push(20)

	dst := []int{1, 2}
	dst = q.drainInto(dst)
	if len(dst) != 4 || dst[2] != 10 || dst[3] != 20 {
		t.Fatalf("drainInto appended wrong, got %v", dst)
	}
}
