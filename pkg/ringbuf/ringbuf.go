/*
 * Copyright 2025 The Sightglass Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ringbuf implements a fixed-capacity circular buffer with
// overwrite-oldest eviction. Eviction is silent; callers must not depend
// on being told an item was dropped.
package ringbuf

import "sync"

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1000

// RingBuffer is a generic fixed-capacity buffer. Once full, each Push
// evicts exactly the oldest element. Safe for concurrent use, including
// from inside panic handlers: Push never panics and never grows past
// capacity.
type RingBuffer[T any] struct {
	mu       sync.RWMutex
	entries  []T
	capacity int
	head     int // index where the next write goes once full
}

// New creates a ring buffer with the given capacity.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &RingBuffer[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an item, evicting the oldest entry if the buffer is full.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.entries) < rb.capacity {
		rb.entries = append(rb.entries, item)
		return
	}

	rb.entries[rb.head] = item
	rb.head = (rb.head + 1) % rb.capacity
}

// ToArray returns a copy of the contents, oldest first.
func (rb *RingBuffer[T]) ToArray() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if len(rb.entries) == 0 {
		return nil
	}

	result := make([]T, len(rb.entries))

	if len(rb.entries) < rb.capacity {
		copy(result, rb.entries)
		return result
	}

	// Full and wrapped: head points at the oldest entry.
	n := copy(result, rb.entries[rb.head:])
	copy(result[n:], rb.entries[:rb.head])

	return result
}

// Last returns a copy of the most recent n entries, oldest first.
func (rb *RingBuffer[T]) Last(n int) []T {
	all := rb.ToArray()
	if n <= 0 || len(all) == 0 {
		return nil
	}

	if n >= len(all) {
		return all
	}

	return all[len(all)-n:]
}

// Len returns the number of entries currently buffered.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return len(rb.entries)
}

// Cap returns the fixed capacity.
func (rb *RingBuffer[T]) Cap() int {
	return rb.capacity
}

// Clear drops all buffered entries.
func (rb *RingBuffer[T]) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries = rb.entries[:0]
	rb.head = 0
}
