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

// Package bus provides a small in-process publish/subscribe mechanism.
// Subscribers are individually removable so component lifecycles do not
// leak handlers.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Topics published by the sightglass core components.
const (
	TopicHealthStatusChanged     = "health.statusChanged"
	TopicConnectionStatusChanged = "connection.statusChanged"
	TopicEventLogUpdated         = "eventlog.updated"
)

// Handler processes one published payload.
type Handler func(payload interface{})

// Subscription identifies one registered handler.
type Subscription struct {
	id    string
	topic string
	bus   *Bus
}

// Cancel removes the subscription from its bus.
func (s Subscription) Cancel() {
	if s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

// Bus fans published payloads out to all handlers subscribed to a topic.
// Publish is synchronous; a panicking handler does not affect the
// publisher or the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler // topic -> subscription id -> handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[string]map[string]Handler),
	}
}

// Subscribe registers fn for the given topic.
func (b *Bus) Subscribe(topic string, fn Handler) Subscription {
	id := uuid.New().String()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]Handler)
	}

	b.handlers[topic][id] = fn

	return Subscription{id: id, topic: topic, bus: b}
}

// Unsubscribe removes a previously registered handler. Removing an
// already-removed subscription is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.handlers[sub.topic]; ok {
		delete(m, sub.id)

		if len(m) == 0 {
			delete(b.handlers, sub.topic)
		}
	}
}

// Publish delivers payload to every handler subscribed to topic. The
// handler set is copied before delivery so handlers may subscribe or
// unsubscribe during a publish without deadlocking.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()

	fns := make([]Handler, 0, len(b.handlers[topic]))
	for _, fn := range b.handlers[topic] {
		fns = append(fns, fn)
	}

	b.mu.RUnlock()

	for _, fn := range fns {
		b.deliver(fn, payload)
	}
}

func (b *Bus) deliver(fn Handler, payload interface{}) {
	defer func() {
		_ = recover() // a broken subscriber must not break the publisher
	}()

	fn(payload)
}
