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

package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	var got []interface{}

	b.Subscribe("topic.a", func(p interface{}) { got = append(got, p) })
	b.Subscribe("topic.a", func(p interface{}) { got = append(got, p) })
	b.Subscribe("topic.b", func(p interface{}) { t.Fatal("wrong topic delivered") })

	b.Publish("topic.a", 42)

	assert.Equal(t, []interface{}{42, 42}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	calls := 0
	sub := b.Subscribe("topic", func(interface{}) { calls++ })

	b.Publish("topic", nil)
	sub.Cancel()
	b.Publish("topic", nil)

	assert.Equal(t, 1, calls)

	// Cancelling twice is harmless.
	sub.Cancel()
}

func TestPanickingSubscriberDoesNotBreakOthers(t *testing.T) {
	b := New()

	delivered := false

	b.Subscribe("topic", func(interface{}) { panic("boom") })
	b.Subscribe("topic", func(interface{}) { delivered = true })

	assert.NotPanics(t, func() { b.Publish("topic", nil) })
	assert.True(t, delivered)
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	b := New()

	var sub Subscription

	sub = b.Subscribe("topic", func(interface{}) { sub.Cancel() })

	assert.NotPanics(t, func() {
		b.Publish("topic", nil)
		b.Publish("topic", nil)
	})
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() { b.Publish("nobody.home", "payload") })
}
