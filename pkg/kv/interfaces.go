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

// Package kv abstracts the durable small-value stores used for event log
// persistence, configuration and acknowledgment flags. Backends may be a
// local file, plain memory, or a NATS JetStream bucket; callers must not
// assume durability beyond best effort.
package kv

import (
	"context"
	"time"
)

// KVStore is the interface all sightglass persistence goes through.
type KVStore interface {
	// Get retrieves the value for key. The boolean reports whether the
	// key was found; a missing key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key with an optional TTL. A zero TTL means
	// the value persists until deleted.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
