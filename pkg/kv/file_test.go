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

package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightglass-io/sightglass/pkg/logger"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := NewFileStore(dir, "test-bucket", logger.NewTestLogger())
	require.False(t, store.Degraded())

	require.NoError(t, store.Put(ctx, "alpha", []byte("one"), 0))
	require.NoError(t, store.Put(ctx, "beta", []byte("two"), 0))

	value, found, err := store.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("one"), value)

	// Reopening the bucket sees the same data.
	reopened := NewFileStore(dir, "test-bucket", logger.NewTestLogger())

	value, found, err = reopened.Get(ctx, "beta")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("two"), value)
}

func TestFileStoreMissingKey(t *testing.T) {
	store := NewFileStore(t.TempDir(), "bucket", logger.NewTestLogger())

	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir(), "bucket", logger.NewTestLogger())

	require.NoError(t, store.Put(ctx, "key", []byte("value"), 0))
	require.NoError(t, store.Delete(ctx, "key"))

	_, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, "key"))
}

func TestFileStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir(), "bucket", logger.NewTestLogger())

	require.NoError(t, store.Put(ctx, "ephemeral", []byte("x"), time.Millisecond))

	time.Sleep(5 * time.Millisecond)

	_, found, err := store.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStoreDegradesOnBadDir(t *testing.T) {
	ctx := context.Background()

	// A data dir that cannot be created pushes the store into
	// memory-only mode; it still serves reads and writes.
	store := NewFileStore("/dev/null/not-a-dir", "bucket", logger.NewTestLogger())
	assert.True(t, store.Degraded())

	require.NoError(t, store.Put(ctx, "key", []byte("value"), 0))

	value, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "key", []byte("value"), 0))

	value, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)

	require.NoError(t, store.Delete(ctx, "key"))

	_, found, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}
