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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sightglass-io/sightglass/pkg/logger"
)

// fileEntry is the on-disk representation of one key.
type fileEntry struct {
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FileStore is the default KVStore backend: one JSON file per bucket,
// written through on every mutation with an atomic rename. Any filesystem
// fault degrades the store to memory-only for the rest of the session;
// reads and writes keep working, durability is lost, the engine never
// crashes over it.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	entries  map[string]fileEntry
	degraded bool
	logger   logger.Logger
}

// NewFileStore opens (or creates) the bucket file under dir. A load
// failure on an existing file starts the store empty and degraded.
func NewFileStore(dir, bucket string, log logger.Logger) *FileStore {
	s := &FileStore{
		path:    filepath.Join(dir, bucket+".json"),
		entries: make(map[string]fileEntry),
		logger:  log,
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.degrade("create data dir", err)
		return s
	}

	if err := s.load(); err != nil {
		s.degrade("load bucket", err)
	}

	return s
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.entries)
}

func (s *FileStore) degrade(op string, err error) {
	if !s.degraded {
		s.logger.Warn().Err(err).Str("op", op).Str("path", s.path).
			Msg("Durable store unavailable, continuing in memory only")
	}

	s.degraded = true
}

// Degraded reports whether the store has fallen back to memory-only mode.
func (s *FileStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.degraded
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	if entry.ExpiresAt != nil && time.Now().After(*entry.ExpiresAt) {
		return nil, false, nil
	}

	out := make([]byte, len(entry.Value))
	copy(out, entry.Value)

	return out, true, nil
}

func (s *FileStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	entry := fileEntry{Value: stored}

	if ttl > 0 {
		deadline := time.Now().Add(ttl)
		entry.ExpiresAt = &deadline
	}

	s.entries[key] = entry
	s.flushLocked()

	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	s.flushLocked()

	return nil
}

// flushLocked writes the bucket to disk via a temp file and rename so a
// crash mid-write never leaves a truncated bucket. Must be called with
// mu held.
func (s *FileStore) flushLocked() {
	if s.degraded {
		return
	}

	data, err := json.Marshal(s.entries)
	if err != nil {
		s.degrade("marshal bucket", err)
		return
	}

	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.degrade("write bucket", err)
		return
	}

	if err := os.Rename(tmp, s.path); err != nil {
		s.degrade("rename bucket", fmt.Errorf("rename %s: %w", tmp, err))
	}
}

func (s *FileStore) Close() error {
	return nil
}

var _ KVStore = (*FileStore)(nil)
