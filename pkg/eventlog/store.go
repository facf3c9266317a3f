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

// Package eventlog implements the append-only structured log store fed by
// explicit log calls from application code. It is independent of the
// capture engine's ring buffers: entries here are deliberate, durable
// (best effort) and filterable.
package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sightglass-io/sightglass/pkg/bus"
	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

// MaxLogs is the global FIFO cap on retained entries. Insertion order is
// chronological, so FIFO eviction equals oldest-timestamp eviction.
// Treated as a tunable policy, not a hard invariant: per-category caps
// would slot in at trimLocked if high-volume categories ever crowd out
// the rest.
const MaxLogs = 1000

const (
	entriesKey = "eventlog.entries"
	readKey    = "eventlog.read"
)

// Store is the process-wide event log store.
type Store struct {
	mu      sync.RWMutex
	entries []models.LogEntry
	maxLogs int
	store   kv.KVStore
	bus     *bus.Bus
	logger  logger.Logger
}

// NewStore creates a store backed by the given KV store and loads any
// persisted entries. A load failure starts the store empty; persistence
// stays best effort throughout.
func NewStore(kvStore kv.KVStore, b *bus.Bus, log logger.Logger) *Store {
	s := &Store{
		maxLogs: MaxLogs,
		store:   kvStore,
		bus:     b,
		logger:  log,
	}

	s.load()

	return s
}

func (s *Store) load() {
	ctx := context.Background()

	data, found, err := s.store.Get(ctx, entriesKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load persisted event log")
		return
	}

	if !found {
		return
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.logger.Warn().Err(err).Msg("Discarding corrupt persisted event log")

		s.entries = nil

		return
	}

	// Read state lives under its own key so log views can re-render
	// without refetching the full log.
	readData, found, err := s.store.Get(ctx, readKey)
	if err != nil || !found {
		return
	}

	var readIDs []string
	if err := json.Unmarshal(readData, &readIDs); err != nil {
		return
	}

	readSet := make(map[string]struct{}, len(readIDs))
	for _, id := range readIDs {
		readSet[id] = struct{}{}
	}

	for i := range s.entries {
		if _, ok := readSet[s.entries[i].ID]; ok {
			s.entries[i].Read = true
		}
	}
}

// append assigns identity and timestamp, inserts at the newest end, trims
// past the cap and persists. All typed producers funnel through here.
func (s *Store) append(entry models.LogEntry) {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now().UTC()

	s.mu.Lock()

	s.entries = append(s.entries, entry)
	s.trimLocked()
	s.persistEntriesLocked()

	snapshot := s.copyEntriesLocked()

	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(bus.TopicEventLogUpdated, snapshot)
	}
}

// trimLocked evicts oldest-first until the store is back at the cap.
func (s *Store) trimLocked() {
	if len(s.entries) <= s.maxLogs {
		return
	}

	excess := len(s.entries) - s.maxLogs
	s.entries = append([]models.LogEntry(nil), s.entries[excess:]...)
}

func (s *Store) persistEntriesLocked() {
	data, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to serialize event log")
		return
	}

	if err := s.store.Put(context.Background(), entriesKey, data, 0); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist event log")
	}
}

func (s *Store) persistReadStateLocked() {
	readIDs := make([]string, 0, len(s.entries))

	for i := range s.entries {
		if s.entries[i].Read {
			readIDs = append(readIDs, s.entries[i].ID)
		}
	}

	data, err := json.Marshal(readIDs)
	if err != nil {
		return
	}

	if err := s.store.Put(context.Background(), readKey, data, 0); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist read state")
	}
}

func (s *Store) copyEntriesLocked() []models.LogEntry {
	out := make([]models.LogEntry, len(s.entries))
	copy(out, s.entries)

	return out
}

// GetLogs returns a copy of all entries, oldest first.
func (s *Store) GetLogs() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copyEntriesLocked()
}

// Filter selects entries; zero-valued fields match everything and set
// fields combine with AND.
type Filter struct {
	Level     models.LogLevel
	Category  models.LogCategory
	Component string
	Since     time.Time
}

// GetFilteredLogs returns the entries matching all set filter fields.
func (s *Store) GetFilteredLogs(f Filter) []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.LogEntry

	for i := range s.entries {
		e := &s.entries[i]

		if f.Level != "" && e.Level != f.Level {
			continue
		}

		if f.Category != "" && e.Category != f.Category {
			continue
		}

		if f.Component != "" && e.Component != f.Component {
			continue
		}

		if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
			continue
		}

		out = append(out, *e)
	}

	return out
}

// MarkAsRead flags one entry as read. Unknown ids are ignored.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Read = true
			break
		}
	}

	s.persistReadStateLocked()
}

// MarkAllAsRead flags every entry as read. Idempotent.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		s.entries[i].Read = true
	}

	s.persistReadStateLocked()
}

// UnreadCount returns how many entries are unread.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0

	for i := range s.entries {
		if !s.entries[i].Read {
			count++
		}
	}

	return count
}

// ExportLogs returns a full-fidelity JSON dump of the current entries.
func (s *Store) ExportLogs() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
