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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
)

var errConfigKeyNotFound = errors.New("configuration key not found in KV store")

// KVConfigLoader loads configuration from a key-value store. The path
// argument doubles as the lookup key.
type KVConfigLoader struct {
	store  kv.KVStore
	logger logger.Logger
}

// NewKVConfigLoader creates a loader backed by the given store.
func NewKVConfigLoader(store kv.KVStore, log logger.Logger) *KVConfigLoader {
	return &KVConfigLoader{store: store, logger: log}
}

// Load implements ConfigLoader.
func (l *KVConfigLoader) Load(ctx context.Context, key string, dst interface{}) error {
	data, found, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read key '%s': %w", key, err)
	}

	if !found {
		return fmt.Errorf("%w: %s", errConfigKeyNotFound, key)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for key '%s': %w", key, err)
	}

	if l.logger != nil {
		l.logger.Debug().Str("key", key).Msg("Loaded configuration from KV store")
	}

	return nil
}
