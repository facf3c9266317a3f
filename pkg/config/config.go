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

// Package config loads JSON configuration from a file or a key-value
// store, with environment overrides for the path and the source.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
)

var (
	errKVStoreNotSet       = errors.New("KV store not initialized for SIGHTGLASS_CONFIG_SOURCE=kv; call SetKVStore first")
	errInvalidConfigSource = errors.New("invalid SIGHTGLASS_CONFIG_SOURCE value")
	errLoadConfigFailed    = errors.New("failed to load configuration")
)

const (
	configSourceKV   = "kv"
	configSourceFile = "file"

	// envConfigPath overrides the config path passed to LoadAndValidate.
	envConfigPath   = "SIGHTGLASS_CONFIG"
	envConfigSource = "SIGHTGLASS_CONFIG_SOURCE"
)

// Config holds the configuration loading dependencies.
type Config struct {
	kvStore       kv.KVStore
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader.
// If log is nil, a minimal stderr logger is used so config loading can
// report failures before the real logger exists.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewWithWriter(os.Stderr, zerolog.WarnLevel)
	}

	return &Config{
		defaultLoader: &FileConfigLoader{},
		logger:        log,
	}
}

// SetKVStore sets the KV store to be used when SIGHTGLASS_CONFIG_SOURCE=kv.
func (c *Config) SetKVStore(store kv.KVStore) {
	c.kvStore = store
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration from the resolved source and
// validates it. SIGHTGLASS_CONFIG, when set, overrides path.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if override := os.Getenv(envConfigPath); override != "" {
		path = override
	}

	if err := c.loadWithSource(ctx, path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}

// loadWithSource picks the loader from SIGHTGLASS_CONFIG_SOURCE. A KV
// failure falls back to the file loader so a broken store does not make
// the process unbootable.
func (c *Config) loadWithSource(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv(envConfigSource))

	var loader ConfigLoader

	switch source {
	case configSourceKV:
		if c.kvStore == nil {
			return errKVStoreNotSet
		}

		loader = NewKVConfigLoader(c.kvStore, c.logger)
	case configSourceFile, "":
		loader = c.defaultLoader
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceKV)
	}

	err := loader.Load(ctx, path, cfg)
	if err != nil {
		if source != configSourceKV {
			return err
		}

		c.logger.Warn().Err(err).Msg("KV config load failed, falling back to file")

		if fileErr := c.defaultLoader.Load(ctx, path, cfg); fileErr != nil {
			return fmt.Errorf("%w from KV: %w, and from fallback file: %w", errLoadConfigFailed, err, fileErr)
		}
	}

	return nil
}
