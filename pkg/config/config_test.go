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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
)

type sampleConfig struct {
	Name     string `json:"name"`
	Interval int    `json:"interval"`
}

var errIntervalRequired = errors.New("interval must be positive")

type validatedConfig struct {
	Interval int `json:"interval"`
}

func (c *validatedConfig) Validate() error {
	if c.Interval <= 0 {
		return errIntervalRequired
	}

	return nil
}

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `{"name":"sightglass","interval":30}`)

	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)

	require.NoError(t, err)
	assert.Equal(t, "sightglass", cfg.Name)
	assert.Equal(t, 30, cfg.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(
		context.Background(), "/nonexistent/config.json", &cfg)

	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{"name":`)

	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)

	assert.Error(t, err)
}

func TestValidationFailurePropagates(t *testing.T) {
	path := writeConfigFile(t, `{"interval":0}`)

	var cfg validatedConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)

	assert.ErrorIs(t, err, errIntervalRequired)
}

func TestEnvPathOverride(t *testing.T) {
	overridePath := writeConfigFile(t, `{"name":"from-env"}`)
	t.Setenv(envConfigPath, overridePath)

	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(
		context.Background(), "/nonexistent/config.json", &cfg)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
}

func TestKVSourceLoads(t *testing.T) {
	t.Setenv(envConfigSource, configSourceKV)

	store := kv.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "sightglass.json", []byte(`{"name":"from-kv"}`), 0))

	loader := NewConfig(logger.NewTestLogger())
	loader.SetKVStore(store)

	var cfg sampleConfig

	err := loader.LoadAndValidate(context.Background(), "sightglass.json", &cfg)

	require.NoError(t, err)
	assert.Equal(t, "from-kv", cfg.Name)
}

func TestKVSourceFallsBackToFile(t *testing.T) {
	t.Setenv(envConfigSource, configSourceKV)

	path := writeConfigFile(t, `{"name":"from-file"}`)

	loader := NewConfig(logger.NewTestLogger())
	loader.SetKVStore(kv.NewMemoryStore())

	var cfg sampleConfig

	err := loader.LoadAndValidate(context.Background(), path, &cfg)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
}

func TestKVSourceWithoutStore(t *testing.T) {
	t.Setenv(envConfigSource, configSourceKV)

	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "key", &cfg)

	assert.ErrorIs(t, err, errKVStoreNotSet)
}

func TestInvalidSource(t *testing.T) {
	t.Setenv(envConfigSource, "consul")

	var cfg sampleConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "key", &cfg)

	assert.ErrorIs(t, err, errInvalidConfigSource)
}
