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

package main

import (
	"errors"
	"fmt"

	"github.com/sightglass-io/sightglass/pkg/capture"
	"github.com/sightglass-io/sightglass/pkg/health"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

const (
	storageMemory = "memory"
	storageFile   = "file"
	storageNATS   = "nats"

	defaultBucket = "sightglass"
)

var (
	errInvalidStorageType = errors.New("storage.type must be 'memory', 'file' or 'nats'")
	errFileDirRequired    = errors.New("storage.dir is required when storage.type is 'file'")
	errNATSURLRequired    = errors.New("storage.nats_url is required when storage.type is 'nats'")
	errProviderIncomplete = errors.New("health provider requires both name and base_url")
)

// AppConfig is the top-level sightglass configuration.
type AppConfig struct {
	Logging *logger.Config `json:"logging,omitempty"`
	Storage StorageConfig  `json:"storage"`
	Capture capture.Config `json:"capture"`
	Health  HealthConfig   `json:"health"`
	Network NetworkConfig  `json:"network"`

	// ExportPath, when set, writes a debug log export on shutdown.
	ExportPath string `json:"export_path,omitempty"`
}

// StorageConfig selects the persistence backend for event log entries
// and acknowledgment state.
type StorageConfig struct {
	Type    string `json:"type"`
	Dir     string `json:"dir,omitempty"`
	Bucket  string `json:"bucket,omitempty"`
	NatsURL string `json:"nats_url,omitempty"`
}

// HealthConfig lists the providers to monitor.
type HealthConfig struct {
	Interval  models.Duration   `json:"interval,omitempty"`
	Providers []health.Provider `json:"providers,omitempty"`
}

// NetworkConfig tunes the connection monitor.
type NetworkConfig struct {
	Interval  models.Duration `json:"interval,omitempty"`
	Endpoints []string        `json:"endpoints,omitempty"`
}

// Validate implements config.Validator.
func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case storageMemory, "":
	case storageFile:
		if c.Storage.Dir == "" {
			return errFileDirRequired
		}
	case storageNATS:
		if c.Storage.NatsURL == "" {
			return errNATSURLRequired
		}
	default:
		return fmt.Errorf("%w: got '%s'", errInvalidStorageType, c.Storage.Type)
	}

	for i := range c.Health.Providers {
		p := &c.Health.Providers[i]
		if p.Name == "" || p.BaseURL == "" {
			return fmt.Errorf("%w: provider %d", errProviderIncomplete, i)
		}

		if p.Kind == "" {
			p.Kind = health.KindGeneric
		}
	}

	return nil
}

func (c *AppConfig) bucket() string {
	if c.Storage.Bucket != "" {
		return c.Storage.Bucket
	}

	return defaultBucket
}
