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

package models

import "time"

// HealthState is the classification of a monitored provider endpoint.
type HealthState string

const (
	HealthUnknown   HealthState = "unknown"
	HealthChecking  HealthState = "checking"
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthStatus is the last known probe result for one provider, keyed by
// provider name. Overwritten in place on each check.
type HealthStatus struct {
	Provider        string      `json:"provider"`
	BaseURL         string      `json:"base_url"`
	Status          HealthState `json:"status"`
	ResponseTimeMs  int64       `json:"response_time_ms,omitempty"`
	AvailableModels []string    `json:"available_models,omitempty"`
	Version         string      `json:"version,omitempty"`
	LastChecked     time.Time   `json:"last_checked"`
	Error           string      `json:"error,omitempty"`
}

// ConnectionIssue is a derived, user-facing classification of the local
// network connection.
type ConnectionIssue string

const (
	IssueNone         ConnectionIssue = ""
	IssueDisconnected ConnectionIssue = "disconnected"
	IssueHighLatency  ConnectionIssue = "high-latency"
)

// ConnectionStatus is the result of one connectivity check.
type ConnectionStatus struct {
	Connected   bool            `json:"connected"`
	LatencyMs   int64           `json:"latency_ms"`
	LastChecked time.Time       `json:"last_checked"`
	Issue       ConnectionIssue `json:"issue,omitempty"`
}
