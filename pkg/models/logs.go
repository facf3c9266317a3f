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

// LogLevel classifies the severity of a LogEntry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
	LevelDebug   LogLevel = "debug"
)

// LogCategory classifies the source area of a LogEntry.
type LogCategory string

const (
	CategorySystem      LogCategory = "system"
	CategoryProvider    LogCategory = "provider"
	CategoryUser        LogCategory = "user"
	CategoryError       LogCategory = "error"
	CategoryAPI         LogCategory = "api"
	CategoryAuth        LogCategory = "auth"
	CategoryDatabase    LogCategory = "database"
	CategoryNetwork     LogCategory = "network"
	CategoryPerformance LogCategory = "performance"
	CategorySettings    LogCategory = "settings"
	CategoryTask        LogCategory = "task"
	CategoryUpdate      LogCategory = "update"
	CategoryFeature     LogCategory = "feature"
)

// LogEntry is one structured application log record in the event log store.
type LogEntry struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Category   LogCategory            `json:"category"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component,omitempty"`
	Action     string                 `json:"action,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Read       bool                   `json:"read"`
}
