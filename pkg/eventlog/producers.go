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

package eventlog

import "github.com/sightglass-io/sightglass/pkg/models"

// Typed producers. Each fixes the category, picks a sensible level and
// delegates to append.

// LogSystem records a system-level event.
func (s *Store) LogSystem(level models.LogLevel, message, component string, metadata map[string]interface{}) {
	s.append(models.LogEntry{
		Level:     level,
		Category:  models.CategorySystem,
		Message:   message,
		Component: component,
		Metadata:  metadata,
	})
}

// LogProvider records a model-provider event.
func (s *Store) LogProvider(message, provider string, metadata map[string]interface{}) {
	s.append(models.LogEntry{
		Level:     models.LevelInfo,
		Category:  models.CategoryProvider,
		Message:   message,
		Component: provider,
		Metadata:  metadata,
	})
}

// LogProviderStatus records a provider health transition. Unhealthy
// providers log at error level, unknown or still-checking ones at warning.
func (s *Store) LogProviderStatus(status models.HealthStatus) {
	level := models.LevelInfo

	switch status.Status {
	case models.HealthUnhealthy:
		level = models.LevelError
	case models.HealthUnknown, models.HealthChecking:
		level = models.LevelWarning
	}

	s.append(models.LogEntry{
		Level:     level,
		Category:  models.CategoryProvider,
		Message:   "provider " + status.Provider + " is " + string(status.Status),
		Component: status.Provider,
		Metadata: map[string]interface{}{
			"response_time_ms": status.ResponseTimeMs,
		},
	})
}

// LogUserAction records a user-initiated action.
func (s *Store) LogUserAction(action, message string, metadata map[string]interface{}) {
	s.append(models.LogEntry{
		Level:    models.LevelInfo,
		Category: models.CategoryUser,
		Message:  message,
		Action:   action,
		Metadata: metadata,
	})
}

// LogAPIRequest records an outbound API call. Non-2xx status codes are
// logged at error level.
func (s *Store) LogAPIRequest(method, url string, statusCode int, durationMs int64) {
	level := models.LevelInfo
	if statusCode >= 400 || statusCode == 0 {
		level = models.LevelError
	}

	s.append(models.LogEntry{
		Level:      level,
		Category:   models.CategoryAPI,
		Message:    method + " " + url,
		StatusCode: statusCode,
		DurationMs: durationMs,
	})
}

// LogError records an application error.
func (s *Store) LogError(message, component string, err error, metadata map[string]interface{}) {
	if err != nil {
		if metadata == nil {
			metadata = make(map[string]interface{}, 1)
		}

		metadata["error"] = err.Error()
	}

	s.append(models.LogEntry{
		Level:     models.LevelError,
		Category:  models.CategoryError,
		Message:   message,
		Component: component,
		Metadata:  metadata,
	})
}

// LogPerformance records a timed operation.
func (s *Store) LogPerformance(action string, durationMs int64, metadata map[string]interface{}) {
	s.append(models.LogEntry{
		Level:      models.LevelInfo,
		Category:   models.CategoryPerformance,
		Message:    action,
		Action:     action,
		DurationMs: durationMs,
		Metadata:   metadata,
	})
}

// LogAuth records an authentication event.
func (s *Store) LogAuth(action, userID string, success bool) {
	level := models.LevelInfo
	message := action + " succeeded"

	if !success {
		level = models.LevelWarning
		message = action + " failed"
	}

	s.append(models.LogEntry{
		Level:    level,
		Category: models.CategoryAuth,
		Message:  message,
		Action:   action,
		UserID:   userID,
	})
}

// LogNetworkStatus records a connectivity change.
func (s *Store) LogNetworkStatus(connected bool, latencyMs int64) {
	level := models.LevelInfo
	message := "network connected"

	if !connected {
		level = models.LevelWarning
		message = "network disconnected"
	}

	s.append(models.LogEntry{
		Level:      level,
		Category:   models.CategoryNetwork,
		Message:    message,
		DurationMs: latencyMs,
	})
}
