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

package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// ExportDebugLog takes one snapshot and writes it twice: <path>.json
// (structured) and <path>.txt (flattened, human-readable). Both renderings
// come from the same snapshot so they never disagree. Serialization and
// file faults propagate to the caller; this is an explicit user action and
// the caller needs to surface the failure.
func (e *Engine) ExportDebugLog(path string) error {
	snapshot := e.Snapshot()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize debug log: %w", err)
	}

	if err := os.WriteFile(path+".json", data, 0o600); err != nil {
		return fmt.Errorf("failed to write debug log: %w", err)
	}

	if err := os.WriteFile(path+".txt", []byte(RenderText(snapshot)), 0o600); err != nil {
		return fmt.Errorf("failed to write debug log text: %w", err)
	}

	return nil
}

// RenderText flattens a snapshot into a line-oriented, human-readable
// report.
func RenderText(s *models.DebugSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Sightglass Debug Log ===\n")
	fmt.Fprintf(&b, "Generated: %s\n", s.GeneratedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(&b, "Host: %s (%s/%s, %d CPU, %s)\n",
		s.SystemInfo.Hostname, s.SystemInfo.OS, s.SystemInfo.Arch,
		s.SystemInfo.NumCPU, s.SystemInfo.GoVersion)
	fmt.Fprintf(&b, "Platform: %s %s, tz %s, pid %d\n",
		s.SystemInfo.Platform, s.SystemInfo.KernelVersion,
		s.SystemInfo.Timezone, s.SystemInfo.PID)
	fmt.Fprintf(&b, "Performance: up %ds, %d goroutines, heap %d/%d bytes, %d GCs\n",
		s.Performance.UptimeSeconds, s.Performance.NumGoroutine,
		s.Performance.HeapAllocBytes, s.Performance.HeapSysBytes,
		s.Performance.NumGC)

	fmt.Fprintf(&b, "\n--- Console Logs (%d) ---\n", len(s.ConsoleLogs))

	for _, ev := range s.ConsoleLogs {
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			ev.Timestamp.Format("15:04:05.000"), ev.Level, strings.Join(ev.Args, " "))
	}

	fmt.Fprintf(&b, "\n--- Errors (%d) ---\n", len(s.Errors))

	for _, ev := range s.Errors {
		fmt.Fprintf(&b, "[%s] %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Message)

		if ev.Stack != "" {
			fmt.Fprintf(&b, "%s\n", ev.Stack)
		}
	}

	fmt.Fprintf(&b, "\n--- Network Requests (%d) ---\n", len(s.NetworkRequests))

	for _, ev := range s.NetworkRequests {
		line := fmt.Sprintf("[%s] %s %s -> %d (%dms, %d bytes)",
			ev.Timestamp.Format("15:04:05.000"), ev.Method, ev.URL,
			ev.Status, ev.DurationMs, ev.SizeBytes)

		if ev.Error != "" {
			line += " error: " + ev.Error
		}

		fmt.Fprintf(&b, "%s\n", line)
	}

	fmt.Fprintf(&b, "\n--- User Actions (%d) ---\n", len(s.UserActions))

	for _, ev := range s.UserActions {
		fmt.Fprintf(&b, "[%s] %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Action)
	}

	fmt.Fprintf(&b, "\n--- Terminal Logs (%d) ---\n", len(s.TerminalLogs))

	for _, ev := range s.TerminalLogs {
		fmt.Fprintf(&b, "[%s] %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Text)
	}

	return b.String()
}
