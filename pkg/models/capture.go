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

// Package models defines the data structures shared across sightglass.
package models

import "time"

// ConsoleEvent is one intercepted log line.
type ConsoleEvent struct {
	Level     string    `json:"level"`
	Args      []string  `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// NetworkEvent is one observed HTTP request. Failed requests carry
// Status 0 and the transport error string.
type NetworkEvent struct {
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	SizeBytes  int64     `json:"size_bytes"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ErrorEvent records an error or recovered panic.
type ErrorEvent struct {
	Message   string            `json:"message"`
	Stack     string            `json:"stack,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// UserActionEvent records an application-initiated user action.
type UserActionEvent struct {
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// TerminalEvent is one debounced chunk of terminal-style output.
type TerminalEvent struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemInfo is static host metadata included in every snapshot.
type SystemInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version,omitempty"`
	Arch          string `json:"arch"`
	NumCPU        int    `json:"num_cpu"`
	GoVersion     string `json:"go_version"`
	Timezone      string `json:"timezone"`
	PID           int    `json:"pid"`
}

// PerformanceInfo summarizes process and host resource usage at
// snapshot time.
type PerformanceInfo struct {
	UptimeSeconds     int64   `json:"uptime_seconds"`
	NumGoroutine      int     `json:"num_goroutine"`
	HeapAllocBytes    uint64  `json:"heap_alloc_bytes"`
	HeapSysBytes      uint64  `json:"heap_sys_bytes"`
	NumGC             uint32  `json:"num_gc"`
	TotalMemoryBytes  uint64  `json:"total_memory_bytes,omitempty"`
	UsedMemoryPercent float64 `json:"used_memory_percent,omitempty"`
}

// DebugSnapshot is an immutable point-in-time copy of all capture buffers
// plus environment metadata. Mutating the live buffers after a snapshot is
// taken does not affect it.
type DebugSnapshot struct {
	ConsoleLogs     []ConsoleEvent    `json:"logs"`
	Errors          []ErrorEvent      `json:"errors"`
	NetworkRequests []NetworkEvent    `json:"network_requests"`
	UserActions     []UserActionEvent `json:"user_actions"`
	TerminalLogs    []TerminalEvent   `json:"terminal_logs"`
	SystemInfo      SystemInfo        `json:"system_info"`
	Performance     PerformanceInfo   `json:"performance"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
