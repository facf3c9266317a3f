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
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// Snapshot materializes all five buffers plus host metadata and a process
// performance summary into one immutable copy. A pending debounced
// terminal entry is flushed first so the snapshot does not miss it.
// Mutating the live buffers afterward does not affect the snapshot.
func (e *Engine) Snapshot() *models.DebugSnapshot {
	e.term.flush(e)

	return &models.DebugSnapshot{
		ConsoleLogs:     e.consoleBuf.ToArray(),
		Errors:          e.errorBuf.ToArray(),
		NetworkRequests: e.networkBuf.ToArray(),
		UserActions:     e.actionBuf.ToArray(),
		TerminalLogs:    e.terminalBuf.ToArray(),
		SystemInfo:      e.systemInfo(),
		Performance:     e.performanceInfo(),
		GeneratedAt:     time.Now(),
	}
}

// systemInfo collects static host metadata. Collector failures leave the
// affected fields empty rather than failing the snapshot.
func (e *Engine) systemInfo() models.SystemInfo {
	info := models.SystemInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Timezone:  time.Now().Location().String(),
		PID:       os.Getpid(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	if hi, err := host.Info(); err == nil {
		info.Platform = hi.Platform
		info.KernelVersion = hi.KernelVersion
	}

	return info
}

// performanceInfo summarizes process and host resource usage.
func (e *Engine) performanceInfo() models.PerformanceInfo {
	var ms runtime.MemStats

	runtime.ReadMemStats(&ms)

	perf := models.PerformanceInfo{
		UptimeSeconds:  int64(time.Since(e.startedAt).Seconds()),
		NumGoroutine:   runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
		HeapSysBytes:   ms.HeapSys,
		NumGC:          ms.NumGC,
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		perf.TotalMemoryBytes = vm.Total
		perf.UsedMemoryPercent = vm.UsedPercent
	}

	return perf
}

// UserActions returns a copy of the user action buffer, oldest first.
func (e *Engine) UserActions() []models.UserActionEvent {
	return e.actionBuf.ToArray()
}
