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
	"sync"
	"time"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// terminalDebouncer coalesces rapid terminal writes into one buffered
// entry. Streaming output can arrive at sub-millisecond granularity;
// per-line capture would dominate the buffer.
type terminalDebouncer struct {
	mu        sync.Mutex
	timer     *time.Timer
	pending   string
	pendingAt time.Time
	hasEntry  bool
}

// CaptureTerminalLog buffers terminal-style output. Calls inside the
// debounce window replace the pending text (latest wins) and reset the
// window; the entry is pushed when the window elapses.
func (e *Engine) CaptureTerminalLog(text string) {
	if !e.captureAllowed(func(c Config) bool { return true }) {
		return
	}

	window := time.Duration(e.Config().TerminalDebounce)

	e.term.mu.Lock()
	defer e.term.mu.Unlock()

	e.term.pending = text
	e.term.pendingAt = time.Now()
	e.term.hasEntry = true

	if window <= 0 {
		e.term.flushLocked(e)
		return
	}

	if e.term.timer != nil {
		e.term.timer.Stop()
	}

	e.term.timer = time.AfterFunc(window, func() { e.term.flush(e) })
}

// flush pushes the pending entry, if any.
func (d *terminalDebouncer) flush(e *Engine) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.flushLocked(e)
}

// flushLocked must be called with d.mu held.
func (d *terminalDebouncer) flushLocked(e *Engine) {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if !d.hasEntry {
		return
	}

	e.terminalBuf.Push(models.TerminalEvent{
		Text:      d.pending,
		Timestamp: d.pendingAt,
	})

	d.pending = ""
	d.hasEntry = false
}

// TerminalLogs returns a copy of the terminal buffer, oldest first.
func (e *Engine) TerminalLogs() []models.TerminalEvent {
	return e.terminalBuf.ToArray()
}
