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
	"io"
	"log"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// consoleWriter tees stdlib log output into the console buffer. The
// original writer keeps receiving every byte, capture never suppresses.
type consoleWriter struct {
	engine *Engine
}

func (w consoleWriter) Write(p []byte) (int, error) {
	w.engine.CaptureConsole("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// installConsoleHook swaps the stdlib log output for a tee. Must be called
// with e.mu held.
func (e *Engine) installConsoleHook() {
	prev := log.Writer()
	if prev == nil {
		return // nothing to wrap on this host
	}

	log.SetOutput(io.MultiWriter(prev, consoleWriter{engine: e}))
	e.prevLogOutput = true

	// restore target for removeConsoleHook
	e.savedLogWriter = prev
}

// removeConsoleHook restores the original stdlib log output. Must be
// called with e.mu held.
func (e *Engine) removeConsoleHook() {
	if !e.prevLogOutput {
		return
	}

	log.SetOutput(e.savedLogWriter)
	e.prevLogOutput = false
	e.savedLogWriter = nil
}

// CaptureConsole records one formatted console line. Exposed so loggers
// other than the stdlib one can feed the same buffer.
func (e *Engine) CaptureConsole(level string, args ...string) {
	if !e.captureAllowed(func(c Config) bool { return c.CaptureConsole }) {
		return
	}

	e.consoleBuf.Push(models.ConsoleEvent{
		Level:     level,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// ConsoleLogs returns a copy of the console buffer, oldest first.
func (e *Engine) ConsoleLogs() []models.ConsoleEvent {
	return e.consoleBuf.ToArray()
}

// Hook adapts the engine to zerolog's hook interface so zerolog loggers
// feed the console buffer while still writing to their own output.
func (e *Engine) Hook() zerolog.Hook {
	return consoleHook{engine: e}
}

type consoleHook struct {
	engine *Engine
}

func (h consoleHook) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	if message == "" {
		return
	}

	h.engine.CaptureConsole(level.String(), message)
}
