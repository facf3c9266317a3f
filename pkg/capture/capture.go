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

// Package capture turns ambient runtime activity into bounded, categorized
// history. The Engine owns five independent ring buffers (console, errors,
// network, user actions, terminal) and explicit install/remove hooks around
// the stdlib log output and the default HTTP transport. Capture is
// observational: wrapped calls behave exactly as they would unwrapped.
package capture

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
	"github.com/sightglass-io/sightglass/pkg/ringbuf"
)

const defaultTerminalDebounce = 300 * time.Millisecond

// Config controls which channels the engine captures. Hooks consult their
// flag on every event, so toggling takes effect on the next event without
// flushing any buffer.
type Config struct {
	Enabled          bool            `json:"enabled"`
	CaptureConsole   bool            `json:"capture_console"`
	CaptureNetwork   bool            `json:"capture_network"`
	CaptureErrors    bool            `json:"capture_errors"`
	TerminalDebounce models.Duration `json:"terminal_debounce"`
	BufferSize       int             `json:"buffer_size"`
}

// DefaultConfig enables every channel with the default buffer capacity.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		CaptureConsole:   true,
		CaptureNetwork:   true,
		CaptureErrors:    true,
		TerminalDebounce: models.Duration(defaultTerminalDebounce),
		BufferSize:       ringbuf.DefaultCapacity,
	}
}

// ConfigUpdate is a partial config; nil fields leave the current value
// untouched.
type ConfigUpdate struct {
	Enabled          *bool            `json:"enabled,omitempty"`
	CaptureConsole   *bool            `json:"capture_console,omitempty"`
	CaptureNetwork   *bool            `json:"capture_network,omitempty"`
	CaptureErrors    *bool            `json:"capture_errors,omitempty"`
	TerminalDebounce *models.Duration `json:"terminal_debounce,omitempty"`
}

// ErrorHandler receives error events after the engine has recorded them.
type ErrorHandler func(models.ErrorEvent)

// Engine is the capture engine. One instance is passed through application
// wiring; it is not a hidden singleton.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	consoleBuf  *ringbuf.RingBuffer[models.ConsoleEvent]
	errorBuf    *ringbuf.RingBuffer[models.ErrorEvent]
	networkBuf  *ringbuf.RingBuffer[models.NetworkEvent]
	actionBuf   *ringbuf.RingBuffer[models.UserActionEvent]
	terminalBuf *ringbuf.RingBuffer[models.TerminalEvent]

	enabled        bool
	prevLogOutput  bool // whether we swapped the stdlib log output
	savedLogWriter io.Writer
	prevTransport  http.RoundTripper
	errorHandler   ErrorHandler

	term terminalDebouncer

	startedAt time.Time
	logger    logger.Logger
}

// NewEngine creates a capture engine with the given configuration. Hooks
// are not installed until Enable is called.
func NewEngine(cfg Config, log logger.Logger) *Engine {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = ringbuf.DefaultCapacity
	}

	if cfg.TerminalDebounce == 0 {
		cfg.TerminalDebounce = models.Duration(defaultTerminalDebounce)
	}

	// The engine starts disabled regardless of the configured flag;
	// Enable flips it on once the hooks are installed.
	cfg.Enabled = false

	return &Engine{
		cfg:         cfg,
		consoleBuf:  ringbuf.New[models.ConsoleEvent](cfg.BufferSize),
		errorBuf:    ringbuf.New[models.ErrorEvent](cfg.BufferSize),
		networkBuf:  ringbuf.New[models.NetworkEvent](cfg.BufferSize),
		actionBuf:   ringbuf.New[models.UserActionEvent](cfg.BufferSize),
		terminalBuf: ringbuf.New[models.TerminalEvent](cfg.BufferSize),
		startedAt:   time.Now(),
		logger:      log,
	}
}

// Enable installs all interception hooks. Idempotent. Installation never
// fails: a hook whose target is unavailable is a silent no-op and does not
// block the other hooks.
func (e *Engine) Enable() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enabled {
		return
	}

	e.enabled = true
	e.cfg.Enabled = true

	e.installConsoleHook()
	e.installNetworkHook()

	e.logger.Debug().Msg("Capture engine enabled")
}

// Disable removes all hooks and restores the original globals exactly.
// Idempotent. A pending debounced terminal entry is flushed first so it is
// not lost.
func (e *Engine) Disable() {
	e.mu.Lock()

	if !e.enabled {
		e.mu.Unlock()
		return
	}

	e.enabled = false
	e.cfg.Enabled = false

	e.removeConsoleHook()
	e.removeNetworkHook()
	e.mu.Unlock()

	e.term.flush(e)

	e.logger.Debug().Msg("Capture engine disabled")
}

// UpdateConfig merges a partial update into the live config.
func (e *Engine) UpdateConfig(update ConfigUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if update.Enabled != nil {
		e.cfg.Enabled = *update.Enabled
	}

	if update.CaptureConsole != nil {
		e.cfg.CaptureConsole = *update.CaptureConsole
	}

	if update.CaptureNetwork != nil {
		e.cfg.CaptureNetwork = *update.CaptureNetwork
	}

	if update.CaptureErrors != nil {
		e.cfg.CaptureErrors = *update.CaptureErrors
	}

	if update.TerminalDebounce != nil {
		e.cfg.TerminalDebounce = *update.TerminalDebounce
	}
}

// Config returns a copy of the live configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg
}

// Reset clears all five buffers. Hooks stay installed.
func (e *Engine) Reset() {
	e.consoleBuf.Clear()
	e.errorBuf.Clear()
	e.networkBuf.Clear()
	e.actionBuf.Clear()
	e.terminalBuf.Clear()
}

// CaptureUserAction records an application-initiated user action.
func (e *Engine) CaptureUserAction(action string, metadata map[string]interface{}) {
	if !e.captureAllowed(func(c Config) bool { return true }) {
		return
	}

	e.actionBuf.Push(models.UserActionEvent{
		Action:    action,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})
}

// captureAllowed reads the live config under the engine lock and applies
// the per-channel predicate.
func (e *Engine) captureAllowed(flag func(Config) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg.Enabled && flag(e.cfg)
}
