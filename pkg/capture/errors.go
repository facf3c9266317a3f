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
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// SetErrorHandler chains a downstream handler: the engine records each
// error event first, then invokes the handler. Passing nil removes the
// chain link.
func (e *Engine) SetErrorHandler(fn ErrorHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errorHandler = fn
}

// CaptureError records err with optional context. Recording never panics;
// the error buffer is safe to feed from inside other failure paths.
func (e *Engine) CaptureError(err error, context map[string]string) {
	if err == nil {
		return
	}

	e.recordError(models.ErrorEvent{
		Message:   err.Error(),
		Context:   context,
		Timestamp: time.Now(),
	})
}

// RecoverPanic is meant to be deferred. It records a recovered panic with
// its stack and then re-panics so crash semantics are unchanged, the same
// way a chained global handler passes the event along.
func (e *Engine) RecoverPanic() {
	r := recover()
	if r == nil {
		return
	}

	e.recordError(models.ErrorEvent{
		Message:   fmt.Sprintf("panic: %v", r),
		Stack:     string(debug.Stack()),
		Timestamp: time.Now(),
	})

	panic(r)
}

// RecordPanic records a recovered panic value without re-panicking, for
// goroutines that handle the recovery themselves.
func (e *Engine) RecordPanic(r interface{}, context map[string]string) {
	if r == nil {
		return
	}

	e.recordError(models.ErrorEvent{
		Message:   fmt.Sprintf("panic: %v", r),
		Stack:     string(debug.Stack()),
		Context:   context,
		Timestamp: time.Now(),
	})
}

func (e *Engine) recordError(event models.ErrorEvent) {
	if !e.captureAllowed(func(c Config) bool { return c.CaptureErrors }) {
		return
	}

	e.errorBuf.Push(event)

	e.mu.Lock()
	handler := e.errorHandler
	e.mu.Unlock()

	if handler != nil {
		// A faulty downstream handler must not take the engine down.
		func() {
			defer func() { _ = recover() }()
			handler(event)
		}()
	}
}

// Errors returns a copy of the error buffer, oldest first.
func (e *Engine) Errors() []models.ErrorEvent {
	return e.errorBuf.ToArray()
}
