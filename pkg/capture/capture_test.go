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
	"bytes"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.TerminalDebounce = models.Duration(10 * time.Millisecond)
	cfg.BufferSize = 1000

	return NewEngine(cfg, logger.NewTestLogger())
}

func TestConsoleTeePreservesOriginalOutput(t *testing.T) {
	engine := newTestEngine(t)

	var original bytes.Buffer

	prevWriter := log.Writer()
	prevFlags := log.Flags()

	log.SetOutput(&original)
	log.SetFlags(0)

	defer func() {
		log.SetOutput(prevWriter)
		log.SetFlags(prevFlags)
	}()

	engine.Enable()

	log.Print("hello from stdlib")

	engine.Disable()

	// Original destination still received the line.
	assert.Contains(t, original.String(), "hello from stdlib")

	logs := engine.ConsoleLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "log", logs[0].Level)
	assert.Contains(t, logs[0].Args[0], "hello from stdlib")

	// Disable restored the exact writer we installed.
	assert.NotNil(t, log.Writer())

	log.Print("after disable")
	assert.Len(t, engine.ConsoleLogs(), 1)
}

func TestEnableDisableIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	engine.Enable()
	engine.Enable()
	engine.Disable()
	engine.Disable()

	assert.False(t, engine.Config().Enabled)
}

func TestConfigToggleTakesEffectWithoutFlush(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	engine.CaptureConsole("info", "first")

	off := false
	engine.UpdateConfig(ConfigUpdate{CaptureConsole: &off})
	engine.CaptureConsole("info", "dropped")

	on := true
	engine.UpdateConfig(ConfigUpdate{CaptureConsole: &on})
	engine.CaptureConsole("info", "second")

	logs := engine.ConsoleLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, []string{"first"}, logs[0].Args)
	assert.Equal(t, []string{"second"}, logs[1].Args)
}

func TestPartialConfigMergeLeavesOtherFieldsUntouched(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	off := false
	engine.UpdateConfig(ConfigUpdate{CaptureNetwork: &off})

	cfg := engine.Config()
	assert.False(t, cfg.CaptureNetwork)
	assert.True(t, cfg.CaptureConsole)
	assert.True(t, cfg.CaptureErrors)
	assert.True(t, cfg.Enabled)
}

func TestCaptureErrorAndHandlerChain(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	var chained []models.ErrorEvent

	engine.SetErrorHandler(func(ev models.ErrorEvent) { chained = append(chained, ev) })

	engine.CaptureError(errors.New("disk on fire"), map[string]string{"component": "store"})

	events := engine.Errors()
	require.Len(t, events, 1)
	assert.Equal(t, "disk on fire", events[0].Message)
	assert.Equal(t, "store", events[0].Context["component"])

	// Recording happened before chaining, and the chain saw the event.
	require.Len(t, chained, 1)
	assert.Equal(t, "disk on fire", chained[0].Message)
}

func TestPanickingErrorHandlerDoesNotBreakCapture(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	engine.SetErrorHandler(func(models.ErrorEvent) { panic("handler bug") })

	assert.NotPanics(t, func() {
		engine.CaptureError(errors.New("original"), nil)
	})
	assert.Len(t, engine.Errors(), 1)
}

func TestRecoverPanicRecordsAndRepanics(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	run := func() {
		defer engine.RecoverPanic()
		panic("nope")
	}

	assert.PanicsWithValue(t, "nope", run)

	events := engine.Errors()
	require.Len(t, events, 1)
	assert.Equal(t, "panic: nope", events[0].Message)
	assert.NotEmpty(t, events[0].Stack)
}

func TestCaptureUserAction(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	engine.CaptureUserAction("open-settings", map[string]interface{}{"tab": "network"})

	actions := engine.UserActions()
	require.Len(t, actions, 1)
	assert.Equal(t, "open-settings", actions[0].Action)
	assert.Equal(t, "network", actions[0].Metadata["tab"])
}

func TestConsoleBufferBoundedAtCapacity(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	for i := 0; i < 1500; i++ {
		engine.CaptureConsole("info", fmt.Sprintf("line %d", i))
	}

	logs := engine.ConsoleLogs()
	require.Len(t, logs, 1000)

	// The oldest 500 are unrecoverable; retained entries are the most
	// recent 1000 in order.
	assert.Equal(t, []string{"line 500"}, logs[0].Args)
	assert.Equal(t, []string{"line 1499"}, logs[999].Args)
}

func TestDisabledEngineCapturesNothing(t *testing.T) {
	engine := newTestEngine(t)

	engine.CaptureConsole("info", "nope")
	engine.CaptureError(errors.New("nope"), nil)
	engine.CaptureUserAction("nope", nil)
	engine.CaptureTerminalLog("nope")

	assert.Empty(t, engine.ConsoleLogs())
	assert.Empty(t, engine.Errors())
	assert.Empty(t, engine.UserActions())
	assert.Empty(t, engine.TerminalLogs())
}

func TestReset(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	engine.CaptureConsole("info", "a")
	engine.CaptureError(errors.New("b"), nil)
	engine.Reset()

	assert.Empty(t, engine.ConsoleLogs())
	assert.Empty(t, engine.Errors())
}
