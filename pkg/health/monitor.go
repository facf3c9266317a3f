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

// Package health monitors the reachability of model-provider endpoints.
// Each registered provider runs a small state machine (unknown → checking
// → healthy/unhealthy → checking → …) driven by a shared timer, with
// change-only event emission so downstream listeners see transitions, not
// repeats.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sightglass-io/sightglass/pkg/bus"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

const (
	// DefaultInterval between monitoring ticks.
	DefaultInterval = 30 * time.Second

	// probeTimeout bounds every HTTP probe. Timeout resolves the check
	// to unhealthy; the late response, if any, is discarded.
	probeTimeout = 10 * time.Second
)

// Monitor polls registered providers and tracks their health statuses.
type Monitor struct {
	mu           sync.Mutex
	providers    []Provider
	statuses     map[string]models.HealthStatus
	prevResolved map[string]models.HealthState
	generation   uint64
	running      bool
	done         chan struct{}
	ticker       Ticker

	client *http.Client
	clock  Clock
	bus    *bus.Bus
	logger logger.Logger
	wg     sync.WaitGroup
}

// NewMonitor creates a health monitor. A nil client or clock selects the
// real implementations.
func NewMonitor(client *http.Client, clock Clock, b *bus.Bus, log logger.Logger) *Monitor {
	if client == nil {
		client = &http.Client{}
	}

	if clock == nil {
		clock = realClock{}
	}

	return &Monitor{
		statuses:     make(map[string]models.HealthStatus),
		prevResolved: make(map[string]models.HealthState),
		client:       client,
		clock:        clock,
		bus:          b,
		logger:       log,
	}
}

// StartMonitoring registers the provider set and starts the periodic
// checks. Idempotent for the same set: calling it again clears the
// current registrations and restarts the timer. A non-positive interval
// uses the default. An immediate round of checks runs before the first
// tick.
func (m *Monitor) StartMonitoring(providers []Provider, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.stop()

	m.mu.Lock()

	m.providers = append([]Provider(nil), providers...)
	m.statuses = make(map[string]models.HealthStatus, len(providers))
	m.prevResolved = make(map[string]models.HealthState, len(providers))

	for _, p := range providers {
		m.statuses[p.Name] = models.HealthStatus{
			Provider: p.Name,
			BaseURL:  p.BaseURL,
			Status:   models.HealthUnknown,
		}
		m.prevResolved[p.Name] = models.HealthUnknown
	}

	m.generation++
	m.running = true
	m.done = make(chan struct{})
	m.ticker = m.clock.Ticker(interval)

	generation := m.generation
	done := m.done
	ticker := m.ticker

	m.mu.Unlock()

	m.logger.Info().
		Int("providers", len(providers)).
		Dur("interval", interval).
		Msg("Starting health monitoring")

	m.wg.Add(1)

	go m.run(generation, done, ticker)
}

func (m *Monitor) run(generation uint64, done chan struct{}, ticker Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	m.checkAll(generation)

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			m.checkAll(generation)
		}
	}
}

// checkAll dispatches one check per provider concurrently; the checks are
// independent network calls and state updates are last-write-wins per
// provider key.
func (m *Monitor) checkAll(generation uint64) {
	m.mu.Lock()
	providers := append([]Provider(nil), m.providers...)
	m.mu.Unlock()

	for _, p := range providers {
		go m.check(generation, p)
	}
}

func (m *Monitor) check(generation uint64, p Provider) {
	m.setChecking(generation, p)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	status := m.probe(ctx, p)

	m.applyResult(generation, status)
}

// CheckNow performs an immediate on-demand check of one provider, with
// the same emission semantics as a timer-driven check.
func (m *Monitor) CheckNow(ctx context.Context, p Provider) models.HealthStatus {
	m.mu.Lock()

	generation := m.generation

	if _, known := m.statuses[p.Name]; !known {
		m.statuses[p.Name] = models.HealthStatus{
			Provider: p.Name,
			BaseURL:  p.BaseURL,
			Status:   models.HealthUnknown,
		}
		m.prevResolved[p.Name] = models.HealthUnknown
	}

	m.mu.Unlock()

	m.setChecking(generation, p)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := m.probe(probeCtx, p)

	m.applyResult(generation, status)

	return status
}

// setChecking flips the stored status to checking without emitting; only
// resolved states participate in change notification.
func (m *Monitor) setChecking(generation uint64, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return
	}

	status := m.statuses[p.Name]
	status.Provider = p.Name
	status.BaseURL = p.BaseURL
	status.Status = models.HealthChecking
	m.statuses[p.Name] = status
}

// applyResult stores a resolved status and emits statusChanged iff the
// resolved state differs from the previous resolved state for that
// provider. Results from a stopped or restarted generation are discarded.
func (m *Monitor) applyResult(generation uint64, status models.HealthStatus) {
	m.mu.Lock()

	if generation != m.generation {
		m.mu.Unlock()
		return
	}

	prev := m.prevResolved[status.Provider]
	m.statuses[status.Provider] = status
	m.prevResolved[status.Provider] = status.Status

	changed := prev != status.Status

	m.mu.Unlock()

	if changed {
		m.logger.Info().
			Str("provider", status.Provider).
			Str("status", string(status.Status)).
			Str("error", status.Error).
			Msg("Provider health changed")

		if m.bus != nil {
			m.bus.Publish(bus.TopicHealthStatusChanged, status)
		}
	}
}

// StopMonitoring cancels the timer. Last-known statuses stay intact; any
// probe already in flight completes but its result is discarded.
func (m *Monitor) StopMonitoring() {
	m.stop()
}

func (m *Monitor) stop() {
	m.mu.Lock()

	if !m.running {
		m.mu.Unlock()
		return
	}

	m.running = false
	m.generation++
	close(m.done)

	m.mu.Unlock()

	m.wg.Wait()

	m.logger.Info().Msg("Stopped health monitoring")
}

// GetAllStatuses returns a snapshot of the current statuses keyed by
// provider name.
func (m *Monitor) GetAllStatuses() map[string]models.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]models.HealthStatus, len(m.statuses))

	for name, status := range m.statuses {
		out[name] = status
	}

	return out
}
