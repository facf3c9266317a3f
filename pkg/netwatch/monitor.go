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

// Package netwatch monitors the local network connection: a quick local
// check first, then a lightweight probe against a short list of fallback
// endpoints, classified into a user-facing issue (disconnected or
// high-latency) with acknowledgment-based alert suppression.
package netwatch

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sightglass-io/sightglass/pkg/bus"
	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

const (
	// DefaultInterval between connectivity checks.
	DefaultInterval = 10 * time.Second

	// probeTimeout bounds each endpoint attempt.
	probeTimeout = 5 * time.Second

	// highLatencyMs is the fixed threshold above which a reachable
	// connection is still flagged as an issue.
	highLatencyMs = 1000

	ackKey = "netwatch.acknowledged"
)

// DefaultEndpoints are tried in order until one responds. Any HTTP
// response counts as reachable; these are availability beacons, not
// content endpoints.
var DefaultEndpoints = []string{
	"https://www.gstatic.com/generate_204",
	"https://cloudflare.com/cdn-cgi/trace",
	"https://www.google.com/generate_204",
}

// Monitor is the connection monitor.
type Monitor struct {
	mu         sync.Mutex
	status     models.ConnectionStatus
	hasStatus  bool
	acked      models.ConnectionIssue
	generation uint64
	running    bool
	done       chan struct{}

	endpoints    []string
	client       *http.Client
	clock        Clock
	connectivity Connectivity
	store        kv.KVStore
	bus          *bus.Bus
	logger       logger.Logger
	wg           sync.WaitGroup
}

// NewMonitor creates a connection monitor. Nil collaborators select the
// real implementations; an empty endpoint list uses the defaults. The KV
// store persists acknowledgment flags across restarts and may be nil.
func NewMonitor(endpoints []string, client *http.Client, clock Clock, connectivity Connectivity,
	store kv.KVStore, b *bus.Bus, log logger.Logger) *Monitor {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}

	if client == nil {
		client = &http.Client{}
	}

	if clock == nil {
		clock = realClock{}
	}

	if connectivity == nil {
		connectivity = interfaceConnectivity{}
	}

	m := &Monitor{
		endpoints:    endpoints,
		client:       client,
		clock:        clock,
		connectivity: connectivity,
		store:        store,
		bus:          b,
		logger:       log,
	}

	m.loadAck()

	return m
}

func (m *Monitor) loadAck() {
	if m.store == nil {
		return
	}

	data, found, err := m.store.Get(context.Background(), ackKey)
	if err != nil || !found {
		return
	}

	var acked models.ConnectionIssue
	if err := json.Unmarshal(data, &acked); err == nil {
		m.acked = acked
	}
}

// Start begins periodic checks. A non-positive interval uses the
// default. Idempotent: a second Start restarts the timer.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.Stop()

	m.mu.Lock()

	m.generation++
	m.running = true
	m.done = make(chan struct{})

	generation := m.generation
	done := m.done
	ticker := m.clock.Ticker(interval)

	m.mu.Unlock()

	m.logger.Info().Dur("interval", interval).Msg("Starting connection monitoring")

	m.wg.Add(1)

	go m.run(generation, done, ticker)
}

func (m *Monitor) run(generation uint64, done chan struct{}, ticker Ticker) {
	defer m.wg.Done()
	defer ticker.Stop()

	m.checkOnce(generation)

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			m.checkOnce(generation)
		}
	}
}

func (m *Monitor) checkOnce(generation uint64) {
	status := m.Check(context.Background())
	m.apply(generation, status)
}

// Stop cancels the timer. An in-flight probe completes but its result is
// discarded.
func (m *Monitor) Stop() {
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
}

// Check performs one connectivity check without touching monitor state.
// If the host reports offline locally, no network probe is issued.
func (m *Monitor) Check(ctx context.Context) models.ConnectionStatus {
	status := models.ConnectionStatus{LastChecked: m.clock.Now()}

	if !m.connectivity.Online() {
		status.Connected = false
		status.Issue = models.IssueDisconnected

		return status
	}

	latency, reachable := m.probeEndpoints(ctx)

	status.Connected = reachable
	status.LatencyMs = latency

	switch {
	case !reachable:
		status.Issue = models.IssueDisconnected
	case latency > highLatencyMs:
		status.Issue = models.IssueHighLatency
	default:
		status.Issue = models.IssueNone
	}

	return status
}

// probeEndpoints tries each endpoint in order with a HEAD request,
// falling back to GET where HEAD is rejected. First response wins.
func (m *Monitor) probeEndpoints(ctx context.Context) (latencyMs int64, reachable bool) {
	for _, endpoint := range m.endpoints {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)

		start := m.clock.Now()
		resp, err := m.doProbe(probeCtx, endpoint)
		elapsed := m.clock.Now().Sub(start).Milliseconds()

		cancel()

		if err != nil {
			continue
		}

		_ = resp.Body.Close()

		return elapsed, true
	}

	return 0, false
}

func (m *Monitor) doProbe(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err == nil && resp.StatusCode != http.StatusMethodNotAllowed {
		return resp, nil
	}

	if resp != nil {
		_ = resp.Body.Close()
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if reqErr != nil {
		return nil, reqErr
	}

	return m.client.Do(req)
}

// apply stores a check result, maintains acknowledgment state and emits
// connection.statusChanged when the connected flag or the issue changed.
func (m *Monitor) apply(generation uint64, status models.ConnectionStatus) {
	m.mu.Lock()

	if generation != m.generation {
		m.mu.Unlock()
		return
	}

	prev := m.status
	hadStatus := m.hasStatus

	m.status = status
	m.hasStatus = true

	// An acknowledged issue is forgiven once it clears; if it recurs the
	// alert fires again.
	if status.Issue == models.IssueNone && m.acked != models.IssueNone {
		m.acked = models.IssueNone
		m.persistAckLocked()
	}

	changed := !hadStatus || prev.Connected != status.Connected || prev.Issue != status.Issue

	m.mu.Unlock()

	if changed {
		m.logger.Info().
			Bool("connected", status.Connected).
			Int64("latency_ms", status.LatencyMs).
			Str("issue", string(status.Issue)).
			Msg("Connection status changed")

		if m.bus != nil {
			m.bus.Publish(bus.TopicConnectionStatusChanged, status)
		}
	}
}

// Status returns the last stored check result.
func (m *Monitor) Status() models.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// ShouldAlert reports whether the current issue warrants a user-facing
// alert: there is an issue and it has not been acknowledged.
func (m *Monitor) ShouldAlert() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status.Issue != models.IssueNone && m.status.Issue != m.acked
}

// Acknowledge suppresses repeat alerts for the current issue until it
// resolves and recurs.
func (m *Monitor) Acknowledge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Issue == models.IssueNone {
		return
	}

	m.acked = m.status.Issue
	m.persistAckLocked()
}

// ResetAcknowledgements clears the suppression explicitly.
func (m *Monitor) ResetAcknowledgements() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acked = models.IssueNone
	m.persistAckLocked()
}

// persistAckLocked is best effort; must be called with mu held.
func (m *Monitor) persistAckLocked() {
	if m.store == nil {
		return
	}

	data, err := json.Marshal(m.acked)
	if err != nil {
		return
	}

	if err := m.store.Put(context.Background(), ackKey, data, 0); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist acknowledgment state")
	}
}
