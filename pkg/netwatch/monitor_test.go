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

package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightglass-io/sightglass/pkg/bus"
	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
)

type fakeConnectivity struct {
	online bool
}

func (f fakeConnectivity) Online() bool { return f.online }

// steppingClock advances by step on every Now call, letting tests dial in
// an apparent probe latency without sleeping.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(c.step)

	return now
}

func (c *steppingClock) Ticker(time.Duration) Ticker {
	return &fakeTicker{ch: make(chan time.Time)}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (*fakeTicker) Stop()                    {}

func newTestMonitor(endpoints []string, connectivity Connectivity, store kv.KVStore, b *bus.Bus) *Monitor {
	client := &http.Client{Timeout: 200 * time.Millisecond}
	return NewMonitor(endpoints, client, nil, connectivity, store, b, logger.NewTestLogger())
}

func TestOfflineShortCircuitsWithoutProbing(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	monitor := newTestMonitor([]string{server.URL}, fakeConnectivity{online: false}, nil, nil)

	status := monitor.Check(context.Background())

	assert.False(t, status.Connected)
	assert.Equal(t, models.IssueDisconnected, status.Issue)
	assert.Equal(t, int64(0), hits.Load(), "offline check must not issue network traffic")
}

func TestReachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	monitor := newTestMonitor([]string{server.URL}, fakeConnectivity{online: true}, nil, nil)

	status := monitor.Check(context.Background())

	assert.True(t, status.Connected)
	assert.Equal(t, models.IssueNone, status.Issue)
}

func TestFallbackToSecondEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	monitor := newTestMonitor(
		[]string{"http://127.0.0.1:1", server.URL},
		fakeConnectivity{online: true}, nil, nil)

	status := monitor.Check(context.Background())

	assert.True(t, status.Connected)
}

func TestAllEndpointsExhaustedMeansDisconnected(t *testing.T) {
	monitor := newTestMonitor(
		[]string{"http://127.0.0.1:1", "http://127.0.0.1:2"},
		fakeConnectivity{online: true}, nil, nil)

	status := monitor.Check(context.Background())

	assert.False(t, status.Connected)
	assert.Equal(t, models.IssueDisconnected, status.Issue)
}

func TestGetFallbackWhenHeadRejected(t *testing.T) {
	var sawGet atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		sawGet.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	monitor := newTestMonitor([]string{server.URL}, fakeConnectivity{online: true}, nil, nil)

	status := monitor.Check(context.Background())

	assert.True(t, status.Connected)
	assert.True(t, sawGet.Load())
}

func TestHighLatencyIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	clock := &steppingClock{now: time.Now(), step: 1500 * time.Millisecond}

	monitor := NewMonitor([]string{server.URL}, &http.Client{}, clock,
		fakeConnectivity{online: true}, nil, nil, logger.NewTestLogger())

	status := monitor.Check(context.Background())

	assert.True(t, status.Connected)
	assert.Greater(t, status.LatencyMs, int64(highLatencyMs))
	assert.Equal(t, models.IssueHighLatency, status.Issue)
}

func TestAcknowledgmentSuppressionLifecycle(t *testing.T) {
	store := kv.NewMemoryStore()
	monitor := newTestMonitor(nil, fakeConnectivity{online: true}, store, nil)

	disconnected := models.ConnectionStatus{
		Connected: false,
		Issue:     models.IssueDisconnected,
	}
	healthy := models.ConnectionStatus{
		Connected: true,
		Issue:     models.IssueNone,
	}

	monitor.apply(0, disconnected)
	assert.True(t, monitor.ShouldAlert())

	monitor.Acknowledge()
	assert.False(t, monitor.ShouldAlert(), "acknowledged issue must not re-alert")

	// Same issue persists: still suppressed.
	monitor.apply(0, disconnected)
	assert.False(t, monitor.ShouldAlert())

	// Issue clears, then recurs: the alert fires again.
	monitor.apply(0, healthy)
	monitor.apply(0, disconnected)
	assert.True(t, monitor.ShouldAlert())
}

func TestResetAcknowledgements(t *testing.T) {
	monitor := newTestMonitor(nil, fakeConnectivity{online: true}, kv.NewMemoryStore(), nil)

	monitor.apply(0, models.ConnectionStatus{Issue: models.IssueDisconnected})
	monitor.Acknowledge()
	assert.False(t, monitor.ShouldAlert())

	monitor.ResetAcknowledgements()
	assert.True(t, monitor.ShouldAlert())
}

func TestAcknowledgmentPersistsAcrossRestart(t *testing.T) {
	store := kv.NewMemoryStore()

	first := newTestMonitor(nil, fakeConnectivity{online: true}, store, nil)
	first.apply(0, models.ConnectionStatus{Issue: models.IssueDisconnected})
	first.Acknowledge()

	second := newTestMonitor(nil, fakeConnectivity{online: true}, store, nil)
	second.apply(0, models.ConnectionStatus{Issue: models.IssueDisconnected})

	assert.False(t, second.ShouldAlert())
}

func TestChangeOnlyEmission(t *testing.T) {
	b := bus.New()

	var events atomic.Int64

	b.Subscribe(bus.TopicConnectionStatusChanged, func(interface{}) { events.Add(1) })

	monitor := newTestMonitor(nil, fakeConnectivity{online: true}, nil, b)

	down := models.ConnectionStatus{Connected: false, Issue: models.IssueDisconnected}
	up := models.ConnectionStatus{Connected: true, Issue: models.IssueNone}

	monitor.apply(0, down)
	monitor.apply(0, down) // repeat: no event
	monitor.apply(0, up)

	assert.Equal(t, int64(2), events.Load())
}

func TestStaleGenerationDiscarded(t *testing.T) {
	monitor := newTestMonitor(nil, fakeConnectivity{online: true}, nil, nil)

	monitor.apply(0, models.ConnectionStatus{Connected: true})

	// A result from a previous generation must not overwrite state.
	monitor.mu.Lock()
	monitor.generation = 5
	monitor.mu.Unlock()

	monitor.apply(0, models.ConnectionStatus{Connected: false, Issue: models.IssueDisconnected})

	assert.True(t, monitor.Status().Connected)
}

func TestStartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	monitor := newTestMonitor([]string{server.URL}, fakeConnectivity{online: true}, nil, nil)

	monitor.Start(time.Minute)

	require.Eventually(t, func() bool {
		return monitor.Status().Connected
	}, 5*time.Second, 5*time.Millisecond)

	monitor.Stop()

	// Stop is idempotent.
	monitor.Stop()
}
