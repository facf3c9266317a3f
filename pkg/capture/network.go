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
	"net/http"
	"time"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// roundTripper observes HTTP traffic flowing through a base transport.
type roundTripper struct {
	base   http.RoundTripper
	engine *Engine
}

// Transport wraps base so every request through it is recorded in the
// network buffer. A nil base wraps http.DefaultTransport. The returned
// transport alters nothing about the request or response; transport errors
// are recorded with status 0 and returned to the caller unchanged.
func (e *Engine) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return &roundTripper{base: base, engine: e}
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if !rt.engine.captureAllowed(func(c Config) bool { return c.CaptureNetwork }) {
		return rt.base.RoundTrip(req)
	}

	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()

	event := models.NetworkEvent{
		Method:     req.Method,
		URL:        req.URL.String(),
		DurationMs: elapsed,
		Timestamp:  start,
	}

	if err != nil {
		event.Status = 0
		event.Error = err.Error()
	} else {
		event.Status = resp.StatusCode
		if resp.ContentLength > 0 {
			event.SizeBytes = resp.ContentLength
		}
	}

	rt.engine.networkBuf.Push(event)

	return resp, err
}

// installNetworkHook swaps the process default transport for an observed
// one. Must be called with e.mu held.
func (e *Engine) installNetworkHook() {
	if http.DefaultTransport == nil {
		return // nothing to wrap
	}

	e.prevTransport = http.DefaultTransport
	http.DefaultTransport = &roundTripper{base: e.prevTransport, engine: e}
}

// removeNetworkHook restores the original default transport. Must be
// called with e.mu held.
func (e *Engine) removeNetworkHook() {
	if e.prevTransport == nil {
		return
	}

	http.DefaultTransport = e.prevTransport
	e.prevTransport = nil
}

// NetworkRequests returns a copy of the network buffer, oldest first.
func (e *Engine) NetworkRequests() []models.NetworkEvent {
	return e.networkBuf.ToArray()
}
