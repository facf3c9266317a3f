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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportRecordsSuccess(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer server.Close()

	client := &http.Client{Transport: engine.Transport(nil)}

	resp, err := client.Get(server.URL + "/pot")
	require.NoError(t, err)

	_ = resp.Body.Close()

	// The wrapped call behaved exactly like the unwrapped one.
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	events := engine.NetworkRequests()
	require.Len(t, events, 1)
	assert.Equal(t, http.MethodGet, events[0].Method)
	assert.Equal(t, server.URL+"/pot", events[0].URL)
	assert.Equal(t, http.StatusTeapot, events[0].Status)
	assert.Empty(t, events[0].Error)
	assert.GreaterOrEqual(t, events[0].DurationMs, int64(0))
}

func TestTransportRecordsFailureWithStatusZero(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	client := &http.Client{Transport: engine.Transport(nil)}

	// Unroutable port on loopback fails fast.
	_, err := client.Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)

	events := engine.NetworkRequests()
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Status)
	assert.NotEmpty(t, events[0].Error)
}

func TestTransportRespectsCaptureFlag(t *testing.T) {
	engine := newTestEngine(t)
	engine.Enable()

	defer engine.Disable()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	off := false
	engine.UpdateConfig(ConfigUpdate{CaptureNetwork: &off})

	client := &http.Client{Transport: engine.Transport(nil)}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)

	_ = resp.Body.Close()

	assert.Empty(t, engine.NetworkRequests())
}

func TestEnableSwapsAndRestoresDefaultTransport(t *testing.T) {
	engine := newTestEngine(t)

	original := http.DefaultTransport

	engine.Enable()
	assert.NotSame(t, original, http.DefaultTransport)

	engine.Disable()
	assert.Same(t, original, http.DefaultTransport)
}
