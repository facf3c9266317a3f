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

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sightglass-io/sightglass/pkg/models"
)

// maxProbeBody caps how much of a probe response is read for metadata.
const maxProbeBody = 1 << 20

// Kind selects the well-known probe path and response shape for a
// provider endpoint.
type Kind string

const (
	KindOllama  Kind = "ollama"
	KindOpenAI  Kind = "openai-compatible"
	KindGeneric Kind = "generic"
)

// Provider identifies one monitored endpoint.
type Provider struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	BaseURL string `json:"base_url"`
}

// probePath returns the well-known path for the provider kind.
func (p Provider) probePath() string {
	switch p.Kind {
	case KindOllama:
		return "/api/tags"
	case KindOpenAI:
		return "/v1/models"
	default:
		return "/"
	}
}

// ollamaTags is the relevant subset of the Ollama tags response.
type ollamaTags struct {
	Version string `json:"version"`
	Models  []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// openAIModels is the relevant subset of an OpenAI-compatible model list.
type openAIModels struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// probe issues one HTTP check against the provider's well-known path and
// resolves it to healthy or unhealthy. Response time is recorded in
// milliseconds regardless of outcome. Metadata (models, version) is
// extracted when the response shape allows it; its absence is never a
// failure.
func (m *Monitor) probe(ctx context.Context, p Provider) models.HealthStatus {
	status := models.HealthStatus{
		Provider:    p.Name,
		BaseURL:     p.BaseURL,
		LastChecked: m.clock.Now(),
	}

	url := strings.TrimRight(p.BaseURL, "/") + p.probePath()

	start := m.clock.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		status.Status = models.HealthUnhealthy
		status.Error = fmt.Sprintf("invalid probe URL: %v", err)

		return status
	}

	resp, err := m.client.Do(req)
	status.ResponseTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		status.Status = models.HealthUnhealthy
		status.Error = probeErrorString(ctx, err)

		return status
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		status.Status = models.HealthUnhealthy
		status.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)

		return status
	}

	status.Status = models.HealthHealthy

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return status // reachable; metadata is best effort
	}

	status.AvailableModels, status.Version = extractMetadata(p.Kind, body)

	return status
}

// probeErrorString prefers a stable timeout message over the transport's
// context wording.
func probeErrorString(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "health check timed out"
	}

	return err.Error()
}

// extractMetadata pulls model identifiers and a version string out of the
// probe body when the provider kind defines a shape for them.
func extractMetadata(kind Kind, body []byte) (modelNames []string, version string) {
	switch kind {
	case KindOllama:
		var tags ollamaTags

		if err := json.Unmarshal(body, &tags); err != nil {
			return nil, ""
		}

		for _, model := range tags.Models {
			modelNames = append(modelNames, model.Name)
		}

		return modelNames, tags.Version
	case KindOpenAI:
		var list openAIModels

		if err := json.Unmarshal(body, &list); err != nil {
			return nil, ""
		}

		for _, model := range list.Data {
			modelNames = append(modelNames, model.ID)
		}

		return modelNames, ""
	default:
		return nil, ""
	}
}
