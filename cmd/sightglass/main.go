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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sightglass-io/sightglass/pkg/bus"
	"github.com/sightglass-io/sightglass/pkg/capture"
	"github.com/sightglass-io/sightglass/pkg/config"
	"github.com/sightglass-io/sightglass/pkg/eventlog"
	"github.com/sightglass-io/sightglass/pkg/health"
	"github.com/sightglass-io/sightglass/pkg/kv"
	"github.com/sightglass-io/sightglass/pkg/lifecycle"
	"github.com/sightglass-io/sightglass/pkg/logger"
	"github.com/sightglass-io/sightglass/pkg/models"
	"github.com/sightglass-io/sightglass/pkg/netwatch"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/sightglass/sightglass.json", "Path to sightglass config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg AppConfig

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	mainLogger, err := lifecycle.CreateComponentLogger("sightglass", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := openStore(ctx, &cfg, mainLogger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eventBus := bus.New()

	engine := capture.NewEngine(cfg.Capture, mainLogger)
	logStore := eventlog.NewStore(store, eventBus, mainLogger)

	healthMonitor := health.NewMonitor(nil, nil, eventBus, mainLogger)
	connMonitor := netwatch.NewMonitor(cfg.Network.Endpoints, nil, nil, nil, store, eventBus, mainLogger)

	wireEventLog(eventBus, logStore)

	services := []lifecycle.Service{
		&captureService{engine: engine, exportPath: cfg.ExportPath, logger: mainLogger},
		&healthService{
			monitor:   healthMonitor,
			providers: cfg.Health.Providers,
			interval:  time.Duration(cfg.Health.Interval),
		},
		&netwatchService{
			monitor:  connMonitor,
			interval: time.Duration(cfg.Network.Interval),
		},
	}

	logStore.LogSystem(models.LevelInfo, "sightglass starting", "main", nil)

	return lifecycle.Run(ctx, &lifecycle.Options{
		ServiceName: "sightglass",
		Services:    services,
		Logger:      mainLogger,
	})
}

func openStore(ctx context.Context, cfg *AppConfig, log logger.Logger) (kv.KVStore, error) {
	switch cfg.Storage.Type {
	case storageFile:
		return kv.NewFileStore(cfg.Storage.Dir, cfg.bucket(), log), nil
	case storageNATS:
		store, err := kv.NewNatsStore(ctx, cfg.Storage.NatsURL, cfg.bucket(), 0)
		if err != nil {
			return nil, fmt.Errorf("failed to open NATS store: %w", err)
		}

		return store, nil
	default:
		return kv.NewMemoryStore(), nil
	}
}

// wireEventLog mirrors monitor status changes into the event log so the
// log reflects what the rest of the process observed.
func wireEventLog(eventBus *bus.Bus, logStore *eventlog.Store) {
	eventBus.Subscribe(bus.TopicHealthStatusChanged, func(payload interface{}) {
		status, ok := payload.(models.HealthStatus)
		if !ok {
			return
		}

		logStore.LogProviderStatus(status)
	})

	eventBus.Subscribe(bus.TopicConnectionStatusChanged, func(payload interface{}) {
		status, ok := payload.(models.ConnectionStatus)
		if !ok {
			return
		}

		logStore.LogNetworkStatus(status.Connected, status.LatencyMs)
	})
}

// captureService adapts the capture engine to the lifecycle runner and
// flushes a debug export on shutdown when configured.
type captureService struct {
	engine     *capture.Engine
	exportPath string
	logger     logger.Logger
}

func (s *captureService) Start(context.Context) error {
	s.engine.Enable()
	return nil
}

func (s *captureService) Stop(context.Context) error {
	s.engine.Disable()

	if s.exportPath == "" {
		return nil
	}

	if err := s.engine.ExportDebugLog(s.exportPath); err != nil {
		s.logger.Error().Err(err).Str("path", s.exportPath).Msg("Failed to export debug log")
		return err
	}

	s.logger.Info().Str("path", s.exportPath).Msg("Exported debug log")

	return nil
}

type healthService struct {
	monitor   *health.Monitor
	providers []health.Provider
	interval  time.Duration
}

func (s *healthService) Start(context.Context) error {
	s.monitor.StartMonitoring(s.providers, s.interval)
	return nil
}

func (s *healthService) Stop(context.Context) error {
	s.monitor.StopMonitoring()
	return nil
}

type netwatchService struct {
	monitor  *netwatch.Monitor
	interval time.Duration
}

func (s *netwatchService) Start(context.Context) error {
	s.monitor.Start(s.interval)
	return nil
}

func (s *netwatchService) Stop(context.Context) error {
	s.monitor.Stop()
	return nil
}
