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

// Package lifecycle runs a set of services until the process receives an
// interrupt or termination signal, then stops them in reverse order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sightglass-io/sightglass/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// Service is a component with a managed start and stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Options configures Run.
type Options struct {
	ServiceName string
	Services    []Service
	Logger      logger.Logger

	// ShutdownTimeout bounds the stop phase. Zero means the default.
	ShutdownTimeout time.Duration
}

// Run starts every service and blocks until ctx is canceled or a SIGINT
// or SIGTERM arrives. Services stop in reverse start order; a start
// failure stops the services already started.
func Run(ctx context.Context, opts *Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := make([]Service, 0, len(opts.Services))

	for _, svc := range opts.Services {
		if err := svc.Start(sigCtx); err != nil {
			stopErr := stopServices(started, opts.shutdownTimeout(), log)

			return errors.Join(fmt.Errorf("failed to start service: %w", err), stopErr)
		}

		started = append(started, svc)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	<-sigCtx.Done()

	log.Info().Str("service", opts.ServiceName).Msg("Shutting down")

	return stopServices(started, opts.shutdownTimeout(), log)
}

func (o *Options) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout > 0 {
		return o.ShutdownTimeout
	}

	return defaultShutdownTimeout
}

// stopServices stops services in reverse order, collecting errors.
func stopServices(services []Service, timeout time.Duration, log logger.Logger) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(stopCtx); err != nil {
			log.Error().Err(err).Msg("Failed to stop service")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
