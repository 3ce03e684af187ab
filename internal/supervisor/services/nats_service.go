// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/coffeechat/internal/logging"
)

// EmbeddedServer is satisfied by *backplane.EmbeddedServer.
type EmbeddedServer interface {
	ClientURL() string
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService owns the lifetime of an in-process NATS server that
// was started before the tree, so the backplane can connect during
// wiring. Serve only waits; the server is shut down when the tree stops.
//
// Example usage:
//
//	srv, _ := backplane.StartEmbeddedServer("127.0.0.1", cfg.Backplane.EmbeddedPort)
//	tree.AddMessagingService(services.NewEmbeddedNATSService(srv, 5*time.Second))
type EmbeddedNATSService struct {
	server          EmbeddedServer
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedNATSService creates the wrapper. A non-positive timeout
// means 10 seconds.
func NewEmbeddedNATSService(server EmbeddedServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	logging.Info().Str("url", s.server.ClientURL()).Msg("Embedded NATS server supervised")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("embedded NATS shutdown failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
