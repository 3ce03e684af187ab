// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package supervisor provides process supervision for coffeechat using suture v4.

Every long-running component runs as a suture.Service under one tree:

	RootSupervisor ("coffeechat")
	├── StorageSupervisor ("storage-layer")
	│   └── SessionCleanup
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   ├── EmbeddedNATSService (if backplane.embedded_server)
	│   ├── Backplane (if backplane.enabled)
	│   └── queue Consumer (if queue.url and queue.consumer_enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Failures are counted
per layer, so a queue outage never restarts the HTTP server.

Supervisor events are logged through sutureslog into the zerolog-backed
slog handler from the logging package.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStorageService(auth.NewSessionCleanup(store, cfg.Session.CleanupPeriod))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}
*/
package supervisor
