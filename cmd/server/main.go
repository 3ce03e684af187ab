// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/tomtom215/coffeechat/internal/api"
	"github.com/tomtom215/coffeechat/internal/auth"
	"github.com/tomtom215/coffeechat/internal/authz"
	"github.com/tomtom215/coffeechat/internal/backplane"
	"github.com/tomtom215/coffeechat/internal/cache"
	"github.com/tomtom215/coffeechat/internal/config"
	"github.com/tomtom215/coffeechat/internal/docstore"
	"github.com/tomtom215/coffeechat/internal/identity"
	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/objectstore"
	"github.com/tomtom215/coffeechat/internal/queue"
	"github.com/tomtom215/coffeechat/internal/recordstore"
	"github.com/tomtom215/coffeechat/internal/supervisor"
	"github.com/tomtom215/coffeechat/internal/supervisor/services"
	ws "github.com/tomtom215/coffeechat/internal/websocket"
)

// tableWait bounds the wait for a newly created key-value table.
const tableWait = 2 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithKoanf(ctx, newParamResolver)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	// run returns only after its deferred cleanup has finished.
	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential wiring of every component
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("region", cfg.AWS.Region).
		Str("session_store", cfg.Session.Store).
		Bool("queue", cfg.Queue.Enabled()).
		Bool("backplane", cfg.Backplane.Enabled).
		Bool("federation", cfg.Cognito.FederationEnabled()).
		Msg("Starting coffeechat")

	awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}
	clients := newAWSClients(awsCfg, cfg.AWS.Endpoint)

	// Document store
	mongoClient, err := docstore.Connect(ctx, cfg.Mongo.URL, cfg.Mongo.ConnectTimeout)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logging.Error().Err(err).Msg("Error disconnecting from document store")
		}
	}()
	docs := docstore.New(mongoClient.Database(cfg.Mongo.Database))
	if err := docs.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure document indexes: %w", err)
	}
	logging.Info().Str("database", cfg.Mongo.Database).Msg("Document store connected")

	// Key-value table
	records := recordstore.New(clients.DynamoDB, cfg.Records.Table, cfg.Records.PartitionValue)
	if cfg.Records.CreateTable {
		if err := records.EnsureTable(ctx, tableWait); err != nil {
			return fmt.Errorf("ensure record table: %w", err)
		}
	}

	images := objectstore.New(clients.S3, clients.Presign, nil, objectstore.Config{
		Bucket: cfg.Storage.Bucket,
		Region: cfg.AWS.Region,
		Expiry: cfg.Storage.PresignExpiry,
	})

	// Sessions
	var sessionColl *mongo.Collection
	if auth.SessionStoreType(cfg.Session.Store) == auth.SessionStoreMongo {
		sessionColl = docs.Database().Collection(cfg.Mongo.SessionCollection)
	}
	sessionFactory, err := auth.NewSessionStoreFactory(ctx, auth.SessionStoreType(cfg.Session.Store), cfg.Session.BadgerPath, sessionColl)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := sessionFactory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	if sessionFactory.Kind() == auth.SessionStoreMemory && cfg.Server.IsProduction() {
		logging.Warn().Msg("Session store is 'memory': sessions are lost on restart")
	}
	sessions := auth.NewSessionManager(sessionFactory.Store(), auth.SessionManagerConfig{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Server.IsProduction(),
	})

	keys := auth.NewJWKSCache(cfg.Cognito.JWKSURI, nil, cfg.Cognito.JWKSCacheTTL)
	verifier := auth.NewTokenVerifier(keys, cfg.Cognito.ClientID)

	authorizer, err := authz.New(cfg.Security.Moderators)
	if err != nil {
		return fmt.Errorf("create authorizer: %w", err)
	}

	deps := api.Dependencies{
		Config:     cfg,
		Docs:       docs,
		Records:    records,
		Images:     images,
		Identity:   identity.NewClient(clients.Cognito, cfg.Cognito.ClientID, cfg.Cognito.ClientSecret),
		Sessions:   sessions,
		Verifier:   verifier,
		Authorizer: authorizer,
	}

	if cfg.Cognito.FederationEnabled() {
		federation, err := identity.NewFederation(identity.FederationConfig{
			Domain:           cfg.Cognito.Domain,
			ClientID:         cfg.Cognito.ClientID,
			ClientSecret:     cfg.Cognito.ClientSecret,
			RedirectURI:      cfg.Cognito.RedirectURI,
			IdentityProvider: cfg.Cognito.IdentityProvider,
		})
		if err != nil {
			return fmt.Errorf("create federated login: %w", err)
		}
		deps.Federation = federation
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddStorageService(auth.NewSessionCleanup(sessionFactory.Store(), cfg.Session.CleanupPeriod))

	// Real-time channel
	hub := ws.NewHub()
	deps.Hub = hub
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	if cfg.Backplane.Enabled {
		bp, err := startBackplane(cfg.Backplane, hub, tree, cfg.Server.ShutdownTimeout)
		if err != nil {
			return err
		}
		defer func() {
			if err := bp.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing backplane")
			}
		}()
	}

	// Post notification relay
	if cfg.Queue.Enabled() {
		deps.Notifier = queue.NewProducer(clients.SQS, cfg.Queue.URL)
		if cfg.Queue.ConsumerEnabled {
			var dedup *cache.Dedup
			if cfg.Queue.DedupEnabled {
				dedup = cache.NewDedup(cfg.Queue.DedupCapacity, cfg.Queue.DedupTTL)
			}
			tree.AddMessagingService(queue.NewConsumer(clients.SQS, hub, queue.ConsumerConfig{
				QueueURL:     cfg.Queue.URL,
				WaitSeconds:  cfg.Queue.WaitSeconds,
				PollInterval: cfg.Queue.PollInterval,
				Dedup:        dedup,
			}))
		}
	} else {
		logging.Info().Msg("Post notification queue disabled (SQS_QUEUE_URL not set)")
	}

	handler := api.NewHandler(deps)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

// startBackplane connects the hub to NATS, starting an in-process server
// first when configured. The returned backplane is already the hub's relay.
func startBackplane(cfg config.BackplaneConfig, hub *ws.Hub, tree *supervisor.SupervisorTree, shutdownTimeout time.Duration) (*backplane.Backplane, error) {
	url := cfg.URL
	if cfg.EmbeddedServer {
		ns, err := backplane.StartEmbeddedServer("127.0.0.1", cfg.EmbeddedPort)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		url = ns.ClientURL()
		tree.AddMessagingService(services.NewEmbeddedNATSService(ns, shutdownTimeout))
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	bp, err := backplane.New(backplane.Config{
		URL:           url,
		SubjectPrefix: cfg.SubjectPrefix,
		Breaker:       backplane.DefaultBreakerConfig(),
	}, hub)
	if err != nil {
		return nil, fmt.Errorf("create backplane: %w", err)
	}
	hub.SetRelay(bp)
	tree.AddMessagingService(bp)
	logging.Info().Str("url", url).Str("prefix", cfg.SubjectPrefix).Msg("Room backplane enabled")
	return bp, nil
}
