// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/coffeechat/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotenvPathEnvVar overrides the .env file path.
const DotenvPathEnvVar = "DOTENV_PATH"

// ResolverFactory builds the remote parameter resolver once the local
// layers are known, so that the AWS region can come from them.
type ResolverFactory func(ctx context.Context, bootstrap *Config) (*Resolver, error)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		AWS: AWSConfig{
			Region: "ap-southeast-2",
		},
		ParamStore: ParamStoreConfig{
			Enabled: false,
			Prefix:  "/coffeechat/",
		},
		Cognito: CognitoConfig{
			IdentityProvider: "Google",
			JWKSCacheTTL:     time.Hour,
		},
		Mongo: MongoConfig{
			Database:          "coffeechat",
			ConnectTimeout:    10 * time.Second,
			SessionCollection: "sessions",
		},
		Storage: StorageConfig{
			PresignExpiry:  time.Hour,
			MaxUploadBytes: 50 << 20,
		},
		Queue: QueueConfig{
			WaitSeconds:     20,
			PollInterval:    time.Second,
			DedupEnabled:    true,
			DedupCapacity:   10000,
			DedupTTL:        time.Hour,
			ConsumerEnabled: true,
		},
		Backplane: BackplaneConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			EmbeddedPort:   4222,
			SubjectPrefix:  "coffeechat.rooms",
		},
		Session: SessionConfig{
			Store:         "mongo",
			BadgerPath:    "/data/sessions",
			TTL:           time.Hour,
			CookieName:    "coffeechat.sid",
			CleanupPeriod: 10 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"http://localhost:8080"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load is LoadWithKoanf without a remote layer factory.
func Load() (*Config, error) {
	return LoadWithKoanf(context.Background(), nil)
}

// LoadWithKoanf layers configuration sources, lowest priority first:
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. optional .env file, exported into the process environment
//  4. remote parameters from SSM Parameter Store (and Secrets Manager) when
//     paramstore.enabled is true and newResolver is not nil
//  5. environment variables
func LoadWithKoanf(ctx context.Context, newResolver ResolverFactory) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if newResolver != nil && k.Bool("paramstore.enabled") {
		bootstrap := &Config{}
		if err := k.Unmarshal("", bootstrap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bootstrap configuration: %w", err)
		}
		resolver, err := newResolver(ctx, bootstrap)
		if err != nil {
			return nil, fmt.Errorf("failed to create parameter resolver: %w", err)
		}
		if err := k.Load(resolver.Provider(ctx, bootstrap.ParamStore.SecretID), nil); err != nil {
			return nil, fmt.Errorf("failed to load remote parameters: %w", err)
		}
		// Environment keeps the last word over remote values.
		if err := k.Load(envProvider, nil); err != nil {
			return nil, fmt.Errorf("failed to reload environment variables: %w", err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadDotenv exports a .env file into the environment. Variables that are
// already set win over the file.
func loadDotenv() error {
	path := os.Getenv(DotenvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.moderators",
}

// processSliceFields splits comma separated strings coming from env vars
// or remote parameters into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps upper-case variable names (lower-cased) to koanf paths.
// The same names are used for parameters in the remote store.
var envMappings = map[string]string{
	"port":                       "server.port",
	"http_host":                  "server.host",
	"server_timeout":             "server.timeout",
	"shutdown_timeout":           "server.shutdown_timeout",
	"environment":                "server.environment",
	"aws_region":                 "aws.region",
	"aws_endpoint_url":           "aws.endpoint",
	"paramstore_enabled":         "paramstore.enabled",
	"paramstore_prefix":          "paramstore.prefix",
	"paramstore_secret_id":       "paramstore.secret_id",
	"cognito_client_id":          "cognito.client_id",
	"cognito_client_secret":      "cognito.client_secret",
	"google_client_secret":       "cognito.client_secret",
	"cognito_domain":             "cognito.domain",
	"cognito_redirect_uri":       "cognito.redirect_uri",
	"cognito_identity_provider":  "cognito.identity_provider",
	"jwks_uri":                   "cognito.jwks_uri",
	"jwks_cache_ttl":             "cognito.jwks_cache_ttl",
	"db_url":                     "mongo.url",
	"db_name":                    "mongo.database",
	"db_connect_timeout":         "mongo.connect_timeout",
	"session_collection":         "mongo.session_collection",
	"aws_bucket_name":            "storage.bucket",
	"presign_expiry":             "storage.presign_expiry",
	"max_upload_bytes":           "storage.max_upload_bytes",
	"dynamo_table_name":          "records.table",
	"qut_username":               "records.partition_value",
	"dynamo_create_table":        "records.create_table",
	"sqs_queue_url":              "queue.url",
	"sqs_wait_seconds":           "queue.wait_seconds",
	"sqs_poll_interval":          "queue.poll_interval",
	"queue_dedup_enabled":        "queue.dedup_enabled",
	"queue_dedup_capacity":       "queue.dedup_capacity",
	"queue_dedup_ttl":            "queue.dedup_ttl",
	"queue_consumer_enabled":     "queue.consumer_enabled",
	"backplane_enabled":          "backplane.enabled",
	"nats_url":                   "backplane.url",
	"nats_embedded":              "backplane.embedded_server",
	"nats_embedded_port":         "backplane.embedded_port",
	"backplane_subject_prefix":   "backplane.subject_prefix",
	"session_secret":             "session.secret",
	"session_store":              "session.store",
	"session_badger_path":        "session.badger_path",
	"session_ttl":                "session.ttl",
	"session_cookie_name":        "session.cookie_name",
	"session_cleanup_period":     "session.cleanup_period",
	"cors_origins":               "security.cors_origins",
	"rate_limit_requests":        "security.rate_limit_reqs",
	"rate_limit_window":          "security.rate_limit_window",
	"disable_rate_limit":         "security.rate_limit_disabled",
	"moderators":                 "security.moderators",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
	"log_caller":                 "logging.caller",
}

// envTransformFunc returns "" for unmapped variables so that unrelated
// environment does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
