// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Cognito.ClientID = "client"
	cfg.Cognito.JWKSURI = "https://cognito-idp.ap-southeast-2.amazonaws.com/pool/.well-known/jwks.json"
	cfg.Mongo.URL = "mongodb://localhost:27017"
	cfg.Storage.Bucket = "images"
	cfg.Records.Table = "posts"
	cfg.Records.PartitionValue = "n1234567@qut.edu.au"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "PORT"},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }, "ENVIRONMENT"},
		{"jwks not http", func(c *Config) { c.Cognito.JWKSURI = "ftp://keys" }, "JWKS_URI"},
		{"domain without redirect", func(c *Config) { c.Cognito.Domain = "auth.example.com" }, "set together"},
		{"domain with scheme", func(c *Config) {
			c.Cognito.Domain = "https://auth.example.com"
			c.Cognito.RedirectURI = "http://localhost:8080/auth/callback"
		}, "without scheme"},
		{"federation ok", func(c *Config) {
			c.Cognito.Domain = "auth.example.com"
			c.Cognito.RedirectURI = "http://localhost:8080/auth/callback"
		}, ""},
		{"mongo scheme", func(c *Config) { c.Mongo.URL = "postgres://db" }, "DB_URL"},
		{"mongo srv ok", func(c *Config) { c.Mongo.URL = "mongodb+srv://cluster.example.net" }, ""},
		{"presign too long", func(c *Config) { c.Storage.PresignExpiry = 8 * 24 * time.Hour }, "PRESIGN_EXPIRY"},
		{"queue bad url", func(c *Config) { c.Queue.URL = "sqs://queue" }, "SQS_QUEUE_URL"},
		{"queue wait too long", func(c *Config) {
			c.Queue.URL = "https://sqs.ap-southeast-2.amazonaws.com/1/q"
			c.Queue.WaitSeconds = 21
		}, "SQS_WAIT_SECONDS"},
		{"dedup zero capacity", func(c *Config) {
			c.Queue.URL = "https://sqs.ap-southeast-2.amazonaws.com/1/q"
			c.Queue.DedupCapacity = 0
		}, "QUEUE_DEDUP_CAPACITY"},
		{"backplane external bad url", func(c *Config) {
			c.Backplane.Enabled = true
			c.Backplane.EmbeddedServer = false
			c.Backplane.URL = "http://nats"
		}, "NATS_URL"},
		{"backplane embedded ok", func(c *Config) { c.Backplane.Enabled = true }, ""},
		{"unknown session store", func(c *Config) { c.Session.Store = "redis" }, "SESSION_STORE"},
		{"short ttl", func(c *Config) { c.Session.TTL = time.Second }, "SESSION_TTL"},
		{"production short secret", func(c *Config) {
			c.Server.Environment = "production"
			c.Session.Secret = "short"
		}, "SESSION_SECRET"},
		{"production placeholder secret", func(c *Config) {
			c.Server.Environment = "production"
			c.Session.Secret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
		}, "placeholder"},
		{"production wildcard cors", func(c *Config) {
			c.Server.Environment = "production"
			c.Session.Secret = strings.Repeat("k", 40)
			c.Security.CORSOrigins = []string{"*"}
		}, "CORS_ORIGINS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigHelpers(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080, Environment: "Prod"}
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", s.Addr())
	}
	if !s.IsProduction() {
		t.Error("IsProduction() = false for Prod")
	}
	if (CognitoConfig{Domain: "d"}).FederationEnabled() {
		t.Error("FederationEnabled() = true without redirect URI")
	}
}
