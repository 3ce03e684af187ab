// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateCognito,
		c.validateMongo,
		c.validateStorage,
		c.validateRecords,
		c.validateQueue,
		c.validateBackplane,
		c.validateSession,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	switch strings.ToLower(c.Server.Environment) {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production")
	}
	return nil
}

func (c *Config) validateCognito() error {
	if c.Cognito.ClientID == "" {
		return fmt.Errorf("COGNITO_CLIENT_ID is required")
	}
	if c.Cognito.JWKSURI == "" {
		return fmt.Errorf("JWKS_URI is required")
	}
	if err := validateHTTPURL(c.Cognito.JWKSURI, "JWKS_URI"); err != nil {
		return err
	}
	// The hosted UI needs both halves or neither.
	if (c.Cognito.Domain == "") != (c.Cognito.RedirectURI == "") {
		return fmt.Errorf("COGNITO_DOMAIN and COGNITO_REDIRECT_URI must be set together")
	}
	if c.Cognito.RedirectURI != "" {
		if err := validateHTTPURL(c.Cognito.RedirectURI, "COGNITO_REDIRECT_URI"); err != nil {
			return err
		}
	}
	if strings.Contains(c.Cognito.Domain, "://") {
		return fmt.Errorf("COGNITO_DOMAIN must be a host name without scheme")
	}
	return nil
}

func (c *Config) validateMongo() error {
	if c.Mongo.URL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if !strings.HasPrefix(c.Mongo.URL, "mongodb://") && !strings.HasPrefix(c.Mongo.URL, "mongodb+srv://") {
		return fmt.Errorf("DB_URL must use the mongodb:// or mongodb+srv:// scheme")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Bucket == "" {
		return fmt.Errorf("AWS_BUCKET_NAME is required")
	}
	if c.Storage.PresignExpiry < time.Minute || c.Storage.PresignExpiry > 7*24*time.Hour {
		return fmt.Errorf("PRESIGN_EXPIRY must be between 1m and 168h")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateRecords() error {
	if c.Records.Table == "" {
		return fmt.Errorf("DYNAMO_TABLE_NAME is required")
	}
	if c.Records.PartitionValue == "" {
		return fmt.Errorf("QUT_USERNAME is required")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if !c.Queue.Enabled() {
		return nil
	}
	if err := validateHTTPURL(c.Queue.URL, "SQS_QUEUE_URL"); err != nil {
		return err
	}
	if c.Queue.WaitSeconds < 0 || c.Queue.WaitSeconds > 20 {
		return fmt.Errorf("SQS_WAIT_SECONDS must be between 0 and 20")
	}
	if c.Queue.DedupEnabled && c.Queue.DedupCapacity < 1 {
		return fmt.Errorf("QUEUE_DEDUP_CAPACITY must be at least 1 when deduplication is enabled")
	}
	return nil
}

func (c *Config) validateBackplane() error {
	if !c.Backplane.Enabled {
		return nil
	}
	if c.Backplane.SubjectPrefix == "" {
		return fmt.Errorf("BACKPLANE_SUBJECT_PREFIX is required when BACKPLANE_ENABLED=true")
	}
	if c.Backplane.EmbeddedServer {
		if c.Backplane.EmbeddedPort < 1 || c.Backplane.EmbeddedPort > 65535 {
			return fmt.Errorf("NATS_EMBEDDED_PORT must be between 1 and 65535")
		}
		return nil
	}
	return validateNATSURL(c.Backplane.URL)
}

var validSessionStores = map[string]bool{"mongo": true, "badger": true, "memory": true}

func (c *Config) validateSession() error {
	if !validSessionStores[c.Session.Store] {
		return fmt.Errorf("SESSION_STORE must be one of: mongo, badger, memory")
	}
	if c.Session.Store == "badger" && c.Session.BadgerPath == "" {
		return fmt.Errorf("SESSION_BADGER_PATH is required when SESSION_STORE=badger")
	}
	if c.Session.TTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	if c.Server.IsProduction() {
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
		}
		if containsPlaceholder(c.Session.Secret) {
			return fmt.Errorf("SESSION_SECRET contains a placeholder value")
		}
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.Server.IsProduction() {
		for _, o := range c.Security.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS=* is not allowed in production because session cookies are sent with credentials")
			}
		}
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

var placeholderPatterns = []string{"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "PLACEHOLDER", "EXAMPLE"}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

// validateHTTPURL requires an http(s) scheme and a host. Paths are allowed
// because JWKS and queue URLs carry them.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("NATS_URL failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NATS_URL host is required")
	}
	return nil
}
