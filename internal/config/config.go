// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete runtime configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	AWS        AWSConfig        `koanf:"aws"`
	ParamStore ParamStoreConfig `koanf:"paramstore"`
	Cognito    CognitoConfig    `koanf:"cognito"`
	Mongo      MongoConfig      `koanf:"mongo"`
	Storage    StorageConfig    `koanf:"storage"`
	Records    RecordsConfig    `koanf:"records"`
	Queue      QueueConfig      `koanf:"queue"`
	Backplane  BackplaneConfig  `koanf:"backplane"`
	Session    SessionConfig    `koanf:"session"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development or production
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether production-only checks apply.
func (s ServerConfig) IsProduction() bool {
	env := strings.ToLower(s.Environment)
	return env == "production" || env == "prod"
}

// AWSConfig selects the region shared by every AWS client. Endpoint is
// only set for local emulators such as LocalStack.
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// ParamStoreConfig enables the remote configuration layer.
type ParamStoreConfig struct {
	Enabled bool `koanf:"enabled"`
	// Prefix is the SSM path holding the parameters, e.g. "/coffeechat/".
	Prefix string `koanf:"prefix"`
	// SecretID names an optional Secrets Manager secret whose JSON object
	// is layered over the parameters.
	SecretID string `koanf:"secret_id"`
}

// CognitoConfig describes the user pool app client and its hosted UI.
type CognitoConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	// Domain is the hosted UI domain without scheme,
	// e.g. "coffeechat.auth.ap-southeast-2.amazoncognito.com".
	Domain           string        `koanf:"domain"`
	RedirectURI      string        `koanf:"redirect_uri"`
	IdentityProvider string        `koanf:"identity_provider"`
	JWKSURI          string        `koanf:"jwks_uri"`
	JWKSCacheTTL     time.Duration `koanf:"jwks_cache_ttl"`
}

// FederationEnabled reports whether the hosted UI login is configured.
func (c CognitoConfig) FederationEnabled() bool {
	return c.Domain != "" && c.RedirectURI != ""
}

// MongoConfig holds the document database connection.
type MongoConfig struct {
	URL               string        `koanf:"url"`
	Database          string        `koanf:"database"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
	SessionCollection string        `koanf:"session_collection"`
}

// StorageConfig holds the object store bucket and upload limits.
type StorageConfig struct {
	Bucket         string        `koanf:"bucket"`
	PresignExpiry  time.Duration `koanf:"presign_expiry"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
}

// RecordsConfig holds the key-value table. PartitionValue is the fixed
// partition key written on every item.
type RecordsConfig struct {
	Table          string `koanf:"table"`
	PartitionValue string `koanf:"partition_value"`
	// CreateTable creates the table at startup when it is missing.
	CreateTable bool `koanf:"create_table"`
}

// QueueConfig holds the post notification queue. An empty URL disables
// the relay entirely.
type QueueConfig struct {
	URL             string        `koanf:"url"`
	WaitSeconds     int32         `koanf:"wait_seconds"`
	PollInterval    time.Duration `koanf:"poll_interval"`
	DedupEnabled    bool          `koanf:"dedup_enabled"`
	DedupCapacity   int           `koanf:"dedup_capacity"`
	DedupTTL        time.Duration `koanf:"dedup_ttl"`
	ConsumerEnabled bool          `koanf:"consumer_enabled"`
}

// Enabled reports whether a queue URL is configured.
func (q QueueConfig) Enabled() bool {
	return q.URL != ""
}

// BackplaneConfig controls cross-process room fan-out over NATS.
type BackplaneConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	EmbeddedPort   int    `koanf:"embedded_port"`
	SubjectPrefix  string `koanf:"subject_prefix"`
}

// SessionConfig controls the server-side session store and cookie.
type SessionConfig struct {
	Secret        string        `koanf:"secret"`
	Store         string        `koanf:"store"` // mongo, badger or memory
	BadgerPath    string        `koanf:"badger_path"`
	TTL           time.Duration `koanf:"ttl"`
	CookieName    string        `koanf:"cookie_name"`
	CleanupPeriod time.Duration `koanf:"cleanup_period"`
}

// SecurityConfig holds CORS, rate limiting and moderation settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	// Moderators may edit or delete any post or comment.
	Moderators []string `koanf:"moderators"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
