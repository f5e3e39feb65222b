// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package config loads Rendezvous configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, then DefaultConfigPaths)
//  3. Environment variables listed in envMappings
//
// The recommend section is the tuning surface of the ranking engine: factor
// weights, the fallback threshold, radii and the recency curve all live
// there, as does the optional tag/category taxonomy override.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Profiles  ProfilesConfig  `koanf:"profiles"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Location  LocationConfig  `koanf:"location"`
	NATS      NATSConfig      `koanf:"nats"`
	Security  SecurityConfig  `koanf:"security"`
	Breaker   BreakerConfig   `koanf:"breaker"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the DuckDB event store.
type DatabaseConfig struct {
	// Path of the DuckDB file. ":memory:" keeps everything in process.
	Path         string        `koanf:"path"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	SeedDemoData bool          `koanf:"seed_demo_data"`
}

// ProfilesConfig configures the Badger user profile store.
type ProfilesConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// WeightsConfig holds the per-factor weights of the total score.
type WeightsConfig struct {
	Distance   float64 `koanf:"distance"`
	Interest   float64 `koanf:"interest"`
	Engagement float64 `koanf:"engagement"`
	Recency    float64 `koanf:"recency"`
}

// TaxonomyConfig overrides the built-in tag and category tables.
// Empty maps keep the built-in defaults.
type TaxonomyConfig struct {
	TagCategories map[string]string   `koanf:"tag_categories"`
	Adjacency     map[string][]string `koanf:"adjacency"`
}

// RecommendConfig tunes ranking and the fallback cascade.
type RecommendConfig struct {
	MinResults         int            `koanf:"min_results"`
	DefaultRadiusKm    float64        `koanf:"default_radius_km"`
	MaxRadiusKm        float64        `koanf:"max_radius_km"`
	CandidateLimit     int            `koanf:"candidate_limit"`
	ResultLimit        int            `koanf:"result_limit"`
	Weights            WeightsConfig  `koanf:"weights"`
	NeutralDistance    float64        `koanf:"neutral_distance"`
	AdjacentCredit     float64        `koanf:"adjacent_credit"`
	EngagementCap      int            `koanf:"engagement_cap"`
	RecencyKnee        time.Duration  `koanf:"recency_knee"`
	RecencyDecay       time.Duration  `koanf:"recency_decay"`
	PreferredHourBonus float64        `koanf:"preferred_hour_bonus"`
	NowWindow          time.Duration  `koanf:"now_window"`
	Timezone           string         `koanf:"timezone"`
	Taxonomy           TaxonomyConfig `koanf:"taxonomy"`
}

// CacheConfig configures the candidate result cache.
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	// StaleBroadcastInterval spaces websocket stale notices. Changes
	// arriving faster are folded into the next notice.
	StaleBroadcastInterval time.Duration `koanf:"stale_broadcast_interval"`
}

// LocationConfig controls the fallback coordinate used when a client does not
// share its location.
type LocationConfig struct {
	UseDefault       bool          `koanf:"use_default"`
	DefaultLatitude  float64       `koanf:"default_latitude"`
	DefaultLongitude float64       `koanf:"default_longitude"`
	Timeout          time.Duration `koanf:"timeout"`
}

// NATSConfig configures the change-notification transport when the binary
// is built with -tags nats. Without the tag notifications stay in process.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	URL            string `koanf:"url"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	StoreDir       string `koanf:"store_dir"`
	StreamName     string `koanf:"stream_name"`
	DurableName    string `koanf:"durable_name"`
	MaxReconnects  int    `koanf:"max_reconnects"`
}

// SecurityConfig configures authentication, CORS and rate limiting.
type SecurityConfig struct {
	// AuthMode is "none" (user id from the query string) or "jwt" (user id
	// from the bearer token subject).
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// BreakerConfig configures the circuit breaker around the event repository.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
