// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rendezvous/config.yaml",
	"/etc/rendezvous/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:         "/data/rendezvous.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = runtime.NumCPU()
			QueryTimeout: 5 * time.Second,
			SeedDemoData: false,
		},
		Profiles: ProfilesConfig{
			Path:     "/data/profiles",
			InMemory: false,
		},
		Recommend: RecommendConfig{
			MinResults:      6,
			DefaultRadiusKm: 25,
			MaxRadiusKm:     100,
			CandidateLimit:  500,
			ResultLimit:     50,
			Weights: WeightsConfig{
				Distance:   0.35,
				Interest:   0.30,
				Engagement: 0.15,
				Recency:    0.20,
			},
			NeutralDistance:    0.5,
			AdjacentCredit:     0.5,
			EngagementCap:      10,
			RecencyKnee:        3 * time.Hour,
			RecencyDecay:       48 * time.Hour,
			PreferredHourBonus: 0.3,
			NowWindow:          30 * time.Minute,
			Timezone:           "UTC",
		},
		Cache: CacheConfig{
			TTL:                    2 * time.Minute,
			CleanupInterval:        time.Minute,
			StaleBroadcastInterval: time.Second,
		},
		Location: LocationConfig{
			UseDefault: false,
			Timeout:    2 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:        false,
			EmbeddedServer: true,
			URL:            "nats://127.0.0.1:4222",
			Host:           "127.0.0.1",
			Port:           4222,
			StoreDir:       "/data/nats",
			StreamName:     "EVENTS",
			DurableName:    "cache-maintenance",
			MaxReconnects:  -1,
		},
		Security: SecurityConfig{
			AuthMode:          "none",
			CORSOrigins:       []string{},
			RateLimitReqs:     120,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// LoadWithKoanf loads defaults, then the optional YAML file, then the mapped
// environment variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
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
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
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

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Event store
	"duckdb_path":        "database.path",
	"duckdb_max_memory":  "database.max_memory",
	"duckdb_threads":     "database.threads",
	"db_query_timeout":   "database.query_timeout",
	"seed_demo_data":     "database.seed_demo_data",
	"profiles_path":      "profiles.path",
	"profiles_in_memory": "profiles.in_memory",

	// Ranking
	"recommend_min_results":          "recommend.min_results",
	"recommend_default_radius_km":    "recommend.default_radius_km",
	"recommend_max_radius_km":        "recommend.max_radius_km",
	"recommend_candidate_limit":      "recommend.candidate_limit",
	"recommend_result_limit":         "recommend.result_limit",
	"recommend_weight_distance":      "recommend.weights.distance",
	"recommend_weight_interest":      "recommend.weights.interest",
	"recommend_weight_engagement":    "recommend.weights.engagement",
	"recommend_weight_recency":       "recommend.weights.recency",
	"recommend_neutral_distance":     "recommend.neutral_distance",
	"recommend_adjacent_credit":      "recommend.adjacent_credit",
	"recommend_engagement_cap":       "recommend.engagement_cap",
	"recommend_recency_knee":         "recommend.recency_knee",
	"recommend_recency_decay":        "recommend.recency_decay",
	"recommend_preferred_hour_bonus": "recommend.preferred_hour_bonus",
	"recommend_now_window":           "recommend.now_window",
	"recommend_timezone":             "recommend.timezone",

	// Cache
	"cache_ttl":                      "cache.ttl",
	"cache_cleanup_interval":         "cache.cleanup_interval",
	"cache_stale_broadcast_interval": "cache.stale_broadcast_interval",

	// Location fallback
	"location_use_default":       "location.use_default",
	"location_default_latitude":  "location.default_latitude",
	"location_default_longitude": "location.default_longitude",
	"location_timeout":           "location.timeout",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_embedded":       "nats.embedded_server",
	"nats_url":            "nats.url",
	"nats_host":           "nats.host",
	"nats_port":           "nats.port",
	"nats_store_dir":      "nats.store_dir",
	"nats_stream_name":    "nats.stream_name",
	"nats_durable_name":   "nats.durable_name",
	"nats_max_reconnects": "nats.max_reconnects",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Repository circuit breaker
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",
}

// envTransformFunc returns the koanf path for an environment variable, or ""
// to skip it.
//
//	RECOMMEND_MIN_RESULTS -> recommend.min_results
//	DUCKDB_PATH           -> database.path
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
