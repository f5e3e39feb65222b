// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package config

import (
	"fmt"
	"strings"
	"time"
)

var validLogFormats = map[string]bool{"json": true, "console": true}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// minJWTSecretLength is the shortest accepted HS256 secret.
const minJWTSecretLength = 32

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLocation(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}
	if !c.Profiles.InMemory && c.Profiles.Path == "" {
		return fmt.Errorf("PROFILES_PATH is required unless PROFILES_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.MinResults <= 0 {
		return fmt.Errorf("recommend.min_results must be positive, got %d", r.MinResults)
	}
	if r.DefaultRadiusKm <= 0 {
		return fmt.Errorf("recommend.default_radius_km must be positive, got %v", r.DefaultRadiusKm)
	}
	if r.MaxRadiusKm < r.DefaultRadiusKm {
		return fmt.Errorf("recommend.max_radius_km (%v) must be >= default_radius_km (%v)", r.MaxRadiusKm, r.DefaultRadiusKm)
	}
	if r.CandidateLimit <= 0 || r.ResultLimit <= 0 {
		return fmt.Errorf("recommend.candidate_limit and result_limit must be positive")
	}
	if err := validateWeights(r.Weights); err != nil {
		return err
	}
	if err := validateUnit("recommend.neutral_distance", r.NeutralDistance); err != nil {
		return err
	}
	if err := validateUnit("recommend.adjacent_credit", r.AdjacentCredit); err != nil {
		return err
	}
	if r.EngagementCap <= 0 {
		return fmt.Errorf("recommend.engagement_cap must be positive, got %d", r.EngagementCap)
	}
	if r.RecencyKnee < 0 || r.RecencyDecay <= 0 {
		return fmt.Errorf("recommend.recency_knee must be >= 0 and recency_decay > 0")
	}
	if r.PreferredHourBonus < 0 {
		return fmt.Errorf("recommend.preferred_hour_bonus must be >= 0")
	}
	if r.NowWindow <= 0 {
		return fmt.Errorf("recommend.now_window must be positive")
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("recommend.timezone %q is invalid: %w", r.Timezone, err)
	}
	return nil
}

func validateWeights(w WeightsConfig) error {
	for name, v := range map[string]float64{
		"distance":   w.Distance,
		"interest":   w.Interest,
		"engagement": w.Engagement,
		"recency":    w.Recency,
	} {
		if v < 0 {
			return fmt.Errorf("recommend.weights.%s must be >= 0, got %v", name, v)
		}
	}
	if w.Distance+w.Interest+w.Engagement+w.Recency <= 0 {
		return fmt.Errorf("recommend.weights must not all be zero")
	}
	return nil
}

func validateUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0,1], got %v", name, v)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}
	if c.Cache.StaleBroadcastInterval <= 0 {
		return fmt.Errorf("CACHE_STALE_BROADCAST_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateLocation() error {
	if c.Location.Timeout <= 0 {
		return fmt.Errorf("LOCATION_TIMEOUT must be positive")
	}
	if !c.Location.UseDefault {
		return nil
	}
	if c.Location.DefaultLatitude < -90 || c.Location.DefaultLatitude > 90 {
		return fmt.Errorf("LOCATION_DEFAULT_LATITUDE must be within [-90,90]")
	}
	if c.Location.DefaultLongitude < -180 || c.Location.DefaultLongitude > 180 {
		return fmt.Errorf("LOCATION_DEFAULT_LONGITUDE must be within [-180,180]")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.NATS.StreamName == "" || c.NATS.DurableName == "" {
		return fmt.Errorf("NATS_STREAM_NAME and NATS_DURABLE_NAME are required when NATS is enabled")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	case "jwt":
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}

	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS=* is not allowed when ENVIRONMENT=production")
			}
		}
	}
	return nil
}
