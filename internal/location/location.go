// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package location resolves where a requesting user is.
//
// A Provider reports the current coordinate or one of three failures:
// permission denied, unavailable or timeout. The Resolver bounds each
// lookup with a timeout and substitutes the configured default coordinate
// on failure. When no default exists the location is reported as absent
// and the recommendation engine scores distance neutrally.
package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/metrics"
)

var (
	// ErrPermissionDenied means the client refused to share its location.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means no location could be determined.
	ErrUnavailable = errors.New("location unavailable")
	// ErrTimeout means the lookup did not finish in time.
	ErrTimeout = errors.New("location lookup timed out")
)

// Unavailable wraps a provider failure. It is never fatal to a request.
type Unavailable struct {
	Reason error
}

func (e *Unavailable) Error() string {
	return "location unavailable: " + e.Reason.Error()
}

func (e *Unavailable) Unwrap() error { return e.Reason }

// Provider reports the user's current location.
type Provider interface {
	CurrentLocation(ctx context.Context) (geo.Coordinate, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (geo.Coordinate, error)

// CurrentLocation calls f.
func (f ProviderFunc) CurrentLocation(ctx context.Context) (geo.Coordinate, error) {
	return f(ctx)
}

// StaticProvider always reports the same coordinate.
type StaticProvider struct {
	Coordinate geo.Coordinate
}

// CurrentLocation returns the fixed coordinate.
func (p StaticProvider) CurrentLocation(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	if !p.Coordinate.Valid() {
		return geo.Coordinate{}, ErrUnavailable
	}
	return p.Coordinate, nil
}

// QueryParams are the request query parameters carrying a client-reported
// location.
const (
	ParamLatitude  = "lat"
	ParamLongitude = "lon"
	// ParamDenied is set by clients whose user refused location access.
	ParamDenied = "location_denied"
)

// FromRequest returns a provider for the coordinate the client sent with r.
// Missing parameters are ErrUnavailable, malformed or out of range ones are
// ErrUnavailable as well, and location_denied=true is ErrPermissionDenied.
func FromRequest(r *http.Request) Provider {
	q := r.URL.Query()
	return ProviderFunc(func(ctx context.Context) (geo.Coordinate, error) {
		if denied, _ := strconv.ParseBool(q.Get(ParamDenied)); denied {
			return geo.Coordinate{}, ErrPermissionDenied
		}
		latStr, lonStr := strings.TrimSpace(q.Get(ParamLatitude)), strings.TrimSpace(q.Get(ParamLongitude))
		if latStr == "" || lonStr == "" {
			return geo.Coordinate{}, ErrUnavailable
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return geo.Coordinate{}, fmt.Errorf("%w: bad latitude %q", ErrUnavailable, latStr)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return geo.Coordinate{}, fmt.Errorf("%w: bad longitude %q", ErrUnavailable, lonStr)
		}
		c := geo.Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			return geo.Coordinate{}, fmt.Errorf("%w: %s out of range", ErrUnavailable, c)
		}
		return c, nil
	})
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Coordinate is nil when the location is unknown.
	Coordinate *geo.Coordinate
	// Defaulted is true when the configured default was substituted.
	Defaulted bool
	// Err is the provider failure, if any. It is informational.
	Err error
}

// Resolver applies the timeout and default-substitution policy.
type Resolver struct {
	timeout  time.Duration
	fallback *geo.Coordinate
	logger   zerolog.Logger
}

// NewResolver creates a resolver. fallback may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewResolver(timeout time.Duration, fallback *geo.Coordinate, logger zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{
		timeout:  timeout,
		fallback: fallback,
		logger:   logger.With().Str("component", "location").Logger(),
	}
}

// NewResolverFromConfig builds a resolver from the location section.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewResolverFromConfig(cfg *config.LocationConfig, logger zerolog.Logger) *Resolver {
	var fallback *geo.Coordinate
	if cfg.UseDefault {
		fallback = &geo.Coordinate{Lat: cfg.DefaultLatitude, Lon: cfg.DefaultLongitude}
	}
	return NewResolver(cfg.Timeout, fallback, logger)
}

// Resolve asks p for the current location. Failures never propagate: they
// yield the default coordinate or an absent location.
func (r *Resolver) Resolve(ctx context.Context, p Provider) Resolution {
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		c   geo.Coordinate
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := p.CurrentLocation(lctx)
		ch <- result{c, err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-lctx.Done():
		res.err = ErrTimeout
	}
	if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
		res.err = ErrTimeout
	}
	if res.err == nil && !res.c.Valid() {
		res.err = ErrUnavailable
	}

	if res.err == nil {
		metrics.RecordLocationResolution("resolved")
		c := res.c
		return Resolution{Coordinate: &c}
	}

	err := &Unavailable{Reason: res.err}
	if r.fallback != nil {
		metrics.RecordLocationResolution("defaulted")
		r.logger.Debug().Err(res.err).Str("default", r.fallback.String()).Msg("using default location")
		c := *r.fallback
		return Resolution{Coordinate: &c, Defaulted: true, Err: err}
	}

	metrics.RecordLocationResolution(outcome(res.err))
	r.logger.Debug().Err(res.err).Msg("location unknown, scoring distance neutrally")
	return Resolution{Err: err}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "unavailable"
	}
}
