// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package geo provides great-circle distance and search boundary geometry.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// MinPolygonPoints is the smallest vertex count BoundaryPolygon produces.
const MinPolygonPoints = 3

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether c lies within the latitude and longitude ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.5f,%.5f)", c.Lat, c.Lon)
}

// Polygon is a closed ring: the first vertex is repeated as the last.
type Polygon []Coordinate

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h just past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundaryPolygon approximates the circle of radiusKm around center with a
// closed ring of points vertices, starting due north and going clockwise.
// A radius <= 0 collapses every vertex onto center.
func BoundaryPolygon(center Coordinate, radiusKm float64, points int) Polygon {
	if points < MinPolygonPoints {
		points = MinPolygonPoints
	}

	ring := make(Polygon, 0, points+1)
	if radiusKm <= 0 {
		for i := 0; i <= points; i++ {
			ring = append(ring, center)
		}
		return ring
	}

	for i := 0; i < points; i++ {
		bearing := 2 * math.Pi * float64(i) / float64(points)
		ring = append(ring, Destination(center, radiusKm, bearing))
	}
	return append(ring, ring[0])
}

// Destination returns the point reached by travelling distanceKm from origin
// on the initial bearing (radians clockwise from north).
func Destination(origin Coordinate, distanceKm, bearing float64) Coordinate {
	angular := distanceKm / EarthRadiusKm
	lat1 := toRadians(origin.Lat)
	lon1 := toRadians(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coordinate{Lat: toDegrees(lat2), Lon: normalizeLon(toDegrees(lon2))}
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
