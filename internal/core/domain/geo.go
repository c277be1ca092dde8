package domain

import (
	"fmt"
	"math"
)

// MaxSearchRadius is the largest radius, in meters, a search may cover.
const MaxSearchRadius = 50000.0

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point lies within the WGS 84 coordinate ranges.
func (p GeoPoint) Validate() error {
	if !finite(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", p.Lat)
	}
	if !finite(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", p.Lon)
	}
	return nil
}

// ValidateRadius accepts 0 (use the configured default) up to MaxSearchRadius.
func ValidateRadius(r float64) error {
	if !finite(r) || r < 0 || r > MaxSearchRadius {
		return fmt.Errorf("radius must be between 0 and %v meters, got %v", MaxSearchRadius, r)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
