package domain

import "errors"

var (
	// ErrMissingLocation means the caller did not provide an origin.
	ErrMissingLocation = errors.New("origin location is missing")
	// ErrSearchUnavailable means the feature store query failed.
	ErrSearchUnavailable = errors.New("feature search unavailable")
	// ErrGeocodeUnavailable means reverse geocoding failed for one coordinate.
	ErrGeocodeUnavailable = errors.New("reverse geocoding unavailable")
)

// ErrInvalidLocation means the origin lies outside WGS 84 ranges.
var ErrInvalidLocation = errors.New("origin location is invalid")

// ErrInvalidRadius means the search radius is not a finite value within
// 0..MaxSearchRadius meters.
var ErrInvalidRadius = errors.New("search radius is invalid")
