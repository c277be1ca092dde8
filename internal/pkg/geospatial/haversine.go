package geospatial

import (
	"math"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Distance is Haversine over two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Offset returns the point reached by moving northMeters north and eastMeters
// east of p, using a local flat-earth approximation.
func Offset(p domain.GeoPoint, northMeters, eastMeters float64) domain.GeoPoint {
	metersPerDegLat := EarthRadiusMeters * math.Pi / 180
	return domain.GeoPoint{
		Lat: p.Lat + northMeters/metersPerDegLat,
		Lon: p.Lon + eastMeters/(metersPerDegLat*math.Cos(toRad(p.Lat))),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
