package usecases

import (
	"cmp"
	"slices"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/pkg/geospatial"
)

// DefaultTopK is the number of places kept after ranking.
const DefaultTopK = 5

// Rank converts features to places, orders them by distance from origin
// (stable for equal distances) and keeps the first topK.
func Rank(features []domain.Feature, origin domain.GeoPoint, topK int) []domain.Place {
	if topK <= 0 {
		topK = DefaultTopK
	}

	places := make([]domain.Place, 0, len(features))
	for _, f := range features {
		places = append(places, toPlace(f, origin))
	}

	slices.SortStableFunc(places, func(a, b domain.Place) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	if len(places) > topK {
		places = places[:topK]
	}
	return places
}

func toPlace(f domain.Feature, origin domain.GeoPoint) domain.Place {
	name := f.Tags["name"]
	if name == "" {
		name = domain.UnnamedPlace
	}
	return domain.Place{
		Name:     name,
		Category: category(f.Tags),
		Location: f.Location,
		Distance: geospatial.Distance(origin, f.Location),
	}
}

// category returns the value of the first CategoryKeys tag present.
func category(tags map[string]string) string {
	for _, key := range domain.CategoryKeys {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return domain.UnknownCategory
}
