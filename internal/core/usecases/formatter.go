package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// NoResultsMessage is returned by FormatPlaces for an empty list.
const NoResultsMessage = "I couldn't find any places matching your request nearby."

// FormatPlaces renders ranked places as a numbered text list.
func FormatPlaces(places []domain.Place) string {
	if len(places) == 0 {
		return NoResultsMessage
	}

	var b strings.Builder
	b.WriteString("Here are the nearest places I found:\n\n")
	for i, p := range places {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "   Distance: %.2f km\n", p.Distance/1000)
		fmt.Fprintf(&b, "   Address: %s\n", p.Address)
		fmt.Fprintf(&b, "   Map: %s\n\n", MapURL(p.Location))
	}
	return b.String()
}

// MapURL links to an OpenStreetMap view centred on p.
func MapURL(p domain.GeoPoint) string {
	return "https://www.openstreetmap.org/?mlat=" + strconv.FormatFloat(p.Lat, 'f', -1, 64) +
		"&mlon=" + strconv.FormatFloat(p.Lon, 'f', -1, 64) + "&zoom=16"
}
