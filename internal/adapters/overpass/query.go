package overpass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
)

// elementTypes overrides the element type searched for a category key.
// Keys not listed are searched as nodes.
var elementTypes = map[string]string{
	"landuse":  "way",
	"building": "way",
}

// ElementType returns the overpass element type searched for key.
func ElementType(key string) string {
	if t, ok := elementTypes[key]; ok {
		return t
	}
	return "node"
}

// DefaultQueryTimeout is the server-side timeout, in seconds, written into queries.
const DefaultQueryTimeout = 25

// BuildQuery renders an Overpass QL union selecting q.Keyword under every
// category within q.RadiusMeters of q.Origin.
func BuildQuery(q domain.SearchQuery, timeoutSeconds int) string {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultQueryTimeout
	}
	around := fmt.Sprintf("(around:%s,%s,%s)",
		formatFloat(q.RadiusMeters), formatFloat(q.Origin.Lat), formatFloat(q.Origin.Lon))
	value := escape(q.Keyword)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", timeoutSeconds)
	for _, key := range domain.CategoryKeys {
		fmt.Fprintf(&b, "  %s[\"%s\"=\"%s\"]%s;\n", ElementType(key), key, value, around)
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}

// escape makes s safe inside a double-quoted Overpass QL string.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
