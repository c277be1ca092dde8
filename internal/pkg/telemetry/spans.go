package telemetry

// Span names used for tracing the search pipeline.
const (
	SpanSearch        = "places.search"
	SpanFeatureSearch = "places.feature_search"
	SpanEnrich        = "places.enrich"
	SpanReply         = "places.reply"
)
