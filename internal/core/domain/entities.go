package domain

import (
	"encoding/json"
	"errors"
)

const (
	// UnnamedPlace is used when a feature carries no name tag.
	UnnamedPlace = "Unnamed"
	// UnknownCategory is used when none of the category tags is present.
	UnknownCategory = "Unknown"
	// AddressUnavailable replaces addresses that could not be resolved.
	AddressUnavailable = "Address unavailable"
)

// Feature is a single element returned by the geospatial feature store.
type Feature struct {
	ID       int64             `json:"id"`
	Type     string            `json:"type"`
	Tags     map[string]string `json:"tags"`
	Location GeoPoint          `json:"location"`
}

// Address is the outcome of reverse geocoding one coordinate. Either
// DisplayName is set, or Err records why the lookup failed.
type Address struct {
	DisplayName string
	Err         error
}

// ResolvedAddress builds a successful lookup result.
func ResolvedAddress(name string) Address {
	return Address{DisplayName: name}
}

// UnavailableAddress builds a failed lookup result. The cause always
// matches ErrGeocodeUnavailable under errors.Is.
func UnavailableAddress(cause error) Address {
	if cause == nil {
		cause = ErrGeocodeUnavailable
	} else if !errors.Is(cause, ErrGeocodeUnavailable) {
		cause = errors.Join(ErrGeocodeUnavailable, cause)
	}
	return Address{Err: cause}
}

// Available reports whether the lookup produced a display name.
func (a Address) Available() bool {
	return a.Err == nil && a.DisplayName != ""
}

// String returns the display name, or the placeholder when unavailable.
func (a Address) String() string {
	if !a.Available() {
		return AddressUnavailable
	}
	return a.DisplayName
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Place is a ranked search candidate.
type Place struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Location GeoPoint `json:"location"`
	Distance float64  `json:"distance"` // meters from the search origin
	Address  Address  `json:"address"`
}

// SearchResult is the outcome of one proximity search.
type SearchResult struct {
	ID     string      `json:"search_id"`
	Query  SearchQuery `json:"query"`
	Places []Place     `json:"places"`
}

// Settings holds the externally managed messages and radius used by the
// chat-facing entry point.
type Settings struct {
	RequestLocationMessage string  `json:"request_location_message"`
	ErrorMessage           string  `json:"error_message"`
	SearchRadius           float64 `json:"search_radius"`
}

const (
	DefaultRequestLocationMessage = "Please share your location to find places nearby."
	DefaultErrorMessage           = "Sorry, I encountered an error while searching for nearby places. Please try again."
	DefaultSearchRadius           = 1000.0
)

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		RequestLocationMessage: DefaultRequestLocationMessage,
		ErrorMessage:           DefaultErrorMessage,
		SearchRadius:           DefaultSearchRadius,
	}
}

// WithDefaults fills empty fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.RequestLocationMessage == "" {
		s.RequestLocationMessage = d.RequestLocationMessage
	}
	if s.ErrorMessage == "" {
		s.ErrorMessage = d.ErrorMessage
	}
	if !(s.SearchRadius > 0) {
		s.SearchRadius = d.SearchRadius
	}
	return s
}

// ChatRequest is an utterance from the conversational layer. Location is
// nil when the user has not shared one.
type ChatRequest struct {
	Text     string    `json:"text"`
	Location *GeoPoint `json:"location,omitempty"`
}

// ReplyKind tells the conversational layer which message it is receiving.
type ReplyKind string

const (
	ReplyRequestLocation ReplyKind = "request_location"
	ReplyResults         ReplyKind = "results"
	ReplyError           ReplyKind = "error"
)

// ChatReply is the text handed back to the conversational layer.
type ChatReply struct {
	Kind ReplyKind `json:"kind"`
	Text string    `json:"text"`
}
