// Package venues suggests fair meeting venues for two people traveling from
// different starting points and keeps a persistent list of saved venues.
//
// Transit reasoning, fairness scoring, and venue discovery are delegated
// entirely to a generative model; this package constructs the prompt, parses
// the structured reply, and trusts the model's ranking verbatim.
package venues

import "errors"

// ErrNotFound is returned by the store when no saved venue matches the key.
var ErrNotFound = errors.New("venues: not found")

// Coords is a WGS84 coordinate pair.
type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Venue is one candidate meeting point as returned by the model.
type Venue struct {
	// Name is the venue name.
	Name string `json:"name"`

	// Type is the venue category, e.g. "Cafe", "Pub", "Park", "Museum".
	Type string `json:"type"`

	// Description is a one-sentence summary of why the venue is a good
	// meeting spot.
	Description string `json:"description"`

	// Fairness is the model's judgment of how equal the two parties'
	// travel burdens are.
	Fairness string `json:"fairness"`

	// Location is the venue position.
	Location Coords `json:"location"`

	// TransitNotes flags service disruptions or advantages relevant to
	// reaching the venue.
	TransitNotes string `json:"transit_notes,omitempty"`

	// PlaceID is the maps place identifier; saved venues are keyed by it.
	PlaceID string `json:"place_id"`

	// PhotoURL is a representative image of the venue.
	PhotoURL string `json:"photo_url,omitempty"`
}

// Query describes one venue search.
type Query struct {
	// LocationA and LocationB are the two starting points, free text.
	LocationA string `json:"location_a"`
	LocationB string `json:"location_b"`

	// TransitModes lists preferred modes, e.g. "tube", "bus", "rail".
	// Empty means any public transport.
	TransitModes []string `json:"transit_modes,omitempty"`

	// Bias optionally biases results toward the requester's position.
	Bias *Coords `json:"bias,omitempty"`
}
