package venues

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meetpoint-app/meetpoint/pkg/provider/llm"
)

const defaultCity = "London"

// FinderOption is a functional option for configuring a Finder.
type FinderOption func(*Finder)

// WithCity sets the city the finder searches in. Defaults to London.
func WithCity(city string) FinderOption {
	return func(f *Finder) { f.city = city }
}

// Finder asks the model for meeting venues balancing two journeys.
type Finder struct {
	provider llm.Provider
	city     string
}

// NewFinder creates a Finder backed by the given text LLM provider.
func NewFinder(provider llm.Provider, opts ...FinderOption) *Finder {
	f := &Finder{provider: provider, city: defaultCity}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Find requests 3-5 candidate venues for q. The model's reply is expected to
// be a JSON object {"venues": [...]}, optionally wrapped in markdown code
// fences, and is trusted verbatim.
func (f *Finder) Find(ctx context.Context, q Query) ([]Venue, error) {
	if strings.TrimSpace(q.LocationA) == "" || strings.TrimSpace(q.LocationB) == "" {
		return nil, fmt.Errorf("venues: both starting locations are required")
	}

	resp, err := f.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: f.buildPrompt(q)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("venues: find: %w", err)
	}

	var payload struct {
		Venues []Venue `json:"venues"`
	}
	raw := stripCodeFences(resp.Content)
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("venues: parse model reply: %w", err)
	}
	return payload.Venues, nil
}

// buildPrompt embeds the two locations, transit-mode preferences, and the
// optional coordinate bias into the instruction, and pins the reply schema.
func (f *Finder) buildPrompt(q Query) string {
	var b strings.Builder

	fmt.Fprintf(&b, "As a %s transit expert, find 3-5 public meeting points in %s (like cafes, pubs, parks, or museums) that are optimally located for two people traveling from different locations.\n\n", f.city, f.city)
	fmt.Fprintf(&b, "Person A Location: %q\n", q.LocationA)
	fmt.Fprintf(&b, "Person B Location: %q\n\n", q.LocationB)
	b.WriteString("Your goal is to find venues where the public transport travel time from both starting locations is as close to equal as possible.\n\n")

	if len(q.TransitModes) > 0 {
		fmt.Fprintf(&b, "Both travelers prefer these transport modes: %s. Favor venues well served by them.\n\n", strings.Join(q.TransitModes, ", "))
	}
	if q.Bias != nil {
		fmt.Fprintf(&b, "The requester is currently near latitude %.4f, longitude %.4f; when candidates are otherwise equal, prefer the closer one.\n\n", q.Bias.Latitude, q.Bias.Longitude)
	}

	b.WriteString("Consider current and typical service disruptions, line closures, and delays. For each suggested venue, provide a note about any transit considerations that might affect the journey. Prioritize locations with good, reliable transport links; the suggestions should be diverse.\n\n")
	b.WriteString(`Respond ONLY with a valid JSON object in the following format. Do not include any other text, explanations, or markdown formatting.
{
  "venues": [
    {
      "name": "The name of the venue.",
      "type": "The type of venue (e.g., Cafe, Pub, Park, Museum).",
      "description": "A brief, one-sentence description of the venue and why it's a good meeting spot.",
      "fairness": "A comment on how fair the travel time is from both locations.",
      "location": {"latitude": 51.5074, "longitude": -0.1278},
      "transit_notes": "A brief note on potential disruptions or advantages for reaching this venue.",
      "place_id": "The maps place identifier for the venue.",
      "photo_url": "A publicly accessible URL for a representative image of the venue."
    }
  ]
}`)
	return b.String()
}

// stripCodeFences removes a wrapping markdown code fence, with or without a
// language tag, from the model's reply.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
