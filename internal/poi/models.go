// Package poi provides the point-of-interest catalog and semantic search
// used to ground generated itineraries in real places.
package poi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// POI errors.
var (
	ErrPOINotFound         = errors.New("poi not found")
	ErrEmbedderUnavailable = errors.New("embedding provider unavailable")
)

// POI is a catalog entry for a place of interest.
type POI struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Address       string    `json:"address"`
	Rating        float64   `json:"rating"`
	TicketPrice   int       `json:"ticket_price"`
	BusinessHours string    `json:"business_hours"`
	Tags          []string  `json:"tags"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Document renders the POI as the text that gets embedded for semantic
// search.
func (p *POI) Document() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", p.Name, p.Type)
	fmt.Fprintf(&b, "Address: %s\n", p.Address)
	fmt.Fprintf(&b, "Rating: %.1f\n", p.Rating)
	fmt.Fprintf(&b, "Ticket price: %d\n", p.TicketPrice)
	fmt.Fprintf(&b, "Business hours: %s\n", p.BusinessHours)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(&b, "\n%s", p.Description)
	return b.String()
}

// Hint renders the POI as a one-line planner prompt hint.
func (p *POI) Hint() string {
	hint := fmt.Sprintf("%s (%s), %s", p.Name, p.Type, p.Address)
	if p.BusinessHours != "" {
		hint += ", hours: " + p.BusinessHours
	}
	return hint
}

// SearchResult is a POI with its similarity score.
type SearchResult struct {
	POI   *POI    `json:"poi"`
	Score float64 `json:"score"`
}

// Embedder turns text into a vector. Implemented by internal/poi/dashscope.
type Embedder interface {
	// Embed returns the embedding vector for the text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Name returns the provider name for logging.
	Name() string
}
