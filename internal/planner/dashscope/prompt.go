package dashscope

import (
	"fmt"
	"strings"

	"github.com/tripatlas/tripatlas/internal/itinerary"
)

// buildPlanPrompt renders the itinerary generation prompt. The schema block
// mirrors the JSON shape of itinerary.TripPlan so the response unmarshals
// directly.
func buildPlanPrompt(req itinerary.TripRequest, hints []string) string {
	var b strings.Builder

	theme := req.Theme
	if theme == "" {
		theme = "leisure travel"
	}

	fmt.Fprintf(&b, "Create a detailed travel itinerary for %s.\n\n", req.Destination)
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", req.Destination)
	fmt.Fprintf(&b, "- Trip length: %d days\n", req.DurationDays)
	fmt.Fprintf(&b, "- Theme: %s\n", theme)

	if req.Budget != nil {
		fmt.Fprintf(&b, "- Budget: %d\n", *req.Budget)
	}
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(req.Interests, ", "))
	}
	if req.StartDate != "" {
		fmt.Fprintf(&b, "- Start date: %s\n", req.StartDate)
	}
	if !req.IncludeAccommodation {
		b.WriteString("- Do not include accommodation activities\n")
	}

	if len(hints) > 0 {
		b.WriteString("\nKnown places at the destination, prefer these when relevant:\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	fmt.Fprintf(&b, `
Respond with a trip plan strictly matching this JSON schema:

{
  "destination": "destination name",
  "duration_days": %d,
  "theme": "trip theme",
  "start_date": "YYYY-MM-DD",
  "end_date": "YYYY-MM-DD",
  "daily_plans": [
    {
      "date": "YYYY-MM-DD",
      "day_title": "title for the day",
      "activities": [
        {
          "name": "activity name",
          "type": "one of sightseeing/dining/shopping/entertainment/transportation/accommodation/culture/nature",
          "location": "full address",
          "start_time": "HH:MM",
          "end_time": "HH:MM",
          "duration_minutes": 0,
          "description": "detailed description",
          "estimated_cost": 0,
          "tips": "practical tip"
        }
      ],
      "daily_summary": "summary of the day",
      "estimated_daily_cost": 0
    }
  ],
  "total_estimated_cost": 0,
  "general_tips": ["tip 1", "tip 2"]
}

Rules:
1. Leave realistic travel time between activities
2. Cost estimates must be realistic
3. Attractions and restaurants must really exist
4. Plan 4-6 main activities per day
5. Include breakfast, lunch, and dinner
6. Give practical travel tips
7. Return only the JSON object, no other text
`, req.DurationDays)

	return b.String()
}

// buildExtractPrompt renders the free-text extraction prompt. The schema
// mirrors itinerary.TripRequest.
func buildExtractPrompt(text string) string {
	return fmt.Sprintf(`Extract a structured travel request from the text below.

Text: %q

Respond with JSON strictly matching this schema, omitting fields the text
does not mention:

{
  "destination": "destination name",
  "duration_days": 0,
  "theme": "trip theme",
  "budget": 0,
  "interests": ["interest 1"],
  "start_date": "YYYY-MM-DD",
  "include_accommodation": false
}

Rules:
1. duration_days must be between 1 and 30; infer it from phrases like "a weekend" (2) or "a week" (7), defaulting to 3
2. Named attractions the user wants to visit go into interests
3. Return only the JSON object, no other text
`, text)
}
