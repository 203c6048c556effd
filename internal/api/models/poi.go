package models

import "github.com/tripatlas/tripatlas/internal/poi"

// POISearchResponse is the response body for semantic POI search.
type POISearchResponse struct {
	Query string             `json:"query"`
	Items []poi.SearchResult `json:"items"`
}

// POIIndexResponse acknowledges an indexed point of interest.
type POIIndexResponse struct {
	ID      string `json:"id"`
	Indexed bool   `json:"indexed"`
}

// CacheInvalidationResponse reports what an admin cache flush cleared.
type CacheInvalidationResponse struct {
	GeocodeEntries int `json:"geocodeEntries"`
	HoursEntries   int `json:"hoursEntries"`
	WeatherEntries int `json:"weatherEntries"`
}
