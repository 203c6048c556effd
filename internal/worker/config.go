// Package worker provides background job processing for TripAtlas.
package worker

import (
	"sort"
	"time"
)

// RefreshTarget is a destination whose caches the worker keeps warm.
type RefreshTarget struct {
	// City is the destination city name, as accepted by the weather service.
	City string

	// ForecastDays is the forecast horizon to warm for this city.
	ForecastDays int

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the destination refresh job.
type RefreshConfig struct {
	// Targets are the destinations to refresh.
	// If empty, uses DefaultRefreshTargets.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshWeather enables forecast cache warming.
	// Default: true
	RefreshWeather bool

	// CheckGeo enables a map-provider connectivity check per run.
	// Default: true
	CheckGeo bool

	// ReindexPOIs enables catalog re-embedding per run.
	// Default: false, re-embedding the whole catalog is expensive.
	ReindexPOIs bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:        DefaultRefreshTargets(),
		Concurrency:    3,
		Timeout:        30 * time.Second,
		RefreshWeather: true,
		CheckGeo:       true,
	}
}

// DefaultRefreshTargets returns the default refresh targets: the
// destinations travellers plan for most, with popular ones first.
func DefaultRefreshTargets() []RefreshTarget {
	return []RefreshTarget{
		{City: "北京", ForecastDays: 7, Priority: 1},
		{City: "上海", ForecastDays: 7, Priority: 1},
		{City: "成都", ForecastDays: 7, Priority: 1},
		{City: "西安", ForecastDays: 7, Priority: 1},
		{City: "杭州", ForecastDays: 7, Priority: 2},
		{City: "广州", ForecastDays: 7, Priority: 2},
		{City: "重庆", ForecastDays: 7, Priority: 2},
		{City: "南京", ForecastDays: 3, Priority: 3},
		{City: "苏州", ForecastDays: 3, Priority: 3},
		{City: "厦门", ForecastDays: 3, Priority: 3},
	}
}

// OrderedTargets returns the targets sorted by priority, highest first.
func (c RefreshConfig) OrderedTargets() []RefreshTarget {
	ordered := make([]RefreshTarget, len(c.Targets))
	copy(ordered, c.Targets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

// TotalTargets returns the number of destinations to refresh.
func (c RefreshConfig) TotalTargets() int {
	return len(c.Targets)
}
